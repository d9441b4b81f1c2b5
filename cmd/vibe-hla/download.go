package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// IMGT/HLA nucleotide coding sequences, one record per allele.
const hlaNucURL = "https://ftp.ebi.ac.uk/pub/databases/ipd/imgt/hla/hla_nuc.fasta"

func newDownloadCmd() *cobra.Command {
	var (
		outputDir string
		url       string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the IMGT/HLA nucleotide FASTA",
		Long: `Download hla_nuc.fasta from the IPD-IMGT/HLA database.

After downloading, load it with:
  vibe-hla ingest ~/.vibe-hla/hla_nuc.fasta`,
		Example: `  vibe-hla download
  vibe-hla download --output /data/imgt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				dir, err := defaultDir()
				if err != nil {
					return err
				}
				outputDir = dir
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", outputDir, err)
			}

			dest := filepath.Join(outputDir, filepath.Base(url))
			fmt.Printf("Downloading IMGT/HLA sequences to %s\n", outputDir)
			if err := downloadFile(url, dest); err != nil {
				return fmt.Errorf("downloading %s: %w", url, err)
			}

			fmt.Printf("\nDownload complete!\n")
			fmt.Printf("To build the allele store, run:\n")
			fmt.Printf("  vibe-hla ingest %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: ~/.vibe-hla/)")
	cmd.Flags().StringVar(&url, "url", hlaNucURL, "Source URL")

	return cmd
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 30 * time.Minute,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressWriter{
		total:     resp.ContentLength,
		lastPrint: time.Now(),
		out:       os.Stdout,
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("\n    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded int64
	lastPrint  time.Time
	out        io.Writer
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
