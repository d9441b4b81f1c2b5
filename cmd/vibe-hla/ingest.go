package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hla/internal/ingest"
	"github.com/inodb/vibe-hla/internal/store"
)

func newIngestCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "ingest <fasta>",
		Short: "Load an HLA nucleotide FASTA into the allele store",
		Long: `Parse every record of an IMGT/HLA style FASTA file (headers like
">HLA:HLA01534 A*02:53N 1098 bp") and write the alleles to the DuckDB store.
Record order defines the equivalence class ids. Any malformed record aborts
the whole load.`,
		Example: `  vibe-hla ingest hla_nuc.fasta
  vibe-hla ingest --workers 8 --db /data/hla.duckdb hla_nuc.fasta.gz
  cat hla_nuc.fasta | vibe-hla ingest -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(args[0], noCache)
		},
	}

	cmd.Flags().Int("workers", 1, "Parallel workers for encoding and parsing (0 = all CPUs)")
	cmd.Flags().Int("progress-every", ingest.DefaultProgressEvery, "Log progress every N records")
	cmd.Flags().String("cache-dir", "", "Result cache directory (default: ~/.vibe-hla/cache)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore and do not write the result cache")
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("progress_every", cmd.Flags().Lookup("progress-every"))
	viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))

	return cmd
}

func runIngest(inputPath string, noCache bool) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	var (
		rc *store.ResultCache
		fp store.FileFingerprint
	)
	if !noCache && inputPath != "-" {
		dir, err := cacheDir()
		if err != nil {
			return err
		}
		rc = store.NewResultCache(dir)
		if fp, err = store.StatFile(inputPath); err != nil {
			if os.IsNotExist(err) {
				return usageError{fmt.Errorf("input file %s does not exist", inputPath)}
			}
			return err
		}
	}

	var res *ingest.Result
	if rc != nil && rc.Valid(fp) {
		logger.Info("using cached ingestion result", zap.String("fasta", inputPath))
		res, err = rc.Load()
		if err != nil {
			logger.Warn("discarding unreadable cache", zap.Error(err))
			rc.Clear()
			res = nil
		}
	}

	if res == nil {
		res, err = ingestFile(inputPath, logger)
		if err != nil {
			return err
		}
		if rc != nil {
			if err := rc.Write(res, fp); err != nil {
				logger.Warn("could not write result cache", zap.Error(err))
			}
		}
	}

	path, err := dbPath()
	if err != nil {
		return err
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.WriteResult(res); err != nil {
		return fmt.Errorf("write store: %w", err)
	}

	counts, err := s.GeneCounts()
	if err != nil {
		return err
	}
	genes := make([]string, 0, len(counts))
	for g := range counts {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	fmt.Printf("Loaded %d sequences (%d transcripts) into %s\n", res.Len(), len(res.Alleles), path)
	for _, g := range genes {
		fmt.Printf("  %-8s %d\n", g, counts[g])
	}
	return nil
}

func ingestFile(path string, logger *zap.Logger) (*ingest.Result, error) {
	src, err := ingest.OpenFASTA(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	in := ingest.NewIngester()
	in.SetLogger(logger)
	in.SetProgress(ingest.LogProgress(logger), viper.GetInt("progress_every"))

	workers := viper.GetInt("workers")
	if workers == 1 {
		return in.Ingest(src)
	}
	return in.IngestParallel(src, workers)
}
