// Package main provides the vibe-hla command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by bad invocation rather than bad data.
type usageError struct{ error }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "vibe-hla",
		Short: "HLA allele database and lowest common allele resolver",
		Long: `vibe-hla ingests IMGT/HLA nucleotide FASTA files, stores the parsed
allele designations, and resolves the lowest common allele of a set of
equivalence classes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-hla.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().String("db", "", "DuckDB allele store (default: ~/.vibe-hla/alleles.duckdb)")
	viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("db", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newLCACmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// initConfig loads ~/.vibe-hla.yaml (or an explicit file) and VIBE_HLA_*
// environment variables.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".vibe-hla")
	}

	viper.SetEnvPrefix("VIBE_HLA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("workers", 1)
	viper.SetDefault("progress_every", 100)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vibe-hla version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// newLogger builds the CLI logger; --verbose switches to development output.
func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// defaultDir returns ~/.vibe-hla.
func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vibe-hla"), nil
}

// dbPath returns the configured store path or the default one.
func dbPath() (string, error) {
	if p := viper.GetString("db"); p != "" {
		return p, nil
	}
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "alleles.duckdb"), nil
}

// cacheDir returns the configured result cache directory or the default one.
func cacheDir() (string, error) {
	if d := viper.GetString("cache_dir"); d != "" {
		return d, nil
	}
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}
