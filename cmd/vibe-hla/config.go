package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type configKind int

const (
	kindString configKind = iota
	kindInt
	kindBool
)

// configKeys lists the settings vibe-hla reads.
var configKeys = map[string]configKind{
	"db":             kindString,
	"cache_dir":      kindString,
	"workers":        kindInt,
	"progress_every": kindInt,
	"verbose":        kindBool,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-hla configuration",
		Long: "Show, get, or set configuration values. Config is stored in ~/.vibe-hla.yaml.\n" +
			"Known keys: " + strings.Join(knownKeys(), ", "),
		Example: `  vibe-hla config                      # show effective config
  vibe-hla config set workers 8        # parallel ingestion
  vibe-hla config get db               # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func knownKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkKey(key string) (configKind, error) {
	kind, ok := configKeys[key]
	if !ok {
		return 0, usageError{fmt.Errorf("unknown config key %q (known: %s)",
			key, strings.Join(knownKeys(), ", "))}
	}
	return kind, nil
}

// runConfigShow prints the effective value of every known key.
func runConfigShow(w io.Writer) error {
	settings := make(map[string]any, len(configKeys))
	for _, key := range knownKeys() {
		v, err := effectiveValue(key)
		if err != nil {
			return err
		}
		settings[key] = v
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# %s\n", used)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	kind, err := checkKey(key)
	if err != nil {
		return err
	}

	var v any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return usageError{fmt.Errorf("%s must be an integer, got %q", key, value)}
		}
		v = n
	case kindBool:
		b, err := parseBool(value)
		if err != nil {
			return usageError{fmt.Errorf("%s: %w", key, err)}
		}
		v = b
	default:
		v = value
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vibe-hla.yaml")
	}

	// only keys set explicitly are written, not defaults or flag values
	file := make(map[string]any)
	data, err := os.ReadFile(cfgFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parsing %s: %w", cfgFile, err)
		}
	}
	file[key] = v

	out, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(cfgFile, out, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	viper.Set(key, v)

	fmt.Fprintf(w, "Set %s = %v in %s\n", key, v, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if _, err := checkKey(key); err != nil {
		return err
	}
	v, err := effectiveValue(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, v)
	return nil
}

// effectiveValue resolves key the way the commands do, including default paths.
func effectiveValue(key string) (any, error) {
	switch key {
	case "db":
		return dbPath()
	case "cache_dir":
		return cacheDir()
	}
	switch configKeys[key] {
	case kindInt:
		return viper.GetInt(key), nil
	case kindBool:
		return viper.GetBool(key), nil
	}
	return viper.GetString(key), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected true/false, got %q", s)
}
