package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-hla/internal/allele"
	"github.com/inodb/vibe-hla/internal/store"
)

func newLCACmd() *cobra.Command {
	var (
		byTranscript bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "lca <class-id>...",
		Short: "Resolve the lowest common allele of equivalence classes",
		Long: `Print the most specific allele shared by every given equivalence class.
Classes are record indices from the last ingest, or transcript ids with
--transcripts.`,
		Example: `  vibe-hla lca 0 1 5
  vibe-hla lca --transcripts HLA:HLA00001 HLA:HLA00002
  vibe-hla lca --json 12 40`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLCA(os.Stdout, args, byTranscript, asJSON)
		},
	}

	cmd.Flags().BoolVarP(&byTranscript, "transcripts", "t", false, "Arguments are transcript ids")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func runLCA(w io.Writer, args []string, byTranscript, asJSON bool) error {
	path, err := dbPath()
	if err != nil {
		return err
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	db, err := s.LoadDB()
	if err != nil {
		return err
	}

	ids, err := resolveClasses(s, db, args, byTranscript)
	if err != nil {
		return err
	}

	a, ok := db.LowestCommonAllele(ids)
	return writeLCA(w, a, ok, asJSON)
}

// resolveClasses turns arguments into class ids, validating them against db
// so the lookup never sees an out-of-range id.
func resolveClasses(s *store.Store, db *allele.DB, args []string, byTranscript bool) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		if byTranscript {
			id, ok, err := s.LookupClass(arg)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, usageError{fmt.Errorf("unknown transcript %q", arg)}
			}
			ids = append(ids, id)
			continue
		}

		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, usageError{fmt.Errorf("invalid class id %q", arg)}
		}
		if id < 0 || id >= db.Len() {
			return nil, usageError{fmt.Errorf("class id %d out of range [0, %d)", id, db.Len())}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeLCA(w io.Writer, a allele.Allele, ok, asJSON bool) error {
	if asJSON {
		var v any
		if ok {
			v = a
		}
		out, err := json.Marshal(map[string]any{"allele": v})
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	if !ok {
		_, err := fmt.Fprintln(w, "no common allele")
		return err
	}
	_, err := fmt.Fprintln(w, a.String())
	return err
}
