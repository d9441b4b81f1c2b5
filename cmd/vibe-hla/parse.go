package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-hla/internal/allele"
)

func newParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <designation>...",
		Short: "Parse allele designations",
		Example: `  vibe-hla parse A*01:01:01:01 A*02:53N MICB*012
  vibe-hla parse --json DRB1*15:01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(os.Stdout, args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON lines")

	return cmd
}

// runParse prints each designation's fields, one per line, and fails on the
// first invalid designation.
func runParse(w io.Writer, args []string, asJSON bool) error {
	p := allele.NewParser()
	for _, s := range args {
		a, err := p.Parse(s)
		if err != nil {
			return err
		}

		if asJSON {
			out, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", s, err)
			}
			fmt.Fprintln(w, string(out))
			continue
		}

		fields := make([]string, allele.MaxFields)
		for level := 1; level <= allele.MaxFields; level++ {
			fields[level-1] = "-"
			if v, ok := a.Field(level); ok {
				fields[level-1] = strconv.Itoa(int(v))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s, a.Gene(), strings.Join(fields, "\t"))
	}
	return nil
}
