package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/wapanel/internal/catalog"
	"github.com/sakif/wapanel/internal/render"
)

type lintResult struct {
	File string `json:"file"`
	render.Report
}

func newLintCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lint FILE.yaml...",
		Short: "Validate template files",
		Long: `Validate YAML template definitions and report malformed spin groups.
Spin warnings are informational; the command fails only when a file is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			results := make([]lintResult, 0, len(args))
			invalid := 0

			for _, path := range args {
				tmpl, err := catalog.LoadFile(path)
				if err != nil {
					return err
				}
				report := render.Lint(tmpl)
				if !report.Valid {
					invalid++
				}
				results = append(results, lintResult{File: path, Report: report})
			}

			if asJSON {
				if err := printJSON(out, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					status := "ok"
					if !r.Valid {
						status = "invalid"
					}
					fmt.Fprintf(out, "%s: %s\n", r.File, status)
					for _, p := range r.Problems {
						fmt.Fprintf(out, "  error   %s: %s\n", p.Field, p.Message)
					}
					for _, w := range r.Warnings {
						fmt.Fprintf(out, "  warning %s@%d: %s\n", w.Field, w.Offset, w.Reason)
					}
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d file(s) invalid", invalid, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}
