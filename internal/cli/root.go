// Package cli implements the templatectl command tree.
package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Execute runs templatectl against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "templatectl",
		Short:         "Manage WhatsApp message templates",
		Long:          "Seed system templates, lint and preview template files, and issue credentials for the template API.",
		SilenceUsage:  true,
	}

	root.AddCommand(newSeedCmd())
	root.AddCommand(newLintCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newHashKeyCmd())

	return root
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
