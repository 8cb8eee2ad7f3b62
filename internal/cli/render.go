package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/wapanel/internal/catalog"
	"github.com/sakif/wapanel/internal/placeholder"
	"github.com/sakif/wapanel/internal/render"
	"github.com/sakif/wapanel/internal/spin"
)

func newRenderCmd() *cobra.Command {
	var (
		vars    map[string]string
		seed    uint64
		first   bool
		missing string
	)

	cmd := &cobra.Command{
		Use:   "render FILE.yaml",
		Short: "Preview a rendered template file",
		Long: `Render a YAML template definition locally and print the message as JSON.
Without --seed or --first every run may pick different spin alternatives.`,
		Example: `  templatectl render boas-vindas.yaml --var nome=Ana --var empresa=Acme --seed 7`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			policy, err := placeholder.ParsePolicy(missing)
			if err != nil {
				return err
			}

			var rng spin.Source
			switch {
			case first:
				rng = spin.Fixed(0)
			case cmd.Flags().Changed("seed"):
				rng = spin.NewSeeded(seed)
			default:
				rng = spin.Default()
			}

			msg, err := render.Render(tmpl, vars, rng, render.Options{OnMissingOptional: policy})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msg)
		},
	}

	cmd.Flags().StringToStringVar(&vars, "var", nil, "variable value as name=value (repeatable)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible spin choices")
	cmd.Flags().BoolVar(&first, "first", false, "always pick the first spin alternative")
	cmd.Flags().StringVar(&missing, "missing", string(placeholder.KeepMissing), "optional placeholder policy: keep or blank")
	cmd.MarkFlagsMutuallyExclusive("seed", "first")

	return cmd
}
