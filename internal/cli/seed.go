package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a trip dataset into an empty store",
		Long: `Seed writes the items, expenses and checklist of a dataset document into
the store. Stores that already hold items, expenses or a checklist keep them.

Without --file the bundled trip is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := seed.Default()
			if file != "" {
				data, rerr := os.ReadFile(file)
				if rerr != nil {
					return userError("read dataset: %v", rerr)
				}
				ds, err = seed.Parse(data)
			}
			if err != nil {
				return userError("%v", err)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			items, err := seed.Apply(ctx, a.items, ds)
			if err != nil {
				return err
			}
			expenses, err := seed.ApplyExpenses(ctx, a.expenses, ds)
			if err != nil {
				return err
			}
			entries, err := seed.ApplyChecklist(ctx, a.checklist, ds)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd, map[string]int{"items": items, "expenses": expenses, "checklist": entries})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items, %d expenses, %d checklist entries\n", items, expenses, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "dataset document (JSON)")
	return cmd
}
