package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func newDoctorCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that every day is densely ordered",
		Long: `Doctor checks that the items of every day carry sortOrder 0..N-1.
With --fix, days that fail the check are renumbered in their current order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			items, err := a.items.GetAll(ctx)
			if err != nil {
				return err
			}
			idx := itinerary.Project(items)
			var broken []int
			for _, day := range idx.Days() {
				if err := itinerary.CheckDense(idx[day]); err != nil {
					broken = append(broken, day)
					a.log.Warn("day not dense", "day", day, "error", err)
				}
			}

			fixed := 0
			if fix {
				for _, day := range broken {
					if err := a.items.BatchSetSortOrder(ctx, day, types.IDs(idx[day])); err != nil {
						return err
					}
					fixed++
				}
			}

			if flags.jsonMode {
				if err := printJSON(cmd, map[string]any{"days": len(idx.Days()), "broken": broken, "fixed": fixed}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				switch {
				case len(broken) == 0:
					fmt.Fprintf(out, "ok: %d days, %d items\n", len(idx.Days()), idx.Len())
				case fix:
					fmt.Fprintf(out, "fixed %d days: %v\n", fixed, broken)
				default:
					fmt.Fprintf(out, "not dense: days %v (run with --fix)\n", broken)
				}
			}
			if len(broken) > 0 && !fix {
				return &exitError{code: exitUserError, err: errors.New("itinerary is not dense")}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "renumber days that fail the check")
	return cmd
}
