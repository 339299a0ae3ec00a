package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func newMoveCmd() *cobra.Command {
	var after bool
	cmd := &cobra.Command{
		Use:   "move <day> <id> <over-id>",
		Short: "Move an item in front of another item of the same day",
		Long: `Move drops item <id> onto <over-id>, as a drag in the planner would.
The item lands in front of <over-id>, or behind it with --after.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			return withPlanner(func(p *itinerary.Planner) error {
				res, err := p.Move(cmd.Context(), day, args[1], args[2], after)
				if err != nil {
					return err
				}
				return finishDrop(cmd, day, res)
			})
		},
	}
	cmd.Flags().BoolVar(&after, "after", false, "place the item behind the target")
	return cmd
}

func newTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash <day> <id>",
		Short: "Delete an item and close the gap it leaves",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			return withPlanner(func(p *itinerary.Planner) error {
				res, err := p.Trash(cmd.Context(), day, args[1])
				if err != nil {
					return err
				}
				return finishDrop(cmd, day, res)
			})
		},
	}
}

// finishDrop waits for the write behind res and prints the day's order.
func finishDrop(cmd *cobra.Command, day int, res itinerary.Result) error {
	if res.Mutation != nil {
		if err := res.Mutation.Wait(cmd.Context()); err != nil {
			return err
		}
	}
	if flags.jsonMode {
		return printJSON(cmd, map[string]any{"day": day, "items": res.Items})
	}
	ids := types.IDs(res.Items)
	if len(ids) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "day %d: empty\n", day)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "day %d: %s\n", day, strings.Join(ids, " "))
	return nil
}
