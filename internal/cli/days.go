package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

const defaultWrap = 100

func newDaysCmd() *cobra.Command {
	var (
		style string
		width int
	)
	cmd := &cobra.Command{
		Use:   "days [day]",
		Short: "Show the itinerary day by day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			only := 0
			if len(args) == 1 {
				d, err := parseDay(args[0])
				if err != nil {
					return err
				}
				only = d
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			planner := a.planner(nil)
			defer planner.Close(context.Background())

			idx, fresh, err := planner.Days(cmd.Context())
			if err != nil {
				return err
			}
			if only > 0 {
				idx = types.DayIndex{only: idx.Bucket(only)}
			}

			if flags.jsonMode {
				return printJSON(cmd, map[string]any{"freshness": fresh, "days": idx})
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(style),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return userError("markdown renderer: %v", err)
			}
			out, err := r.Render(daysMarkdown(idx, fresh))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or ascii")
	cmd.Flags().IntVar(&width, "width", defaultWrap, "word wrap width")
	return cmd
}

// daysMarkdown renders idx as one table per day.
func daysMarkdown(idx types.DayIndex, fresh itinerary.Freshness) string {
	var b strings.Builder
	if fresh != itinerary.FreshnessLive {
		fmt.Fprintf(&b, "> itinerary is %s\n\n", fresh)
	}
	days := idx.Days()
	if len(days) == 0 || idx.Len() == 0 {
		b.WriteString("_No items._\n")
		return b.String()
	}
	for _, day := range days {
		bucket := idx[day]
		fmt.Fprintf(&b, "# Day %d\n\n", day)
		if len(bucket) == 0 {
			b.WriteString("_No items._\n\n")
			continue
		}
		b.WriteString("| # | Time | Type | Title | Location | ID |\n")
		b.WriteString("|---|------|------|-------|----------|----|\n")
		for _, it := range bucket {
			title := it.Title
			if it.IsReservation {
				title += " (reserved)"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | `%s` |\n",
				it.SortOrder, cell(it.Time), it.Type, cell(title), cell(it.Location), it.ID)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// cell escapes table separators.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func parseDay(s string) (int, error) {
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 {
		return 0, userError("invalid day %q: %v", s, types.ErrInvalidDay)
	}
	return d, nil
}
