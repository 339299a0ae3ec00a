package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/checklist"
	"github.com/mesh-intelligence/tripdeck/internal/seed"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// lists returns a checklist service seeded from the bundled dataset.
func (a *app) lists() (*checklist.Service, error) {
	ds, err := seed.Default()
	if err != nil {
		return nil, sysError(err)
	}
	return checklist.New(a.checklist, ds.InitialChecklist(), a.log), nil
}

// withLists opens the app and runs fn with its checklist service.
func withLists(fn func(a *app, lists *checklist.Service) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()
	lists, err := a.lists()
	if err != nil {
		return err
	}
	return fn(a, lists)
}

func newChecklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Show and edit the pre-trip to-do and packing lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(func(a *app, lists *checklist.Service) error {
				c, err := lists.Get(cmd.Context())
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd, c)
				}
				writeChecklist(cmd.OutOrStdout(), c)
				return nil
			})
		},
	}
	cmd.AddCommand(
		newChecklistAddCmd(),
		newChecklistToggleCmd(),
		newChecklistEditCmd(),
		newChecklistRmCmd(),
	)
	return cmd
}

func writeChecklist(w io.Writer, c types.Checklist) {
	progress := checklist.Summarize(c)
	fmt.Fprintf(w, "To-do (%d/%d)\n", progress[types.ListTodo].Done, progress[types.ListTodo].Total)
	for _, e := range c.Todo {
		fmt.Fprintf(w, "  %s %s  [%s]\n", mark(e), e.Text, e.ID)
	}
	fmt.Fprintf(w, "Packing (%d/%d)\n", progress[types.ListPacking].Done, progress[types.ListPacking].Total)
	for _, g := range checklist.ByCategory(c.Packing) {
		fmt.Fprintf(w, "  %s\n", g.Category)
		for _, e := range g.Entries {
			fmt.Fprintf(w, "    %s %s  [%s]\n", mark(e), e.Text, e.ID)
		}
	}
}

func mark(e types.ChecklistEntry) string {
	if e.Completed {
		return "[x]"
	}
	return "[ ]"
}

func printEntry(cmd *cobra.Command, list string, e types.ChecklistEntry) error {
	if flags.jsonMode {
		return printJSON(cmd, e)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", list, e.ID, mark(e), e.Text)
	return nil
}

func newChecklistAddCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <todo|packing> <text...>",
		Short: "Append an entry to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(func(a *app, lists *checklist.Service) error {
				e, err := lists.Add(cmd.Context(), args[0], strings.Join(args[1:], " "), category)
				if err != nil {
					return err
				}
				return printEntry(cmd, args[0], e)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "",
		"packing category: "+strings.Join(types.PackingCategories, ", "))
	return cmd
}

func newChecklistToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <todo|packing> <id>",
		Short: "Flip an entry between done and not done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(func(a *app, lists *checklist.Service) error {
				e, err := lists.Toggle(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printEntry(cmd, args[0], e)
			})
		},
	}
}

func newChecklistEditCmd() *cobra.Command {
	var (
		text, category string
		done           bool
	)
	cmd := &cobra.Command{
		Use:   "edit <todo|packing> <id>",
		Short: "Change the text, category or state of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p checklist.Patch
			fs := cmd.Flags()
			if fs.Changed("text") {
				p.Text = &text
			}
			if fs.Changed("category") {
				p.Category = &category
			}
			if fs.Changed("done") {
				p.Completed = &done
			}
			return withLists(func(a *app, lists *checklist.Service) error {
				e, err := lists.Update(cmd.Context(), args[0], args[1], p)
				if err != nil {
					return err
				}
				return printEntry(cmd, args[0], e)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().StringVar(&category, "category", "", "new packing category")
	cmd.Flags().BoolVar(&done, "done", false, "mark done (--done=false to reopen)")
	return cmd
}

func newChecklistRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <todo|packing> <id>",
		Short: "Remove an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(func(a *app, lists *checklist.Service) error {
				return lists.Remove(cmd.Context(), args[0], args[1])
			})
		},
	}
}
