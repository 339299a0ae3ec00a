package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Create or edit itinerary items",
	}
	cmd.AddCommand(newItemAddCmd(), newItemEditCmd())
	return cmd
}

// itemFlags are the editable item fields shared by add and edit.
type itemFlags struct {
	day           int
	time          string
	itemType      string
	title         string
	description   string
	location      string
	koreanAddress string
	naverMapLink  string
	notes         string
	cost          string
	reservation   bool
	highlight     []string
	images        []string
}

func (f *itemFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.day, "day", 0, "trip day (1-based)")
	fs.StringVar(&f.time, "time", "", "display time, e.g. 09:30")
	fs.StringVar(&f.itemType, "type", "", "transport, food, sight, accommodation, activity or shopping")
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.location, "location", "", "location")
	fs.StringVar(&f.koreanAddress, "korean-address", "", "local address")
	fs.StringVar(&f.naverMapLink, "map-link", "", "map link")
	fs.StringVar(&f.notes, "notes", "", "notes")
	fs.StringVar(&f.cost, "cost", "", "cost as display text")
	fs.BoolVar(&f.reservation, "reservation", false, "item needs a reservation")
	fs.StringSliceVar(&f.highlight, "highlight", nil, "highlight tags")
	fs.StringSliceVar(&f.images, "image", nil, "image URLs")
}

// form holds only the fields whose flags were set, so edits leave the rest
// of the item alone and an explicit empty value clears a field.
func (f *itemFlags) form(fs *pflag.FlagSet) itinerary.FormData {
	var form itinerary.FormData
	str := func(name string, v string) *string {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	if fs.Changed("day") {
		form.Day = &f.day
	}
	form.Time = str("time", f.time)
	form.Type = str("type", f.itemType)
	form.Title = str("title", f.title)
	form.Description = str("description", f.description)
	form.Location = str("location", f.location)
	form.KoreanAddress = str("korean-address", f.koreanAddress)
	form.NaverMapLink = str("map-link", f.naverMapLink)
	form.Notes = str("notes", f.notes)
	form.Cost = str("cost", f.cost)
	if fs.Changed("reservation") {
		form.IsReservation = &f.reservation
	}
	if fs.Changed("highlight") {
		form.Highlight = &f.highlight
	}
	if fs.Changed("image") {
		form.Images = &f.images
	}
	return form
}

func newItemAddCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a new item to a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlanner(func(p *itinerary.Planner) error {
				edit, err := p.CreateItem(cmd.Context(), f.form(cmd.Flags()))
				if err != nil {
					return err
				}
				return finishEdit(cmd, edit)
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newItemEditCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlanner(func(p *itinerary.Planner) error {
				edit, err := p.UpdateItem(cmd.Context(), args[0], f.form(cmd.Flags()))
				if err != nil {
					return err
				}
				return finishEdit(cmd, edit)
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

// withPlanner opens the store, runs fn with a Planner over it, then drains
// queued writes before detaching.
func withPlanner(fn func(p *itinerary.Planner) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()
	p := a.planner(nil)
	defer p.Close(context.Background())
	return fn(p)
}

func finishEdit(cmd *cobra.Command, edit itinerary.Edit) error {
	if err := edit.Mutation.Wait(cmd.Context()); err != nil {
		return err
	}
	if flags.jsonMode {
		return printJSON(cmd, edit.Item)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (day %d, position %d)\n", edit.Item.ID, edit.Item.Day, edit.Item.SortOrder)
	return nil
}
