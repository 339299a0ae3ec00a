package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/tripdeck"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// app is an attached backend plus the stores and logger a command works with.
type app struct {
	settings  settings
	log       *slog.Logger
	backend   types.Backend
	items     types.ItemStore
	expenses  types.ExpenseStore
	checklist types.ChecklistStore
}

// openApp resolves settings, then creates and attaches the configured
// backend. The caller must defer a.close().
func openApp() (*app, error) {
	s, err := currentSettings()
	if err != nil {
		return nil, sysError(err)
	}
	log := newLogger(os.Stderr, flags.logJSON, s.LogLevel)

	backend, err := tripdeck.NewBackend(s.backendConfig(), log)
	if err != nil {
		return nil, userError("%v", err)
	}
	if err := backend.Attach(s.backendConfig()); err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	a := &app{settings: s, log: log, backend: backend}
	if a.items, err = backend.Items(); err != nil {
		a.close()
		return nil, err
	}
	if a.expenses, err = backend.Expenses(); err != nil {
		a.close()
		return nil, err
	}
	if a.checklist, err = backend.Checklist(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if err := a.backend.Detach(); err != nil && !errors.Is(err, types.ErrDetached) {
		a.log.Warn("detach backend", "error", err)
	}
}

// planner builds a Planner over the app's item store.
func (a *app) planner(snaps itinerary.Snapshots) *itinerary.Planner {
	return itinerary.NewPlanner(a.items, itinerary.Options{
		WriteTimeout: a.settings.WriteTimeout,
		Snapshots:    snaps,
		Logger:       a.log,
	})
}

// printJSON writes v to the command's output as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
