package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/checklist"
	"github.com/mesh-intelligence/tripdeck/internal/httpapi"
	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/internal/rediscache"
	"github.com/mesh-intelligence/tripdeck/internal/seed"
)

const plannerDrainTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		addr     string
		withSeed bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner API and change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			if withSeed {
				if err := seedDefaults(ctx, a); err != nil {
					return err
				}
			}

			var snaps itinerary.Snapshots = &itinerary.MemorySnapshots{}
			if a.settings.RedisAddr != "" {
				rs, err := rediscache.New(ctx, rediscache.Options{
					Addr:     a.settings.RedisAddr,
					Password: a.settings.RedisPassword,
					TTL:      a.settings.RedisTTL,
				})
				if err != nil {
					return sysError(err)
				}
				defer rs.Close()
				snaps = rs
				a.log.Info("snapshots in redis", "addr", a.settings.RedisAddr)
			}

			planner := a.planner(snaps)
			defer func() {
				drainCtx, cancel := context.WithTimeout(context.Background(), plannerDrainTimeout)
				defer cancel()
				if err := planner.Close(drainCtx); err != nil {
					a.log.Warn("pending writes not drained", "error", err)
				}
			}()

			if addr == "" {
				addr = a.settings.HTTPAddr
			}
			ds, err := seed.Default()
			if err != nil {
				return sysError(err)
			}
			lists := checklist.New(a.checklist, ds.InitialChecklist(), a.log)
			srv := httpapi.New(planner, a.expenses, lists, httpapi.Config{
				Addr:           addr,
				AllowedOrigins: a.settings.AllowedOrigins,
				RatePerSecond:  a.settings.RatePerSecond,
				RateBurst:      a.settings.RateBurst,
				Logger:         a.log,
			})
			if err := srv.ListenAndServe(ctx); err != nil {
				return sysError(fmt.Errorf("serve: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http.addr from config)")
	cmd.Flags().BoolVar(&withSeed, "seed", true, "load the bundled trip into an empty store")
	return cmd
}

// seedDefaults fills an empty store with the bundled dataset.
func seedDefaults(ctx context.Context, a *app) error {
	ds, err := seed.Default()
	if err != nil {
		return err
	}
	n, err := seed.Apply(ctx, a.items, ds)
	if err != nil {
		return err
	}
	m, err := seed.ApplyExpenses(ctx, a.expenses, ds)
	if err != nil {
		return err
	}
	c, err := seed.ApplyChecklist(ctx, a.checklist, ds)
	if err != nil {
		return err
	}
	if n > 0 || m > 0 || c > 0 {
		a.log.Info("seeded empty store", "items", n, "expenses", m, "checklist", c)
	}
	return nil
}
