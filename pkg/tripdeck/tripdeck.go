// Package tripdeck exposes the backend factory and version of the tripdeck
// itinerary planner while keeping the implementations internal.
package tripdeck

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/tripdeck/internal/docstore"
	"github.com/mesh-intelligence/tripdeck/internal/memstore"
	"github.com/mesh-intelligence/tripdeck/internal/sqlite"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Version is the release version.
const Version = "0.3.0"

// NewBackend returns a detached backend for config.Backend. A nil logger
// discards output.
//
// Example:
//
//	cfg := types.Config{Backend: types.BackendSQLite, DataDir: "trip-data"}
//	backend, err := tripdeck.NewBackend(cfg, nil)
//	if err != nil { ... }
//	if err := backend.Attach(cfg); err != nil { ... }
//	defer backend.Detach()
func NewBackend(config types.Config, log *slog.Logger) (types.Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(log), nil
	case types.BackendMongo:
		return docstore.NewBackend(log), nil
	case types.BackendMemory:
		return memstore.NewBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, config.Backend)
	}
}
