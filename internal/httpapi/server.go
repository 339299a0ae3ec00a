// Package httpapi serves the planner, the expense ledger and the pre-trip
// checklist over HTTP and pushes change events to websocket clients.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/mesh-intelligence/tripdeck/internal/checklist"
	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Defaults for zero Config fields.
const (
	DefaultAddr          = "127.0.0.1:8080"
	DefaultRatePerSecond = 10
	DefaultRateBurst     = 20
	shutdownTimeout      = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
	Logger         *slog.Logger
}

// Server is the tripdeck HTTP API.
type Server struct {
	planner     *itinerary.Planner
	expenses    types.ExpenseStore
	lists       *checklist.Service
	hub         *Hub
	limiter     *RateLimiter
	upgrader    *websocket.Upgrader
	origins     []string
	addr        string
	log         *slog.Logger
	unsubscribe func()
	handler     http.Handler
}

// New builds a server around planner, expenses and lists and starts its
// change feed. Call Close to stop the feed.
func New(planner *itinerary.Planner, expenses types.ExpenseStore, lists *checklist.Service, cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRatePerSecond
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		planner:  planner,
		expenses: expenses,
		lists:    lists,
		hub:      NewHub(log),
		limiter:  NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst),
		origins:  cfg.AllowedOrigins,
		addr:     cfg.Addr,
		log:      log,
	}
	s.upgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	go s.hub.Run()
	s.unsubscribe = planner.Subscribe(func(ev itinerary.Event) { s.broadcast(ev) })

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.routes())
	s.handler = logRequests(log, securityHeaders(corsHandler))
	return s
}

func (s *Server) routes() *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", s.health)

	router.GET("/api/days", s.listDays)
	router.GET("/api/days/:day", s.getDay)
	router.POST("/api/days/:day/drop", s.limiter.Limit(s.drop))
	router.POST("/api/items", s.limiter.Limit(s.createItem))
	router.PUT("/api/items/:id", s.limiter.Limit(s.updateItem))
	router.DELETE("/api/items/:id", s.limiter.Limit(s.trashItem))
	router.GET("/api/writes/:id", s.writeStatus)

	router.GET("/api/expenses", s.listExpenses)
	router.POST("/api/expenses", s.limiter.Limit(s.createExpense))
	router.PUT("/api/expenses/:id", s.limiter.Limit(s.updateExpense))
	router.DELETE("/api/expenses/:id", s.limiter.Limit(s.deleteExpense))

	router.GET("/api/checklist", s.getChecklist)
	router.POST("/api/checklist/:list", s.limiter.Limit(s.addChecklistEntry))
	router.PATCH("/api/checklist/:list/:id", s.limiter.Limit(s.updateChecklistEntry))
	router.POST("/api/checklist/:list/:id/toggle", s.limiter.Limit(s.toggleChecklistEntry))
	router.DELETE("/api/checklist/:list/:id", s.limiter.Limit(s.removeChecklistEntry))

	router.GET("/ws", s.websocket)
	return router
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler { return s.handler }

// Hub returns the change feed.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv.RegisterOnShutdown(s.Close)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close detaches the change feed from the planner and disconnects every
// websocket client.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Stop()
}

func (s *Server) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encoding change event", "error", err)
		return
	}
	s.hub.Publish(data)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.origins, "*") {
		return true
	}
	return slices.Contains(s.origins, origin)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) websocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.hub.serveWS(s.upgrader, w, r)
}
