// Package server exposes the planners over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/planner"
	"github.com/pthm-cable/riskroute/telemetry"
)

// maxBodyBytes bounds request bodies before the grid-size check applies.
const maxBodyBytes = 256 << 20

// Server answers planning requests against a default grid or an inline one.
type Server struct {
	cfg  *config.Config
	env  *grid.Environment // Default grid; nil requires inline grids
	perf *telemetry.PerfCollector
	out  *telemetry.OutputManager
	r    chi.Router
}

// New builds a server. env, perf and out may be nil.
func New(cfg *config.Config, env *grid.Environment, perf *telemetry.PerfCollector, out *telemetry.OutputManager) *Server {
	s := &Server{cfg: cfg, env: env, perf: perf, out: out}
	s.r = s.routes()
	return s
}

// routes builds the router with middlewares and routes.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(sub chi.Router) {
		sub.Get("/health", s.getHealth)
		sub.Get("/perf", s.getPerf)
		sub.Get("/algorithms", s.getAlgorithms)
		sub.Post("/plan", s.postPlan)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.r }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.r,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":      "ok",
		"grid_loaded": s.env != nil,
	}
	if s.env != nil {
		rows, cols := s.env.Dims()
		resp["rows"] = rows
		resp["cols"] = cols
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPerf(w http.ResponseWriter, r *http.Request) {
	if s.perf == nil {
		writeJSON(w, http.StatusOK, telemetry.PerfStatsCSV{})
		return
	}
	writeJSON(w, http.StatusOK, s.perf.Stats().ToCSV())
}

func (s *Server) getAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":    s.cfg.Planner.Algorithm,
		"algorithms": planner.Algorithms,
	})
}

// PlanRequest is the body of POST /v1/plan. Cost rows replace the default
// grid for this request; obstacles are negative values. Planner holds
// partial overrides of the configured planner parameters.
type PlanRequest struct {
	Cost      [][]float64     `json:"cost,omitempty"`
	Diagonals *bool           `json:"diagonals,omitempty"`
	Start     grid.Position   `json:"start"`
	Goal      grid.Position   `json:"goal"`
	Algorithm string          `json:"algorithm,omitempty"`
	Planner   json.RawMessage `json:"planner,omitempty"`
}

// PlanResponse is the body returned by POST /v1/plan.
type PlanResponse struct {
	RunID       string                      `json:"run_id"`
	Algorithm   string                      `json:"algorithm"`
	Reachable   bool                        `json:"reachable"`
	Path        grid.Path                   `json:"path"`
	Edges       []grid.EdgeCost             `json:"edges,omitempty"`
	Stats       telemetry.PathStats         `json:"stats"`
	Expanded    int                         `json:"expanded"`
	DurationMS  float64                     `json:"duration_ms"`
	Threshold   float64                     `json:"threshold,omitempty"`
	Generations []telemetry.GenerationStats `json:"generations,omitempty"`
}

func (s *Server) postPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	env, err := s.environment(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := s.cfg.Clone().Planner
	if len(req.Planner) > 0 {
		if err := json.Unmarshal(req.Planner, &cfg); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decoding planner overrides: %w", err))
			return
		}
	}

	preq := planner.Request{Start: req.Start, Goal: req.Goal, Algorithm: req.Algorithm}
	plan, err := planner.Run(env, preq, cfg, s.perf)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	runID := uuid.New().String()
	if err := planner.WritePlan(s.out, runID, preq, plan); err != nil {
		slog.Warn("writing run output", "run_id", runID, "error", err)
	}

	writeJSON(w, http.StatusOK, PlanResponse{
		RunID:       runID,
		Algorithm:   plan.Algorithm,
		Reachable:   plan.Reachable,
		Path:        plan.Path,
		Edges:       plan.Edges,
		Stats:       plan.Stats,
		Expanded:    plan.Expanded,
		DurationMS:  float64(plan.Duration.Microseconds()) / 1000,
		Threshold:   plan.Threshold,
		Generations: plan.Generations,
	})
}

// environment returns the grid a request plans over.
func (s *Server) environment(req PlanRequest) (*grid.Environment, error) {
	if len(req.Cost) == 0 {
		if s.env == nil {
			return nil, errors.New("no grid loaded; send cost rows")
		}
		return s.env, nil
	}
	if cells := len(req.Cost) * len(req.Cost[0]); cells > s.cfg.Server.MaxGridCells {
		return nil, fmt.Errorf("grid has %d cells, limit is %d", cells, s.cfg.Server.MaxGridCells)
	}
	diagonals := s.cfg.Grid.Diagonals
	if req.Diagonals != nil {
		diagonals = *req.Diagonals
	}
	return grid.FromRows(req.Cost, diagonals)
}
