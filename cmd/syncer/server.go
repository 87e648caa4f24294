package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/dao-risk/internal/metrics"
	"github.com/rickgao/dao-risk/internal/model"
	"github.com/rickgao/dao-risk/internal/syncer"
	"github.com/rickgao/dao-risk/internal/timeline"
	"github.com/rickgao/dao-risk/internal/treasury"
	"github.com/rickgao/dao-risk/internal/variation"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type engineStatus interface {
	Cursors() map[model.Stream]model.Cursor
	Stats() map[model.Stream]syncer.StreamStats
	Err() error
}

type routerDeps struct {
	db          pinger
	engine      engineStatus
	treasury    *treasury.Service // nil when no DAO is configured
	metrics     *metrics.Metrics
	metricsPath string
	logger      *slog.Logger
}

// newRouter creates the health, metrics and debug endpoints.
func newRouter(deps routerDeps) http.Handler {
	if deps.metricsPath == "" {
		deps.metricsPath = "/metrics"
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", healthHandler(deps))
	r.Method(http.MethodGet, deps.metricsPath, deps.metrics.Handler())

	r.Get("/debug/sync", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.engine.Stats())
	})

	r.Route("/debug/treasury", func(r chi.Router) {
		r.Use(requireTreasury(deps.treasury))
		r.Get("/", treasurySeriesHandler(deps))
		r.Get("/changes", treasuryChangesHandler(deps))
		r.Post("/invalidate", func(w http.ResponseWriter, r *http.Request) {
			deps.treasury.Invalidate()
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

func healthHandler(deps routerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := deps.db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Check sync engine
		cursors := make(map[string]string)
		for stream, c := range deps.engine.Cursors() {
			cursors[string(stream)] = c.String()
		}
		engine := map[string]interface{}{"cursors": cursors}
		if err := deps.engine.Err(); err != nil {
			health.Status = "unhealthy"
			engine["error"] = err.Error()
		}
		health.Components["sync_engine"] = engine

		if deps.treasury != nil {
			if age, ok := deps.treasury.CacheAge(); ok {
				health.Components["treasury_cache"] = map[string]string{"age": age.String()}
			} else {
				health.Components["treasury_cache"] = "empty"
			}
		}

		status := http.StatusOK
		if health.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	}
}

func requireTreasury(svc *treasury.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				writeError(w, http.StatusNotFound, "treasury is not configured")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// treasurySeriesHandler serves the forward-filled series and the variation
// over a window.
//
// Query: cutoff (YYYY-MM-DD), window (duration), order (asc|desc),
// offset, limit.
func treasurySeriesHandler(deps routerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		cutoff, err := parseDate(q.Get("cutoff"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cutoff: "+err.Error())
			return
		}
		var window time.Duration
		if s := q.Get("window"); s != "" {
			if window, err = time.ParseDuration(s); err != nil {
				writeError(w, http.StatusBadRequest, "invalid window: "+err.Error())
				return
			}
		}

		series, err := deps.treasury.Series(r.Context(), cutoff)
		if err != nil {
			deps.logger.Warn("treasury series failed", "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		change, err := deps.treasury.Variation(r.Context(), window)
		if err != nil {
			deps.logger.Warn("treasury variation failed", "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		if timeline.ParseOrder(q.Get("order")) == timeline.Descending {
			series = slices.Clone(series)
			slices.Reverse(series)
		}

		type point struct {
			Date  string  `json:"date"`
			Value float64 `json:"valueUsd"`
		}
		points := make([]point, len(series))
		for i, p := range series {
			points[i] = point{Date: p.Key.Format(time.DateOnly), Value: p.Value}
		}

		offset, limit := pageParams(r)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"variation": change,
			"series":    variation.Paginate(points, offset, limit),
		})
	}
}

// treasuryChangesHandler ranks day-over-day changes since cutoff.
//
// Query: cutoff (YYYY-MM-DD), order (asc|desc, default desc), offset, limit.
func treasuryChangesHandler(deps routerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		cutoff, err := parseDate(q.Get("cutoff"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cutoff: "+err.Error())
			return
		}

		changes, err := deps.treasury.DailyChanges(r.Context(), cutoff)
		if err != nil {
			deps.logger.Warn("treasury changes failed", "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		descending := q.Get("order") != "asc"
		ranked := variation.Rank(changes, descending)

		offset, limit := pageParams(r)
		writeJSON(w, http.StatusOK, variation.Paginate(ranked, offset, limit))
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

func pageParams(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	offset, _ = strconv.Atoi(q.Get("offset"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return offset, limit
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
