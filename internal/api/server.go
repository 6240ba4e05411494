// Package api provides the HTTP surface over the nest simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (player control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/talgya/nestsim/internal/nest"
	"github.com/talgya/nestsim/internal/persistence"
	"github.com/talgya/nestsim/internal/tiers"
)

// Server serves the nest state over HTTP.
type Server struct {
	Keeper   *nest.Keeper
	Catalog  *tiers.Catalog
	DB       *persistence.DB // optional; enables the /choices endpoint
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	upgrader websocket.Upgrader
	started  time.Time
}

// Routes builds the router. Split from Start so tests can exercise the
// handlers without a listener.
func (s *Server) Routes() http.Handler {
	limiter := NewRateLimiter(120, time.Minute)

	r := chi.NewRouter()

	// Public endpoints (GET, read-only).
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/nest", s.handleNest)
	r.Get("/api/v1/recruitment", s.handleRecruitment)
	r.Get("/api/v1/tiers", s.handleTiers)
	r.Get("/api/v1/choices", s.handleChoices)

	// Websocket snapshot stream.
	r.Get("/api/v1/stream", s.handleStream)

	// Player actions (POST, require bearer token).
	r.Group(func(r chi.Router) {
		r.Use(s.adminOnly)
		r.Use(RateLimitMiddleware(limiter))
		r.Post("/api/v1/recruitment/refresh", s.handleRefresh)
		r.Post("/api/v1/recruitment/accept", s.handleAccept)
		r.Post("/api/v1/assignments/unassign", s.handleUnassign)
		r.Post("/api/v1/upgrade", s.handleUpgrade)
	})

	return r
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Routes()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// adminOnly rejects mutating requests without the configured bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "disabled", "mutating endpoints are disabled")
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Keeper.Snapshot()

	status := map[string]any{
		"level":          st.Level,
		"seed_stock":     st.SeedStock,
		"assignments":    len(st.Assignments),
		"capacity":       s.Catalog.Capacity(st.Level),
		"offers":         len(st.Pool),
		"passive_rate":   s.Catalog.PassiveRate(st.Level, st.AssignedRoles()),
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	}
	if st.Upgrade.InProgress {
		status["upgrade_target"] = st.Upgrade.TargetLevel
		status["upgrade_completes_at_ms"] = st.Upgrade.CompletesAtMillis
	}
	writeJSON(w, status)
}

func (s *Server) handleNest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Keeper.Snapshot())
}

func (s *Server) handleRecruitment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"offers": s.Keeper.Snapshot().Pool})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Catalog)
}

func (s *Server) handleChoices(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusNotFound, "unavailable", "choice log not configured")
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	choices, err := s.DB.RecentChoices(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "choice log unavailable")
		return
	}
	writeJSON(w, map[string]any{"choices": choices})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.Keeper.RefreshRecruitment()
	writeJSON(w, s.Keeper.Snapshot())
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferID string `json:"offer_id"`
		Role    string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OfferID == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "offer_id and role are required")
		return
	}

	if err := s.Keeper.AcceptRecruitment(req.OfferID, tiers.Role(req.Role)); err != nil {
		writePreconditionError(w, err)
		return
	}
	writeJSON(w, s.Keeper.Snapshot())
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SlotID string `json:"slot_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SlotID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "slot_id is required")
		return
	}

	removed := s.Keeper.Unassign(req.SlotID)
	writeJSON(w, map[string]any{"removed": removed, "nest": s.Keeper.Snapshot()})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if err := s.Keeper.RequestUpgrade(); err != nil {
		writePreconditionError(w, err)
		return
	}
	writeJSON(w, s.Keeper.Snapshot())
}

// writePreconditionError maps the simulation's precondition failures to
// machine-readable HTTP responses.
func writePreconditionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nest.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, "offer_not_found", err.Error())
	case errors.Is(err, nest.ErrRoleNotUnlocked):
		writeError(w, http.StatusConflict, "role_not_unlocked", err.Error())
	case errors.Is(err, nest.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, nest.ErrInsufficientSeeds):
		writeError(w, http.StatusConflict, "insufficient_seeds", err.Error())
	case errors.Is(err, nest.ErrCritterAlreadyAssigned):
		writeError(w, http.StatusConflict, "critter_already_assigned", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "error": msg})
}
