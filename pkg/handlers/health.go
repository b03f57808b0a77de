package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/config"
	"github.com/lemma-social/lemma-engine/pkg/database"
)

// StatusResponse reports service identity and dependency health.
type StatusResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Version     string `json:"version"`
	GoVersion   string `json:"go_version"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, db *database.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
// These routes are unauthenticated.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /status", h.Status)
}

// Health handles GET /health. Liveness only: the process is up.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Status handles GET /status. Readiness: includes a database ping so load
// balancers stop routing graph traffic when Postgres is unreachable.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:      "ok",
		Service:     "lemma-engine",
		Version:     h.cfg.Version,
		GoVersion:   runtime.Version(),
		Environment: h.cfg.Env,
		Database:    "ok",
	}

	status := http.StatusOK
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Status check database ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if err := WriteJSON(w, status, resp); err != nil {
		h.logger.Error("Failed to encode status response", zap.Error(err))
	}
}
