package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

// EdgeHandler handles edge HTTP requests.
type EdgeHandler struct {
	graphService services.GraphService
	gate         services.AccessGate
	logger       *zap.Logger
}

// NewEdgeHandler creates a new edge handler.
func NewEdgeHandler(graphService services.GraphService, gate services.AccessGate, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{graphService: graphService, gate: gate, logger: logger}
}

// RegisterRoutes registers the edge handler's routes on the given mux.
func (h *EdgeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/edges",
		authMiddleware.RequireAuth(scope(h.Create)))
	mux.HandleFunc("DELETE /api/edges/{eid}",
		authMiddleware.RequireAuth(scope(h.Delete)))
}

// Create handles POST /api/edges
func (h *EdgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "create_edge_failed")
		return
	}

	var input services.CreateEdgeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionCreateEdge); err != nil {
		WriteServiceError(w, h.logger, err, "create_edge_failed")
		return
	}

	edge, err := h.graphService.CreateEdge(r.Context(), &input)
	if err != nil {
		WriteServiceError(w, h.logger, err, "create_edge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, edge); err != nil {
		h.logger.Error("Failed to encode edge response", zap.Error(err))
	}
}

// Delete handles DELETE /api/edges/{eid}
func (h *EdgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "delete_edge_failed")
		return
	}

	edgeID, ok := ParseEdgeID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionDeleteEdge); err != nil {
		WriteServiceError(w, h.logger, err, "delete_edge_failed")
		return
	}

	if err := h.graphService.DeleteEdge(r.Context(), edgeID); err != nil {
		WriteServiceError(w, h.logger, err, "delete_edge_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
