package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

// TrustHandler handles trust-state and unban HTTP requests.
type TrustHandler struct {
	moderationService services.ModerationService
	gate              services.AccessGate
	logger            *zap.Logger
}

// NewTrustHandler creates a new trust handler.
func NewTrustHandler(moderationService services.ModerationService, gate services.AccessGate, logger *zap.Logger) *TrustHandler {
	return &TrustHandler{moderationService: moderationService, gate: gate, logger: logger}
}

// RegisterRoutes registers the trust handler's routes on the given mux.
func (h *TrustHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/users/{uid}/trust",
		authMiddleware.RequireAuth(scope(h.GetTrust)))
	mux.HandleFunc("POST /api/users/{uid}/unban",
		authMiddleware.RequireAuth(scope(h.Unban)))
}

// GetTrust handles GET /api/users/{uid}/trust
// Users may read their own standing; anyone else's requires a moderator.
func (h *TrustHandler) GetTrust(w http.ResponseWriter, r *http.Request) {
	actorID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_trust_failed")
		return
	}

	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if actorID != userID {
		if err := h.gate.Authorize(r.Context(), actorID, services.ActionViewTrust); err != nil {
			WriteServiceError(w, h.logger, err, "get_trust_failed")
			return
		}
	}

	trust, err := h.gate.TrustState(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_trust_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, trust); err != nil {
		h.logger.Error("Failed to encode trust response", zap.Error(err))
	}
}

// Unban handles POST /api/users/{uid}/unban
func (h *TrustHandler) Unban(w http.ResponseWriter, r *http.Request) {
	moderatorID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "unban_failed")
		return
	}

	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.gate.Authorize(r.Context(), moderatorID, services.ActionUnbanUser); err != nil {
		WriteServiceError(w, h.logger, err, "unban_failed")
		return
	}

	if err := h.moderationService.UnbanUser(r.Context(), userID); err != nil {
		WriteServiceError(w, h.logger, err, "unban_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
