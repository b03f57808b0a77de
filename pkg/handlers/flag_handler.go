package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

// FlagListResponse for GET /api/flags.
type FlagListResponse struct {
	Flags []*models.Flag `json:"flags"`
	Total int            `json:"total"`
}

// FlagHandler handles flag submission and moderation HTTP requests.
type FlagHandler struct {
	moderationService services.ModerationService
	gate              services.AccessGate
	logger            *zap.Logger
}

// NewFlagHandler creates a new flag handler.
func NewFlagHandler(moderationService services.ModerationService, gate services.AccessGate, logger *zap.Logger) *FlagHandler {
	return &FlagHandler{moderationService: moderationService, gate: gate, logger: logger}
}

// RegisterRoutes registers the flag handler's routes on the given mux.
func (h *FlagHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/flags",
		authMiddleware.RequireAuth(scope(h.Submit)))
	mux.HandleFunc("GET /api/flags",
		authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("GET /api/flags/{fid}",
		authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("POST /api/flags/{fid}/decision",
		authMiddleware.RequireAuth(scope(h.Decide)))
}

// Submit handles POST /api/flags
func (h *FlagHandler) Submit(w http.ResponseWriter, r *http.Request) {
	reporterID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "submit_flag_failed")
		return
	}

	var input services.SubmitFlagInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// The service re-checks the reporter's standing; the gate check keeps
	// the deny reason consistent across endpoints.
	if err := h.gate.Authorize(r.Context(), reporterID, services.ActionSubmitFlag); err != nil {
		WriteServiceError(w, h.logger, err, "submit_flag_failed")
		return
	}

	flag, err := h.moderationService.SubmitFlag(r.Context(), &input, reporterID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "submit_flag_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, flag); err != nil {
		h.logger.Error("Failed to encode flag response", zap.Error(err))
	}
}

// List handles GET /api/flags?status=...
func (h *FlagHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_flags_failed")
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionListFlags); err != nil {
		WriteServiceError(w, h.logger, err, "list_flags_failed")
		return
	}

	flags, err := h.moderationService.ListFlags(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_flags_failed")
		return
	}

	response := FlagListResponse{Flags: flags, Total: len(flags)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode flag list response", zap.Error(err))
	}
}

// Get handles GET /api/flags/{fid}
func (h *FlagHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_flag_failed")
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionListFlags); err != nil {
		WriteServiceError(w, h.logger, err, "get_flag_failed")
		return
	}

	flagID, ok := ParseFlagID(w, r, h.logger)
	if !ok {
		return
	}

	flag, err := h.moderationService.GetFlag(r.Context(), flagID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_flag_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, flag); err != nil {
		h.logger.Error("Failed to encode flag response", zap.Error(err))
	}
}

// Decide handles POST /api/flags/{fid}/decision
func (h *FlagHandler) Decide(w http.ResponseWriter, r *http.Request) {
	moderatorID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "decide_flag_failed")
		return
	}

	flagID, ok := ParseFlagID(w, r, h.logger)
	if !ok {
		return
	}

	var decision models.FlagDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.gate.Authorize(r.Context(), moderatorID, services.ActionDecideFlag); err != nil {
		WriteServiceError(w, h.logger, err, "decide_flag_failed")
		return
	}

	flag, err := h.moderationService.DecideFlag(r.Context(), flagID, moderatorID, &decision)
	if err != nil {
		WriteServiceError(w, h.logger, err, "decide_flag_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, flag); err != nil {
		h.logger.Error("Failed to encode flag response", zap.Error(err))
	}
}
