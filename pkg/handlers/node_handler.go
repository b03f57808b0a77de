package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

// ScopeMiddleware wraps a handler with a per-request database scope.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// NeighborhoodResponse for GET /api/nodes/{nid}/neighborhood.
// Neighborhood is null when the seed node does not exist.
type NeighborhoodResponse struct {
	Neighborhood *models.Neighborhood `json:"neighborhood"`
	Depth        int                  `json:"depth"`
}

// NodeListResponse for GET /api/users/{uid}/nodes.
type NodeListResponse struct {
	Nodes []*models.Node `json:"nodes"`
	Total int            `json:"total"`
}

// EvidenceListResponse for GET /api/nodes/{nid}/evidence.
type EvidenceListResponse struct {
	Evidence []*models.Evidence `json:"evidence"`
	Total    int                `json:"total"`
}

// NodeHandler handles node, neighborhood and evidence HTTP requests.
type NodeHandler struct {
	graphService     services.GraphService
	traversalService services.TraversalService
	gate             services.AccessGate
	logger           *zap.Logger
}

// NewNodeHandler creates a new node handler.
func NewNodeHandler(
	graphService services.GraphService,
	traversalService services.TraversalService,
	gate services.AccessGate,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		graphService:     graphService,
		traversalService: traversalService,
		gate:             gate,
		logger:           logger,
	}
}

// RegisterRoutes registers the node handler's routes on the given mux.
func (h *NodeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/nodes",
		authMiddleware.RequireAuth(scope(h.Create)))
	mux.HandleFunc("GET /api/nodes/{nid}",
		authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("PATCH /api/nodes/{nid}",
		authMiddleware.RequireAuth(scope(h.Update)))
	mux.HandleFunc("DELETE /api/nodes/{nid}",
		authMiddleware.RequireAuth(scope(h.Delete)))
	mux.HandleFunc("GET /api/nodes/{nid}/neighborhood",
		authMiddleware.RequireAuth(scope(h.Neighborhood)))
	mux.HandleFunc("GET /api/nodes/{nid}/evidence",
		authMiddleware.RequireAuth(scope(h.ListEvidence)))
	mux.HandleFunc("POST /api/nodes/{nid}/evidence",
		authMiddleware.RequireAuth(scope(h.CreateEvidence)))
	mux.HandleFunc("GET /api/users/{uid}/nodes",
		authMiddleware.RequireAuth(scope(h.ListByAuthor)))
}

// Create handles POST /api/nodes
func (h *NodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "create_node_failed")
		return
	}

	var input services.CreateNodeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionCreateNode); err != nil {
		WriteServiceError(w, h.logger, err, "create_node_failed")
		return
	}

	result, err := h.graphService.CreateNode(r.Context(), &input, userID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "create_node_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, result); err != nil {
		h.logger.Error("Failed to encode node response", zap.Error(err))
	}
}

// Get handles GET /api/nodes/{nid}
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := ParseNodeID(w, r, h.logger)
	if !ok {
		return
	}

	node, err := h.graphService.GetNode(r.Context(), nodeID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_node_failed")
		return
	}
	if node == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Node not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, node); err != nil {
		h.logger.Error("Failed to encode node response", zap.Error(err))
	}
}

// Update handles PATCH /api/nodes/{nid}
func (h *NodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "update_node_failed")
		return
	}

	nodeID, ok := ParseNodeID(w, r, h.logger)
	if !ok {
		return
	}

	// The patch schema is closed: unknown fields are a client error, not
	// something to silently drop.
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var patch models.NodePatch
	if err := decoder.Decode(&patch); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionUpdateNode); err != nil {
		WriteServiceError(w, h.logger, err, "update_node_failed")
		return
	}

	node, err := h.graphService.UpdateNode(r.Context(), nodeID, &patch)
	if err != nil {
		WriteServiceError(w, h.logger, err, "update_node_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, node); err != nil {
		h.logger.Error("Failed to encode node response", zap.Error(err))
	}
}

// Delete handles DELETE /api/nodes/{nid}
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "delete_node_failed")
		return
	}

	nodeID, ok := ParseNodeID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionDeleteNode); err != nil {
		WriteServiceError(w, h.logger, err, "delete_node_failed")
		return
	}

	if err := h.graphService.DeleteNode(r.Context(), nodeID); err != nil {
		WriteServiceError(w, h.logger, err, "delete_node_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Neighborhood handles GET /api/nodes/{nid}/neighborhood?depth=N
func (h *NodeHandler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := ParseNodeID(w, r, h.logger)
	if !ok {
		return
	}

	// Non-numeric or absent depth falls back to the minimum; out-of-range
	// values are clamped, not rejected.
	depth := services.MinDepth
	if raw := r.URL.Query().Get("depth"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			depth = parsed
		}
	}
	depth = services.ClampDepth(depth)

	neighborhood, err := h.traversalService.Neighborhood(r.Context(), nodeID, depth)
	if err != nil {
		WriteServiceError(w, h.logger, err, "neighborhood_failed")
		return
	}

	response := NeighborhoodResponse{Neighborhood: neighborhood, Depth: depth}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode neighborhood response", zap.Error(err))
	}
}

// ListEvidence handles GET /api/nodes/{nid}/evidence
func (h *NodeHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := ParseNodeID(w, r, h.logger)
	if !ok {
		return
	}

	evidence, err := h.graphService.ListEvidenceByNode(r.Context(), nodeID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_evidence_failed")
		return
	}

	response := EvidenceListResponse{Evidence: evidence, Total: len(evidence)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode evidence response", zap.Error(err))
	}
}

// CreateEvidence handles POST /api/nodes/{nid}/evidence
func (h *NodeHandler) CreateEvidence(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err, "create_evidence_failed")
		return
	}

	nodeID, ok := ParseNodeID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.EvidenceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.gate.Authorize(r.Context(), userID, services.ActionCreateEvidence); err != nil {
		WriteServiceError(w, h.logger, err, "create_evidence_failed")
		return
	}

	evidence, err := h.graphService.CreateEvidence(r.Context(), nodeID, &input)
	if err != nil {
		WriteServiceError(w, h.logger, err, "create_evidence_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, evidence); err != nil {
		h.logger.Error("Failed to encode evidence response", zap.Error(err))
	}
}

// ListByAuthor handles GET /api/users/{uid}/nodes
func (h *NodeHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	nodes, err := h.graphService.ListNodesByAuthor(r.Context(), authorID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_nodes_failed")
		return
	}

	response := NodeListResponse{Nodes: nodes, Total: len(nodes)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode node list response", zap.Error(err))
	}
}
