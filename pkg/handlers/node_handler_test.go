package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

func newNodeHandler(graph *mockGraphService, traversal *mockTraversalService, gate *mockAccessGate) *NodeHandler {
	return NewNodeHandler(graph, traversal, gate, zap.NewNop())
}

func TestNodeHandler_Create(t *testing.T) {
	t.Run("returns 201 with the created node", func(t *testing.T) {
		gate := &mockAccessGate{}
		handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, gate)

		body := `{"title":"Pythagorean theorem","statement":"In a right triangle the squares sum.","type":"theorem","status":"proven"}`
		r := authedRequest(http.MethodPost, "/api/nodes", strings.NewReader(body), uuid.New())
		w := httptest.NewRecorder()
		handler.Create(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, services.ActionCreateNode, gate.lastAction)

		var result services.GraphResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "Pythagorean theorem", result.Node.Title)
		assert.NotNil(t, result.Node.Metadata)
	})

	t.Run("validation error maps to 400 with field code", func(t *testing.T) {
		graph := &mockGraphService{createErr: apperrors.NewValidation("title", "must be at least 3 characters")}
		handler := newNodeHandler(graph, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodPost, "/api/nodes", strings.NewReader(`{}`), uuid.New())
		w := httptest.NewRecorder()
		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_title")
	})

	t.Run("missing dependency maps to 404", func(t *testing.T) {
		graph := &mockGraphService{createErr: apperrors.ErrNotFound}
		handler := newNodeHandler(graph, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodPost, "/api/nodes", strings.NewReader(`{}`), uuid.New())
		w := httptest.NewRecorder()
		handler.Create(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("banned user maps to 403", func(t *testing.T) {
		gate := &mockAccessGate{authorizeErr: apperrors.ErrBanned}
		handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, gate)

		r := authedRequest(http.MethodPost, "/api/nodes", strings.NewReader(`{}`), uuid.New())
		w := httptest.NewRecorder()
		handler.Create(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "banned")
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, &mockAccessGate{})

		r := httptest.NewRequest(http.MethodPost, "/api/nodes", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		handler.Create(w, r)

		assert.NotEqual(t, http.StatusCreated, w.Code)
	})
}

func TestNodeHandler_Get(t *testing.T) {
	t.Run("returns the node", func(t *testing.T) {
		node := &models.Node{ID: uuid.New(), Title: "Stored claim"}
		handler := newNodeHandler(&mockGraphService{node: node}, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodGet, "/api/nodes/"+node.ID.String(), nil, uuid.New())
		r.SetPathValue("nid", node.ID.String())
		w := httptest.NewRecorder()
		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("absent node returns 404", func(t *testing.T) {
		handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodGet, "/api/nodes/x", nil, uuid.New())
		r.SetPathValue("nid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodGet, "/api/nodes/not-a-uuid", nil, uuid.New())
		r.SetPathValue("nid", "not-a-uuid")
		w := httptest.NewRecorder()
		handler.Get(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_node_id")
	})
}

func TestNodeHandler_Update(t *testing.T) {
	t.Run("unknown fields in the patch are rejected", func(t *testing.T) {
		handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, &mockAccessGate{})

		body := `{"title":"Renamed claim","bogus_field":true}`
		r := authedRequest(http.MethodPatch, "/api/nodes/x", strings.NewReader(body), uuid.New())
		r.SetPathValue("nid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Update(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid patch returns the updated node", func(t *testing.T) {
		updated := &models.Node{ID: uuid.New(), Title: "Renamed claim"}
		handler := newNodeHandler(&mockGraphService{updateNode: updated}, &mockTraversalService{}, &mockAccessGate{})

		body := `{"title":"Renamed claim"}`
		r := authedRequest(http.MethodPatch, "/api/nodes/x", strings.NewReader(body), uuid.New())
		r.SetPathValue("nid", updated.ID.String())
		w := httptest.NewRecorder()
		handler.Update(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var node models.Node
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
		assert.Equal(t, "Renamed claim", node.Title)
	})

	t.Run("missing node maps to 404", func(t *testing.T) {
		handler := newNodeHandler(&mockGraphService{updateErr: apperrors.ErrNotFound}, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodPatch, "/api/nodes/x", bytes.NewReader([]byte(`{}`)), uuid.New())
		r.SetPathValue("nid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Update(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNodeHandler_Delete(t *testing.T) {
	handler := newNodeHandler(&mockGraphService{}, &mockTraversalService{}, &mockAccessGate{})

	r := authedRequest(http.MethodDelete, "/api/nodes/x", nil, uuid.New())
	r.SetPathValue("nid", uuid.NewString())
	w := httptest.NewRecorder()
	handler.Delete(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNodeHandler_Neighborhood(t *testing.T) {
	seed := uuid.New()

	request := func(traversal *mockTraversalService, query string) *httptest.ResponseRecorder {
		handler := newNodeHandler(&mockGraphService{}, traversal, &mockAccessGate{})
		r := authedRequest(http.MethodGet, "/api/nodes/"+seed.String()+"/neighborhood"+query, nil, uuid.New())
		r.SetPathValue("nid", seed.String())
		w := httptest.NewRecorder()
		handler.Neighborhood(w, r)
		return w
	}

	t.Run("depth is clamped before the service sees it", func(t *testing.T) {
		traversal := &mockTraversalService{neighborhood: &models.Neighborhood{}}

		request(traversal, "?depth=0")
		assert.Equal(t, 1, traversal.gotDepth)

		request(traversal, "?depth=99")
		assert.Equal(t, 3, traversal.gotDepth)

		request(traversal, "?depth=2")
		assert.Equal(t, 2, traversal.gotDepth)
	})

	t.Run("non-numeric depth falls back to the minimum", func(t *testing.T) {
		traversal := &mockTraversalService{neighborhood: &models.Neighborhood{}}
		w := request(traversal, "?depth=abc")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, traversal.gotDepth)
	})

	t.Run("missing seed yields null neighborhood", func(t *testing.T) {
		w := request(&mockTraversalService{}, "?depth=2")

		require.Equal(t, http.StatusOK, w.Code)

		var response NeighborhoodResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Nil(t, response.Neighborhood)
	})
}

func TestNodeHandler_Evidence(t *testing.T) {
	t.Run("list returns evidence with total", func(t *testing.T) {
		evidence := []*models.Evidence{{ID: uuid.New()}, {ID: uuid.New()}}
		handler := newNodeHandler(&mockGraphService{evidenceList: evidence}, &mockTraversalService{}, &mockAccessGate{})

		r := authedRequest(http.MethodGet, "/api/nodes/x/evidence", nil, uuid.New())
		r.SetPathValue("nid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.ListEvidence(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var response EvidenceListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 2, response.Total)
	})

	t.Run("create against a missing node maps to 404", func(t *testing.T) {
		handler := newNodeHandler(&mockGraphService{evidenceErr: apperrors.ErrNotFound}, &mockTraversalService{}, &mockAccessGate{})

		body := `{"kind":"citation","uri":"https://example.org","summary":"Supporting paper"}`
		r := authedRequest(http.MethodPost, "/api/nodes/x/evidence", strings.NewReader(body), uuid.New())
		r.SetPathValue("nid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.CreateEvidence(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
