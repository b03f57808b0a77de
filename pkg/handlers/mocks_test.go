package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

// authedRequest builds a request carrying the claims an authenticated
// user would have after the auth middleware ran.
func authedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	r := httptest.NewRequest(method, target, body)
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
	}
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimsKey, claims))
}

// mockGraphService is a mock for testing node and edge handlers.
type mockGraphService struct {
	createResult *services.GraphResult
	createErr    error
	node         *models.Node
	getErr       error
	updateNode   *models.Node
	updateErr    error
	deleteErr    error
	nodes        []*models.Node
	listErr      error
	edge         *models.Edge
	edgeErr      error
	evidence     *models.Evidence
	evidenceErr  error
	evidenceList []*models.Evidence
}

func (m *mockGraphService) CreateNode(_ context.Context, input *services.CreateNodeInput, authorID uuid.UUID) (*services.GraphResult, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createResult != nil {
		return m.createResult, nil
	}
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &services.GraphResult{
		Node: &models.Node{
			ID:        uuid.New(),
			Title:     input.Title,
			Statement: input.Statement,
			Type:      input.Type,
			Status:    input.Status,
			Metadata:  metadata,
			AuthorID:  authorID,
		},
		Edges:    []*models.Edge{},
		Evidence: []*models.Evidence{},
	}, nil
}

func (m *mockGraphService) GetNode(_ context.Context, _ uuid.UUID) (*models.Node, error) {
	return m.node, m.getErr
}

func (m *mockGraphService) UpdateNode(_ context.Context, _ uuid.UUID, _ *models.NodePatch) (*models.Node, error) {
	return m.updateNode, m.updateErr
}

func (m *mockGraphService) DeleteNode(_ context.Context, _ uuid.UUID) error {
	return m.deleteErr
}

func (m *mockGraphService) ListNodesByAuthor(_ context.Context, _ uuid.UUID) ([]*models.Node, error) {
	return m.nodes, m.listErr
}

func (m *mockGraphService) CreateEdge(_ context.Context, input *services.CreateEdgeInput) (*models.Edge, error) {
	if m.edgeErr != nil {
		return nil, m.edgeErr
	}
	if m.edge != nil {
		return m.edge, nil
	}
	weight := 1.0
	if input.Weight != nil {
		weight = *input.Weight
	}
	return &models.Edge{
		ID: uuid.New(), FromID: input.FromID, ToID: input.ToID,
		Kind: input.Kind, Weight: weight,
	}, nil
}

func (m *mockGraphService) DeleteEdge(_ context.Context, _ uuid.UUID) error {
	return m.edgeErr
}

func (m *mockGraphService) CreateEvidence(_ context.Context, nodeID uuid.UUID, input *services.EvidenceInput) (*models.Evidence, error) {
	if m.evidenceErr != nil {
		return nil, m.evidenceErr
	}
	if m.evidence != nil {
		return m.evidence, nil
	}
	return &models.Evidence{
		ID: uuid.New(), NodeID: nodeID,
		Kind: input.Kind, URI: input.URI, Summary: input.Summary,
	}, nil
}

func (m *mockGraphService) ListEvidenceByNode(_ context.Context, _ uuid.UUID) ([]*models.Evidence, error) {
	return m.evidenceList, m.evidenceErr
}

// mockTraversalService records the depth it was called with.
type mockTraversalService struct {
	neighborhood *models.Neighborhood
	err          error
	gotDepth     int
}

func (m *mockTraversalService) Neighborhood(_ context.Context, _ uuid.UUID, depth int) (*models.Neighborhood, error) {
	m.gotDepth = depth
	return m.neighborhood, m.err
}

// mockAccessGate allows or denies uniformly and records the last action.
type mockAccessGate struct {
	authorizeErr error
	trust        *models.UserTrust
	trustErr     error
	lastAction   string
}

func (m *mockAccessGate) Authorize(_ context.Context, _ uuid.UUID, action string) error {
	m.lastAction = action
	return m.authorizeErr
}

func (m *mockAccessGate) TrustState(_ context.Context, userID uuid.UUID) (*models.UserTrust, error) {
	if m.trustErr != nil {
		return nil, m.trustErr
	}
	if m.trust != nil {
		return m.trust, nil
	}
	return models.DefaultTrust(userID), nil
}

// mockModerationService is a mock for testing flag and trust handlers.
type mockModerationService struct {
	flag      *models.Flag
	submitErr error
	flags     []*models.Flag
	listErr   error
	decided   *models.Flag
	decideErr error
	unbanErr  error
}

func (m *mockModerationService) SubmitFlag(_ context.Context, input *services.SubmitFlagInput, reporterID uuid.UUID) (*models.Flag, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.flag != nil {
		return m.flag, nil
	}
	return &models.Flag{
		ID: uuid.New(), TargetType: input.TargetType, TargetID: input.TargetID,
		ReporterID: reporterID, Reason: input.Reason, Status: models.FlagStatusPending,
	}, nil
}

func (m *mockModerationService) GetFlag(_ context.Context, _ uuid.UUID) (*models.Flag, error) {
	return m.flag, m.listErr
}

func (m *mockModerationService) ListFlags(_ context.Context, _ string) ([]*models.Flag, error) {
	return m.flags, m.listErr
}

func (m *mockModerationService) DecideFlag(_ context.Context, _, _ uuid.UUID, _ *models.FlagDecision) (*models.Flag, error) {
	return m.decided, m.decideErr
}

func (m *mockModerationService) UnbanUser(_ context.Context, _ uuid.UUID) error {
	return m.unbanErr
}
