package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/repositories"
)

// CreateNodeInput carries a node creation request. Dependencies and
// Evidence, when present, are created together with the node as one atomic
// unit: all succeed or all roll back.
type CreateNodeInput struct {
	Title        string            `json:"title"`
	Statement    string            `json:"statement"`
	Type         string            `json:"type"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Dependencies []uuid.UUID       `json:"dependencies,omitempty"`
	Evidence     []EvidenceInput   `json:"evidence,omitempty"`
}

// EvidenceInput carries one evidence record for creation, either inline
// with a node or standalone against an existing node.
type EvidenceInput struct {
	Kind       string   `json:"kind"`
	URI        string   `json:"uri"`
	Summary    string   `json:"summary"`
	Hash       *string  `json:"hash,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// CreateEdgeInput carries an edge creation request. A nil Weight defaults
// to 1; an out-of-range weight is rejected, never clamped.
type CreateEdgeInput struct {
	FromID uuid.UUID `json:"from_id"`
	ToID   uuid.UUID `json:"to_id"`
	Kind   string    `json:"kind"`
	Weight *float64  `json:"weight,omitempty"`
}

// GraphResult is the outcome of a compound node creation.
type GraphResult struct {
	Node     *models.Node       `json:"node"`
	Edges    []*models.Edge     `json:"edges"`
	Evidence []*models.Evidence `json:"evidence"`
}

// GraphService owns node, edge and evidence mutation and lookup. It
// enforces field constraints before anything reaches the store and relies
// on the store's constraints for referential integrity.
type GraphService interface {
	CreateNode(ctx context.Context, input *CreateNodeInput, authorID uuid.UUID) (*GraphResult, error)
	GetNode(ctx context.Context, id uuid.UUID) (*models.Node, error)
	UpdateNode(ctx context.Context, id uuid.UUID, patch *models.NodePatch) (*models.Node, error)
	DeleteNode(ctx context.Context, id uuid.UUID) error
	ListNodesByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Node, error)
	CreateEdge(ctx context.Context, input *CreateEdgeInput) (*models.Edge, error)
	DeleteEdge(ctx context.Context, id uuid.UUID) error
	CreateEvidence(ctx context.Context, nodeID uuid.UUID, input *EvidenceInput) (*models.Evidence, error)
	ListEvidenceByNode(ctx context.Context, nodeID uuid.UUID) ([]*models.Evidence, error)
}

type graphService struct {
	nodeRepo     repositories.NodeRepository
	edgeRepo     repositories.EdgeRepository
	evidenceRepo repositories.EvidenceRepository
	logger       *zap.Logger
}

// NewGraphService creates a new graph service with dependencies.
func NewGraphService(
	nodeRepo repositories.NodeRepository,
	edgeRepo repositories.EdgeRepository,
	evidenceRepo repositories.EvidenceRepository,
	logger *zap.Logger,
) GraphService {
	return &graphService{
		nodeRepo:     nodeRepo,
		edgeRepo:     edgeRepo,
		evidenceRepo: evidenceRepo,
		logger:       logger,
	}
}

var _ GraphService = (*graphService)(nil)

func (s *graphService) CreateNode(ctx context.Context, input *CreateNodeInput, authorID uuid.UUID) (*GraphResult, error) {
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	node := &models.Node{
		Title:     input.Title,
		Statement: input.Statement,
		Type:      input.Type,
		Status:    input.Status,
		Metadata:  metadata,
		AuthorID:  authorID,
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}

	node.ID = uuid.New()

	edges := make([]*models.Edge, 0, len(input.Dependencies))
	for _, depID := range input.Dependencies {
		edge := &models.Edge{
			FromID: node.ID,
			ToID:   depID,
			Kind:   models.EdgeKindDependsOn,
			Weight: 1,
		}
		if err := edge.Validate(); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	evidence := make([]*models.Evidence, 0, len(input.Evidence))
	for _, in := range input.Evidence {
		ev := &models.Evidence{
			NodeID:     node.ID,
			Kind:       in.Kind,
			URI:        in.URI,
			Summary:    in.Summary,
			Hash:       in.Hash,
			Confidence: in.Confidence,
		}
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		evidence = append(evidence, ev)
	}

	if err := s.nodeRepo.CreateWithRelated(ctx, node, edges, evidence); err != nil {
		return nil, err
	}

	s.logger.Info("Node created",
		zap.String("node_id", node.ID.String()),
		zap.String("author_id", authorID.String()),
		zap.Int("dependencies", len(edges)),
		zap.Int("evidence", len(evidence)))

	return &GraphResult{Node: node, Edges: edges, Evidence: evidence}, nil
}

// GetNode returns (nil, nil) when the node is absent; the boundary
// translates that to a not-found response.
func (s *graphService) GetNode(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	return s.nodeRepo.GetByID(ctx, id)
}

func (s *graphService) UpdateNode(ctx context.Context, id uuid.UUID, patch *models.NodePatch) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apperrors.ErrNotFound
	}

	if err := patch.Apply(node); err != nil {
		return nil, err
	}

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	return node, nil
}

func (s *graphService) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if err := s.nodeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Node deleted", zap.String("node_id", id.String()))
	return nil
}

func (s *graphService) ListNodesByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Node, error) {
	return s.nodeRepo.ListByAuthor(ctx, authorID)
}

func (s *graphService) CreateEdge(ctx context.Context, input *CreateEdgeInput) (*models.Edge, error) {
	weight := 1.0
	if input.Weight != nil {
		weight = *input.Weight
	}

	edge := &models.Edge{
		FromID: input.FromID,
		ToID:   input.ToID,
		Kind:   input.Kind,
		Weight: weight,
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}

	if err := s.edgeRepo.Create(ctx, edge); err != nil {
		return nil, err
	}

	return edge, nil
}

func (s *graphService) DeleteEdge(ctx context.Context, id uuid.UUID) error {
	return s.edgeRepo.Delete(ctx, id)
}

func (s *graphService) CreateEvidence(ctx context.Context, nodeID uuid.UUID, input *EvidenceInput) (*models.Evidence, error) {
	ev := &models.Evidence{
		NodeID:     nodeID,
		Kind:       input.Kind,
		URI:        input.URI,
		Summary:    input.Summary,
		Hash:       input.Hash,
		Confidence: input.Confidence,
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	if err := s.evidenceRepo.Create(ctx, ev); err != nil {
		return nil, err
	}

	return ev, nil
}

func (s *graphService) ListEvidenceByNode(ctx context.Context, nodeID uuid.UUID) ([]*models.Evidence, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apperrors.ErrNotFound
	}

	return s.evidenceRepo.ListByNode(ctx, nodeID)
}
