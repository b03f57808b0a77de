package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/repositories"
)

const (
	// MinDepth and MaxDepth bound neighborhood expansion. Requests outside
	// the range are clamped, not rejected.
	MinDepth = 1
	MaxDepth = 3
)

// TraversalService answers bounded neighborhood queries over the claim
// graph. Edges are followed in both directions regardless of kind.
type TraversalService interface {
	// Neighborhood returns every node within depth hops of the seed plus
	// every edge whose endpoints are both in that set. A missing seed
	// yields (nil, nil).
	Neighborhood(ctx context.Context, seedID uuid.UUID, depth int) (*models.Neighborhood, error)
}

type traversalService struct {
	nodeRepo repositories.NodeRepository
	edgeRepo repositories.EdgeRepository
	logger   *zap.Logger
}

// NewTraversalService creates a new TraversalService.
func NewTraversalService(nodeRepo repositories.NodeRepository, edgeRepo repositories.EdgeRepository, logger *zap.Logger) TraversalService {
	return &traversalService{
		nodeRepo: nodeRepo,
		edgeRepo: edgeRepo,
		logger:   logger,
	}
}

var _ TraversalService = (*traversalService)(nil)

// ClampDepth folds any requested depth into [MinDepth, MaxDepth].
func ClampDepth(depth int) int {
	if depth < MinDepth {
		return MinDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

func (s *traversalService) Neighborhood(ctx context.Context, seedID uuid.UUID, depth int) (*models.Neighborhood, error) {
	depth = ClampDepth(depth)

	seed, err := s.nodeRepo.GetByID(ctx, seedID)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, nil
	}

	visited := map[uuid.UUID]bool{seedID: true}
	frontier := []uuid.UUID{seedID}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		touching, err := s.edgeRepo.GetTouching(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []uuid.UUID
		for _, edge := range touching {
			for _, endpoint := range []uuid.UUID{edge.FromID, edge.ToID} {
				if !visited[endpoint] {
					visited[endpoint] = true
					next = append(next, endpoint)
				}
			}
		}
		frontier = next
	}

	ids := make([]uuid.UUID, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}

	// One more pass over the full set picks up edges between nodes
	// discovered in the same round, which the frontier sweeps miss.
	touching, err := s.edgeRepo.GetTouching(ctx, ids)
	if err != nil {
		return nil, err
	}
	edges := make([]*models.Edge, 0, len(touching))
	for _, edge := range touching {
		if visited[edge.FromID] && visited[edge.ToID] {
			edges = append(edges, edge)
		}
	}

	// Refetch rather than trust the visited set: nodes can vanish between
	// the sweeps and the result must not contain dangling references.
	nodes, err := s.nodeRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	present := make(map[uuid.UUID]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	kept := edges[:0]
	for _, edge := range edges {
		if present[edge.FromID] && present[edge.ToID] {
			kept = append(kept, edge)
		}
	}

	return &models.Neighborhood{Nodes: nodes, Edges: kept}, nil
}
