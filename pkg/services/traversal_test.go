package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/models"
)

func newTraversal(store *mockGraph) TraversalService {
	return NewTraversalService(store, edgeRepoAdapter{store}, zap.NewNop())
}

func nodeIDs(n *models.Neighborhood) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(n.Nodes))
	for _, node := range n.Nodes {
		ids[node.ID] = true
	}
	return ids
}

func TestClampDepth(t *testing.T) {
	assert.Equal(t, 1, ClampDepth(0))
	assert.Equal(t, 1, ClampDepth(-5))
	assert.Equal(t, 1, ClampDepth(1))
	assert.Equal(t, 2, ClampDepth(2))
	assert.Equal(t, 3, ClampDepth(3))
	assert.Equal(t, 3, ClampDepth(99))
}

func TestTraversalService_Neighborhood_Chain(t *testing.T) {
	// A - B - C - D, undirected expansion from B.
	store := newMockGraph()
	author := uuid.New()
	a := store.addNode(author)
	b := store.addNode(author)
	c := store.addNode(author)
	d := store.addNode(author)
	store.addEdge(a.ID, b.ID, models.EdgeKindDependsOn)
	store.addEdge(b.ID, c.ID, models.EdgeKindProves)
	store.addEdge(c.ID, d.ID, models.EdgeKindExtends)

	svc := newTraversal(store)

	t.Run("depth 1 reaches both neighbors", func(t *testing.T) {
		result, err := svc.Neighborhood(context.Background(), b.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, result)

		ids := nodeIDs(result)
		assert.Len(t, ids, 3)
		assert.True(t, ids[a.ID])
		assert.True(t, ids[b.ID])
		assert.True(t, ids[c.ID])
		assert.False(t, ids[d.ID])
		assert.Len(t, result.Edges, 2)
	})

	t.Run("depth 2 reaches the whole chain", func(t *testing.T) {
		result, err := svc.Neighborhood(context.Background(), b.ID, 2)
		require.NoError(t, err)

		assert.Len(t, result.Nodes, 4)
		assert.Len(t, result.Edges, 3)
	})

	t.Run("depth 1 from an endpoint", func(t *testing.T) {
		result, err := svc.Neighborhood(context.Background(), a.ID, 1)
		require.NoError(t, err)

		ids := nodeIDs(result)
		assert.Len(t, ids, 2)
		assert.True(t, ids[a.ID])
		assert.True(t, ids[b.ID])
		assert.Len(t, result.Edges, 1)
	})

	t.Run("depth 0 clamps to 1", func(t *testing.T) {
		result, err := svc.Neighborhood(context.Background(), b.ID, 0)
		require.NoError(t, err)
		assert.Len(t, result.Nodes, 3)
	})

	t.Run("depth 99 clamps to 3", func(t *testing.T) {
		result, err := svc.Neighborhood(context.Background(), a.ID, 99)
		require.NoError(t, err)
		// Three hops from A covers the full chain.
		assert.Len(t, result.Nodes, 4)
	})
}

func TestTraversalService_Neighborhood_MissingSeed(t *testing.T) {
	svc := newTraversal(newMockGraph())

	result, err := svc.Neighborhood(context.Background(), uuid.New(), 2)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestTraversalService_Neighborhood_IsolatedSeed(t *testing.T) {
	store := newMockGraph()
	seed := store.addNode(uuid.New())
	svc := newTraversal(store)

	result, err := svc.Neighborhood(context.Background(), seed.ID, 3)
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, seed.ID, result.Nodes[0].ID)
	assert.Empty(t, result.Edges)
}

func TestTraversalService_Neighborhood_SameRoundCrossLink(t *testing.T) {
	// X and Y are both one hop from the seed and linked to each other.
	// The X-Y edge is inside the result set and must be returned even
	// though neither frontier sweep crosses it.
	store := newMockGraph()
	author := uuid.New()
	seed := store.addNode(author)
	x := store.addNode(author)
	y := store.addNode(author)
	store.addEdge(seed.ID, x.ID, models.EdgeKindDependsOn)
	store.addEdge(seed.ID, y.ID, models.EdgeKindDependsOn)
	crossLink := store.addEdge(x.ID, y.ID, models.EdgeKindAnalogousTo)

	svc := newTraversal(store)
	result, err := svc.Neighborhood(context.Background(), seed.ID, 1)
	require.NoError(t, err)

	assert.Len(t, result.Nodes, 3)
	require.Len(t, result.Edges, 3)
	found := false
	for _, edge := range result.Edges {
		if edge.ID == crossLink.ID {
			found = true
		}
	}
	assert.True(t, found, "cross-link between same-round nodes should be included")
}

func TestTraversalService_Neighborhood_ExcludesOutsideEdges(t *testing.T) {
	// An edge from a reached node to an unreached node must not appear.
	store := newMockGraph()
	author := uuid.New()
	a := store.addNode(author)
	b := store.addNode(author)
	c := store.addNode(author)
	inside := store.addEdge(a.ID, b.ID, models.EdgeKindProves)
	store.addEdge(b.ID, c.ID, models.EdgeKindProves)

	svc := newTraversal(store)
	result, err := svc.Neighborhood(context.Background(), a.ID, 1)
	require.NoError(t, err)

	require.Len(t, result.Edges, 1)
	assert.Equal(t, inside.ID, result.Edges[0].ID)
}

func TestTraversalService_Neighborhood_SelfLoop(t *testing.T) {
	store := newMockGraph()
	seed := store.addNode(uuid.New())
	store.addEdge(seed.ID, seed.ID, models.EdgeKindAnalogousTo)

	svc := newTraversal(store)
	result, err := svc.Neighborhood(context.Background(), seed.ID, 1)
	require.NoError(t, err)

	assert.Len(t, result.Nodes, 1)
	assert.Len(t, result.Edges, 1)
}
