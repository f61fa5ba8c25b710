package store

import (
	"testing"

	"github.com/fishalchemy/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hooks <- line <- cast, and bait is unconnected.
func createTestGraph() *GraphStore {
	g := NewGraphStore()
	g.SetGraph(&domain.Graph{ID: 1, Name: "Trip"})
	g.Load([]domain.Node{
		{ID: 1, Name: "hooks"},
		{ID: 2, Name: "line", Dependencies: []domain.NodeRef{{ID: 1, Name: "hooks"}}},
		{ID: 3, Name: "cast", Dependencies: []domain.NodeRef{{ID: 2, Name: "line"}, {ID: 42, Name: "ghost"}}},
		{ID: 4, Name: "bait"},
	})
	return g
}

func refIDs(refs []domain.NodeRef) []int {
	ids := make([]int, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

func TestGraphLoad(t *testing.T) {
	g := createTestGraph()

	assert.Equal(t, "Trip", g.Graph().Name)
	assert.Len(t, g.Nodes(), 4)
	assert.Equal(t, []domain.Edge{{From: 1, To: 2}, {From: 2, To: 3}}, g.Edges(), "edge to unknown node dropped")
	assert.Equal(t, []int{1}, refIDs(g.Dependencies(2)))
	assert.Equal(t, []int{3}, refIDs(g.Dependents(2)))

	n, ok := g.Node(3)
	require.True(t, ok)
	assert.Equal(t, []int{2}, refIDs(n.Dependencies))
}

func TestGraphConnect(t *testing.T) {
	g := createTestGraph()

	m, err := g.Connect(4, 3)
	require.NoError(t, err)
	assert.True(t, m.Added)
	assert.True(t, g.HasEdge(4, 3))
	assert.Equal(t, []int{2, 4}, refIDs(g.Dependencies(3)))

	t.Run("confirm keeps edge", func(t *testing.T) {
		assert.Equal(t, OutcomeApplied, g.Confirm(m))
		assert.True(t, g.HasEdge(4, 3))
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := g.Connect(4, 3)
		assert.ErrorIs(t, err, ErrEdgeExists)
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := g.Connect(4, 99)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestGraphConnect_RejectedRollsBack(t *testing.T) {
	g := createTestGraph()

	// Self-edges are sent to the server, which refuses them.
	m, err := g.Connect(1, 1)
	require.NoError(t, err)
	assert.True(t, g.HasEdge(1, 1))

	assert.Equal(t, OutcomeApplied, g.Revert(m))
	assert.False(t, g.HasEdge(1, 1))
}

func TestGraphDisconnect(t *testing.T) {
	g := createTestGraph()

	m, err := g.Disconnect(1, 2)
	require.NoError(t, err)
	assert.False(t, g.HasEdge(1, 2))

	assert.Equal(t, OutcomeApplied, g.Revert(m))
	assert.True(t, g.HasEdge(1, 2))

	_, err = g.Disconnect(4, 1)
	assert.ErrorIs(t, err, ErrEdgeNotFound)
}

func TestGraphEdge_StaleRevert(t *testing.T) {
	g := createTestGraph()

	first, err := g.Disconnect(1, 2)
	require.NoError(t, err)
	second, err := g.Connect(1, 2)
	require.NoError(t, err)

	assert.Equal(t, OutcomeStale, g.Revert(first))
	assert.True(t, g.HasEdge(1, 2))
	assert.Equal(t, OutcomeApplied, g.Confirm(second))
	assert.True(t, g.HasEdge(1, 2))
	assert.True(t, g.Confirmed(1, 2))
}

func TestGraphEdge_BothRejectedRollsBackToServer(t *testing.T) {
	tests := []struct {
		name        string
		newestFirst bool
	}{
		{name: "in order"},
		{name: "newest first", newestFirst: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := createTestGraph()
			require.False(t, g.Confirmed(4, 3))

			connect, err := g.Connect(4, 3)
			require.NoError(t, err)
			disconnect, err := g.Disconnect(4, 3)
			require.NoError(t, err)

			if tt.newestFirst {
				assert.Equal(t, OutcomeApplied, g.Revert(disconnect))
				assert.Equal(t, OutcomeStale, g.Revert(connect))
			} else {
				assert.Equal(t, OutcomeStale, g.Revert(connect))
				assert.Equal(t, OutcomeApplied, g.Revert(disconnect))
			}
			assert.False(t, g.HasEdge(4, 3), "the server never held the edge")
		})
	}
}

func TestGraphEdge_StaleSuccessMovesRollbackPoint(t *testing.T) {
	g := createTestGraph()

	connect, err := g.Connect(4, 3)
	require.NoError(t, err)
	disconnect, err := g.Disconnect(4, 3)
	require.NoError(t, err)

	assert.Equal(t, OutcomeStale, g.Confirm(connect))
	assert.True(t, g.Confirmed(4, 3))
	assert.False(t, g.HasEdge(4, 3), "the newer disconnect is still pending")

	assert.Equal(t, OutcomeApplied, g.Revert(disconnect))
	assert.True(t, g.HasEdge(4, 3), "the server kept the connect")
}

func TestGraphEdge_LateStaleSuccessResyncs(t *testing.T) {
	g := createTestGraph()

	connect, err := g.Connect(4, 3)
	require.NoError(t, err)
	disconnect, err := g.Disconnect(4, 3)
	require.NoError(t, err)

	// The disconnect is refused before the connect lands.
	assert.Equal(t, OutcomeApplied, g.Revert(disconnect))
	assert.False(t, g.HasEdge(4, 3))

	assert.Equal(t, OutcomeStale, g.Confirm(connect))
	assert.True(t, g.HasEdge(4, 3))
}

func TestGraphRemoveNode(t *testing.T) {
	g := createTestGraph()

	m, err := g.RemoveNode(2)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Index)
	assert.Len(t, m.Edges, 2)
	assert.Len(t, g.Nodes(), 3)
	assert.Empty(t, g.Edges())

	g.RevertRemove(m)
	nodes := g.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, 2, nodes[1].ID)
	assert.Equal(t, []domain.Edge{{From: 1, To: 2}, {From: 2, To: 3}}, g.Edges())

	t.Run("revert twice is a no-op", func(t *testing.T) {
		g.RevertRemove(m)
		assert.Len(t, g.Nodes(), 4)
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := g.RemoveNode(99)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestGraphAddAndUpdateNode(t *testing.T) {
	g := createTestGraph()

	g.AddNode(domain.Node{ID: 5, Name: "reel", Dependencies: []domain.NodeRef{{ID: 4}}})
	assert.Len(t, g.Nodes(), 5)
	assert.True(t, g.HasEdge(4, 5))

	require.NoError(t, g.UpdateNode(domain.Node{ID: 5, Name: "big reel", Description: "spinning"}))
	n, _ := g.Node(5)
	assert.Equal(t, "big reel", n.Name)
	assert.True(t, g.HasEdge(4, 5), "update keeps edges")
	assert.Equal(t, 4, g.Nodes()[3].ID)

	assert.ErrorIs(t, g.UpdateNode(domain.Node{ID: 77}), ErrNodeNotFound)
}

func TestGraphWouldCycle(t *testing.T) {
	g := createTestGraph()

	assert.True(t, g.WouldCycle(3, 1), "cast -> hooks closes hooks -> line -> cast")
	assert.True(t, g.WouldCycle(2, 1))
	assert.True(t, g.WouldCycle(4, 4))
	assert.False(t, g.WouldCycle(1, 3))
	assert.False(t, g.WouldCycle(4, 1))
}
