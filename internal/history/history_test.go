package history

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/skilltree/internal/graph"
)

func sample(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := 1; id <= 3; id++ {
		_, err := g.AddNode(graph.Node{ID: id, X: float64(id) * 50, Exp: graph.Ref(id * 10)})
		require.NoError(t, err)
	}
	_, err := g.AddEdge(1, 2, "right", "left")
	require.NoError(t, err)
	return g
}

func TestUndoRedoRoundTrip(t *testing.T) {
	g := sample(t)
	m := New(0)
	before := g.Clone()

	m.Record(g)
	g.Node(1).X = 999
	*g.Node(2).Exp = 0
	_, err := g.AddEdge(2, 3, "", "")
	require.NoError(t, err)
	after := g.Clone()

	require.True(t, m.Undo(g))
	if diff := cmp.Diff(before, g.Clone()); diff != "" {
		t.Fatalf("undo mismatch (-want +got):\n%s", diff)
	}

	require.True(t, m.Redo(g))
	if diff := cmp.Diff(after, g.Clone()); diff != "" {
		t.Fatalf("redo mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsDeep(t *testing.T) {
	g := sample(t)
	s := Take(g)
	*g.Node(1).Exp = 12345
	*g.Edges[0].From = 3

	assert.Equal(t, 10, *s.Nodes[0].Exp)
	assert.Equal(t, 1, *s.Edges[0].From)
}

func TestUndoEmpty(t *testing.T) {
	g := sample(t)
	m := New(0)
	assert.False(t, m.Undo(g))
	assert.False(t, m.Redo(g))
}

func TestRecordClearsFuture(t *testing.T) {
	g := sample(t)
	m := New(0)
	m.Record(g)
	g.Node(1).X = 1
	m.Undo(g)
	require.True(t, m.CanRedo())

	m.Record(g)
	assert.False(t, m.CanRedo())
}

func TestHistoryBound(t *testing.T) {
	g := sample(t)
	m := New(DefaultLimit)
	for i := 0; i < 150; i++ {
		g.Node(1).X = float64(i)
		m.Record(g)
	}
	past, _ := m.Len()
	assert.Equal(t, 100, past)

	// The oldest 50 were dropped: undoing everything lands on i == 50.
	for m.Undo(g) {
	}
	assert.Equal(t, 50.0, g.Node(1).X)
}

func TestSetLimitDropsOldest(t *testing.T) {
	g := sample(t)
	m := New(10)
	for i := 0; i < 10; i++ {
		g.Node(1).X = float64(i)
		m.Record(g)
	}
	m.SetLimit(4)
	past, _ := m.Len()
	assert.Equal(t, 4, past)
	for m.Undo(g) {
	}
	assert.Equal(t, 6.0, g.Node(1).X)
}

func TestSuppressedRecordIsIgnored(t *testing.T) {
	g := sample(t)
	m := New(0)
	m.Suppress(func() {
		m.Record(g)
		assert.True(t, m.Suppressed())
	})
	assert.False(t, m.Suppressed())
	assert.False(t, m.CanUndo())

	m.Suppress(func() {
		m.Suppress(func() {})
		m.Record(g)
	})
	assert.False(t, m.CanUndo(), "nested suppress keeps the outer one active")
	m.Record(g)
	assert.True(t, m.CanUndo())
}

func TestApplyDoesNotRecord(t *testing.T) {
	g := sample(t)
	m := New(0)
	s := Take(g)
	g.Node(1).X = -1
	m.Apply(g, s)
	assert.False(t, m.CanUndo())
	assert.Equal(t, 50.0, g.Node(1).X)
}

func TestJSONRoundTrip(t *testing.T) {
	g := sample(t)
	m := New(5)
	m.Record(g)
	g.Node(1).X = 7
	m.Record(g)
	g.Node(1).X = 8
	m.Undo(g)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	restored := New(0)
	require.NoError(t, json.Unmarshal(data, restored))
	past, future := restored.Len()
	assert.Equal(t, 1, past)
	assert.Equal(t, 1, future)
	assert.Equal(t, 5, restored.limit)

	require.True(t, restored.Redo(g))
	assert.Equal(t, 8.0, g.Node(1).X)
}
