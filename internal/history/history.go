// Package history implements snapshot-based undo and redo for a skill tree.
//
// Callers Record the graph before every visible mutation; Undo then restores
// the pre-mutation graph exactly. Any new record clears the redo stack.
package history

import (
	"encoding/json"

	"github.com/msalah0e/skilltree/internal/graph"
)

// DefaultLimit bounds the undo stack.
const DefaultLimit = 100

// Snapshot is a deep copy of a graph at one point in time.
type Snapshot struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Take deep-copies g.
func Take(g *graph.Graph) Snapshot {
	c := g.Clone()
	return Snapshot{Nodes: c.Nodes, Edges: c.Edges}
}

// Graph returns a deep copy of the snapshot as a graph.
func (s Snapshot) Graph() graph.Graph {
	g := graph.Graph{Nodes: s.Nodes, Edges: s.Edges}
	return g.Clone()
}

// Manager holds the past and future stacks.
type Manager struct {
	past       []Snapshot
	future     []Snapshot
	limit      int
	suppressed bool
}

// New creates a manager keeping at most limit undo steps. A non-positive
// limit means DefaultLimit.
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit}
}

// Record pushes the current graph onto the undo stack, dropping the oldest
// entry past the limit, and clears the redo stack. It does nothing while
// suppressed.
func (m *Manager) Record(g *graph.Graph) {
	if m.suppressed {
		return
	}
	m.past = append(m.past, Take(g))
	if over := len(m.past) - m.limit; over > 0 {
		m.past = append(m.past[:0:0], m.past[over:]...)
	}
	m.future = nil
}

// Undo restores the most recent snapshot into g, moving the current graph to
// the redo stack. It reports whether anything was undone.
func (m *Manager) Undo(g *graph.Graph) bool {
	if len(m.past) == 0 {
		return false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, Take(g))
	m.Apply(g, prev)
	return true
}

// Redo is the inverse of Undo.
func (m *Manager) Redo(g *graph.Graph) bool {
	if len(m.future) == 0 {
		return false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, Take(g))
	m.Apply(g, next)
	return true
}

// Apply overwrites g with s. Recording is suppressed while it runs so the
// restore itself never lands in history.
func (m *Manager) Apply(g *graph.Graph, s Snapshot) {
	m.Suppress(func() {
		*g = s.Graph()
	})
}

// Suppress runs fn with recording disabled.
func (m *Manager) Suppress(fn func()) {
	prev := m.suppressed
	m.suppressed = true
	defer func() { m.suppressed = prev }()
	fn()
}

func (m *Manager) Suppressed() bool { return m.suppressed }
func (m *Manager) CanUndo() bool    { return len(m.past) > 0 }
func (m *Manager) CanRedo() bool    { return len(m.future) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (m *Manager) Len() (past, future int) { return len(m.past), len(m.future) }

// SetLimit changes the bound, dropping the oldest undo steps past it.
func (m *Manager) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	m.limit = limit
	if over := len(m.past) - limit; over > 0 {
		m.past = append(m.past[:0:0], m.past[over:]...)
	}
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.past, m.future = nil, nil
}

type wire struct {
	Limit  int        `json:"limit"`
	Past   []Snapshot `json:"past"`
	Future []Snapshot `json:"future"`
}

func (m *Manager) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Limit: m.limit, Past: m.past, Future: m.future})
}

func (m *Manager) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Limit <= 0 {
		w.Limit = DefaultLimit
	}
	m.limit = w.Limit
	m.past, m.future = w.Past, w.Future
	if over := len(m.past) - m.limit; over > 0 {
		m.past = m.past[over:]
	}
	return nil
}
