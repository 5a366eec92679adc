package store

import (
	"encoding/json"
	"fmt"

	"github.com/msalah0e/skilltree/internal/graph"
)

// rawNode accepts the boolean completion flag older files carry instead
// of a state.
type rawNode struct {
	graph.Node
	Completed *bool `json:"completed,omitempty"`
}

type rawTree struct {
	Name  string            `json:"name"`
	Nodes []json.RawMessage `json:"nodes"`
	Edges []graph.Edge      `json:"edges"`
}

// rawSettings is the union of the current layout and the single-tree one,
// where nodes and edges sat at the top level.
type rawSettings struct {
	Trees           map[string]rawTree `json:"trees"`
	CurrentTreeName string             `json:"currentTreeName"`
	Nodes           []json.RawMessage  `json:"nodes"`
	Edges           []graph.Edge       `json:"edges"`
}

func decodeNode(data json.RawMessage) (graph.Node, error) {
	var rn rawNode
	if err := json.Unmarshal(data, &rn); err != nil {
		return graph.Node{}, err
	}
	n := rn.Node
	if n.State == "" && rn.Completed != nil {
		n.State = graph.StateInProgress
		if *rn.Completed {
			n.State = graph.StateComplete
		}
	}
	return n, nil
}

// tree builds a normalized tree named name. Missing states default,
// missing edge ids are assigned.
func (r rawTree) tree(name string) (*graph.Tree, error) {
	t := newTree(name)
	for i, raw := range r.Nodes {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("tree %q node %d: %w", name, i, err)
		}
		t.Nodes = append(t.Nodes, n)
	}
	t.Edges = append(t.Edges, r.Edges...)
	t.Normalize()
	return t, nil
}

func decodeSettings(data []byte) (Settings, error) {
	var raw rawSettings
	if err := json.Unmarshal(data, &raw); err != nil {
		return Settings{}, err
	}
	s := Settings{Trees: make(map[string]*graph.Tree, len(raw.Trees)), CurrentTreeName: raw.CurrentTreeName}
	for name, rt := range raw.Trees {
		t, err := rt.tree(name)
		if err != nil {
			return Settings{}, err
		}
		s.Trees[name] = t
	}
	if len(raw.Nodes) > 0 || len(raw.Edges) > 0 {
		if _, ok := s.Trees[DefaultTree]; !ok {
			t, err := rawTree{Nodes: raw.Nodes, Edges: raw.Edges}.tree(DefaultTree)
			if err != nil {
				return Settings{}, err
			}
			s.Trees[DefaultTree] = t
			if s.CurrentTreeName == "" {
				s.CurrentTreeName = DefaultTree
			}
		}
	}
	return s, nil
}
