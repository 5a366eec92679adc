// Package rules derives node lifecycle states from the graph topology and the
// completion of each node's linked tasks.
//
// A pass applies four ordered rules; a later rule may override an earlier one
// for the same node. A node that is already complete stays complete under
// every rule, so completion only ever comes from the user or from the task
// override. The pass is a fixed point: running it twice changes nothing the
// second time.
package rules

import (
	"github.com/msalah0e/skilltree/internal/graph"
)

// Progress reports how many of a node's tasks are done. ok is false when no
// task list is known for the node.
type Progress interface {
	Progress(id int) (done, total int, ok bool)
}

// NoTasks is a Progress with no task lists.
type NoTasks struct{}

func (NoTasks) Progress(int) (int, int, bool) { return 0, 0, false }

func allDone(p Progress, id int) bool {
	if p == nil {
		return false
	}
	done, total, ok := p.Progress(id)
	return ok && total > 0 && done == total
}

// setUnlessComplete assigns s unless the node is complete.
func setUnlessComplete(n *graph.Node, s graph.State) {
	if n.State != graph.StateComplete {
		n.State = s
	}
}

// Apply runs one full propagation pass over g and returns the ids whose state
// changed, in node order.
func Apply(g *graph.Graph, p Progress) []int {
	before := make(map[int]graph.State, len(g.Nodes))
	for _, n := range g.Nodes {
		before[n.ID] = n.State
	}

	applyOrphans(g, p)
	applyAncestors(g)
	applyChildren(g)

	var changed []int
	for _, n := range g.Nodes {
		if before[n.ID] != n.State {
			changed = append(changed, n.ID)
		}
	}
	return changed
}

// applyOrphans handles nodes with no edges at all. Such a node completes when
// every one of its tasks is done and is otherwise unavailable. Edges naming
// missing nodes still count as connections, so no node reaching the
// "has children, keep the state" guard can have children; the guard is purely
// defensive.
func applyOrphans(g *graph.Graph, p Progress) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if g.HasAnyConnection(n.ID) {
			continue
		}
		if len(g.ChildrenOf(n.ID)) > 0 {
			continue
		}
		if allDone(p, n.ID) {
			n.State = graph.StateComplete
			continue
		}
		setUnlessComplete(n, graph.StateUnavailable)
	}
}

// applyAncestors walks every child→parent edge: the child becomes workable,
// and everything above the parent is locked until the parent is done.
func applyAncestors(g *graph.Graph) {
	for _, e := range g.Edges {
		from, to, ok := e.Ends()
		if !ok {
			continue
		}
		child, parent := g.Node(from), g.Node(to)
		if child == nil || parent == nil {
			continue
		}
		setUnlessComplete(child, graph.StateInProgress)
		lockAncestors(g, to)
	}
}

// lockAncestors marks every transitive parent of start unavailable. The
// visited set keeps cyclic edge sets from looping.
func lockAncestors(g *graph.Graph, start int) {
	visited := map[int]bool{start: true}
	stack := g.ParentsOf(start)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		if n := g.Node(id); n != nil {
			setUnlessComplete(n, graph.StateUnavailable)
		}
		stack = append(stack, g.ParentsOf(id)...)
	}
}

// applyChildren promotes a node to in-progress once all of its children are
// complete and locks it otherwise. Completion itself still has to come from
// the user or the node's tasks.
func applyChildren(g *graph.Graph) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		children := g.ChildrenOf(n.ID)
		if len(children) == 0 {
			continue
		}
		all := true
		for _, c := range children {
			if cn := g.Node(c); cn == nil || cn.State != graph.StateComplete {
				all = false
				break
			}
		}
		if all {
			setUnlessComplete(n, graph.StateInProgress)
		} else {
			setUnlessComplete(n, graph.StateUnavailable)
		}
	}
}

// ApplyTaskCompletion forces node id complete when it has at least one task
// and all of them are done, then re-runs the pass since the nodes above it
// depend on its state. It reports whether the node was forced.
func ApplyTaskCompletion(g *graph.Graph, id int, p Progress) (bool, []int) {
	n := g.Node(id)
	if n == nil || !allDone(p, id) {
		return false, Apply(g, p)
	}
	forced := n.State != graph.StateComplete
	n.State = graph.StateComplete
	changed := Apply(g, p)
	if forced {
		changed = appendMissing(changed, id)
	}
	return forced, changed
}

func appendMissing(ids []int, id int) []int {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
