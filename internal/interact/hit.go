package interact

import (
	"math"

	"github.com/msalah0e/skilltree/internal/editor"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
)

// HitKind is what a pointer landed on. The order of the constants is the
// order in which targets are tried.
type HitKind int

const (
	HitNone HitKind = iota
	HitTaskCheckbox
	HitTask
	HitEdgeEndpoint
	HitEdgeBody
	HitNodeCheckbox
	HitHandle
	HitNode
)

var hitNames = [...]string{"none", "task-checkbox", "task", "edge-endpoint", "edge-body", "node-checkbox", "handle", "node"}

func (k HitKind) String() string {
	if k < 0 || int(k) >= len(hitNames) {
		return "unknown"
	}
	return hitNames[k]
}

// Hit is the result of a hit test. Only the fields relevant to Kind are set.
type Hit struct {
	Kind   HitKind
	NodeID int
	EdgeID float64
	End    editor.End
	Side   geom.Side
	Task   int
}

func inBox(p, center geom.Point, half float64) bool {
	return math.Abs(p.X-center.X) <= half && math.Abs(p.Y-center.Y) <= half
}

// Routes lays out every drawable edge. Edges naming missing nodes are
// skipped.
func (c *Controller) Routes() []Route {
	g := c.Editor.Graph
	out := make([]Route, 0, len(g.Edges))
	for _, e := range g.Edges {
		if r, ok := c.Layout.Route(g, e); ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller) route(id float64) (Route, bool) {
	e := c.Editor.Graph.EdgeByID(id)
	if e == nil {
		return Route{}, false
	}
	return c.Layout.Route(c.Editor.Graph, *e)
}

// TaskMarkers returns the orbit positions of a node's tasks.
func (c *Controller) TaskMarkers(n graph.Node) []geom.Point {
	ts, _ := c.Editor.Tasks.Get(n.ID)
	return c.Layout.TaskPositions(n, len(ts))
}

// HasCheckbox reports whether a node shows the interior checkbox: it is
// workable and has no tasks to complete instead.
func (c *Controller) HasCheckbox(n graph.Node) bool {
	return n.State == graph.StateInProgress && !c.Editor.Tasks.Has(n.ID)
}

// HitTest resolves a world point against everything on the canvas, in
// priority order. Later nodes are drawn on top and win ties.
func (c *Controller) HitTest(p geom.Point) Hit {
	g := c.Editor.Graph

	if t := c.Sel.Task; t != nil {
		if n := g.Node(t.Node); n != nil {
			if pts := c.TaskMarkers(*n); t.Index >= 0 && t.Index < len(pts) {
				if inBox(p, TaskCheckbox(pts[t.Index]), CheckboxSize/2) {
					return Hit{Kind: HitTaskCheckbox, NodeID: n.ID, Task: t.Index}
				}
			}
		}
	}

	for i := len(g.Nodes) - 1; i >= 0; i-- {
		n := g.Nodes[i]
		for k, tp := range c.TaskMarkers(n) {
			if p.Dist(tp) <= TaskRadius {
				return Hit{Kind: HitTask, NodeID: n.ID, Task: k}
			}
		}
	}

	routes := c.Routes()
	endTol := c.View.Pixels(c.Cfg.EndpointHit)
	for i := len(routes) - 1; i >= 0; i-- {
		r := routes[i]
		if p.Dist(r.End) <= endTol {
			return Hit{Kind: HitEdgeEndpoint, EdgeID: r.EdgeID, End: editor.EndTo}
		}
		if p.Dist(r.Start) <= endTol {
			return Hit{Kind: HitEdgeEndpoint, EdgeID: r.EdgeID, End: editor.EndFrom}
		}
	}
	edgeTol := c.View.Pixels(c.Cfg.EdgeHit)
	for i := len(routes) - 1; i >= 0; i-- {
		if routes[i].Dist2(p) <= edgeTol*edgeTol {
			return Hit{Kind: HitEdgeBody, EdgeID: routes[i].EdgeID}
		}
	}

	for i := len(g.Nodes) - 1; i >= 0; i-- {
		n := g.Nodes[i]
		if c.HasCheckbox(n) && inBox(p, n.Pos(), CheckboxSize/2) {
			return Hit{Kind: HitNodeCheckbox, NodeID: n.ID}
		}
	}

	if c.Layout.Canvas.ShowHandles {
		tol := c.View.Pixels(c.Cfg.HandleTolerance)
		for i := len(g.Nodes) - 1; i >= 0; i-- {
			n := g.Nodes[i]
			for _, side := range geom.Sides {
				if inBox(p, c.Layout.Handle(n, side), tol) {
					return Hit{Kind: HitHandle, NodeID: n.ID, Side: side}
				}
			}
		}
	}

	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if n := g.Nodes[i]; c.Layout.Contains(n, p) {
			return Hit{Kind: HitNode, NodeID: n.ID}
		}
	}
	return Hit{}
}

// dropTarget is where a dragged connector end lands: the nearest handle
// within the snap distance, else the topmost node under p.
func (c *Controller) dropTarget(p geom.Point) (int, geom.Side, bool) {
	g := c.Editor.Graph
	snap := c.View.Pixels(c.Cfg.HandleSnap)
	best := math.Inf(1)
	var (
		id    int
		side  geom.Side
		found bool
	)
	for _, n := range g.Nodes {
		for _, s := range geom.Sides {
			if d := p.Dist(c.Layout.Handle(n, s)); d <= snap && d < best {
				best, id, side, found = d, n.ID, s, true
			}
		}
	}
	if found {
		return id, side, true
	}
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if n := g.Nodes[i]; c.Layout.Contains(n, p) {
			return n.ID, geom.SideNone, true
		}
	}
	return 0, geom.SideNone, false
}
