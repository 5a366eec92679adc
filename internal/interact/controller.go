package interact

import (
	"context"
	"math"
	"strings"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/ctxlog"
	"github.com/msalah0e/skilltree/internal/editor"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
)

// TaskRef points at one task of a node.
type TaskRef struct {
	Node  int `json:"node"`
	Index int `json:"index"`
}

// Selection is at most one node, edge or task.
type Selection struct {
	Node *int     `json:"node,omitempty"`
	Edge *float64 `json:"edge,omitempty"`
	Task *TaskRef `json:"task,omitempty"`
}

type dragKind int

const (
	dragNone dragKind = iota
	dragPan
	dragNode
	dragEndpoint
	dragHandle
)

type dragState struct {
	kind  dragKind
	node  int
	side  geom.Side
	edge  graph.Edge
	end   editor.End
	grab  geom.Point
	last  geom.Point
	moved bool
}

// Controller dispatches input events onto an editor. It is not safe for
// concurrent use; events must be delivered one at a time in order.
type Controller struct {
	Editor *editor.Editor
	Layout *Layout
	View   Viewport
	Cfg    config.InteractionConfig
	Sel    Selection

	drag   dragState
	cursor geom.Point
}

// NewController wires a layout to an editor so its orbit cache follows node
// id changes.
func NewController(ed *editor.Editor, layout *Layout, cfg config.InteractionConfig) *Controller {
	ed.Track(layout)
	return &Controller{Editor: ed, Layout: layout, View: NewViewport(), Cfg: cfg}
}

// Dispatch applies one event and reports whether the canvas needs a redraw.
func (c *Controller) Dispatch(ctx context.Context, ev Event) bool {
	switch ev := ev.(type) {
	case PointerDown:
		return c.pointerDown(ctx, ev)
	case PointerMove:
		return c.pointerMove(ev)
	case PointerUp:
		return c.pointerUp(ctx, ev)
	case KeyDown:
		return c.keyDown(ctx, ev)
	case Wheel:
		c.View.ZoomAt(ev.Screen, math.Exp(-ev.DeltaY*0.001))
		return true
	}
	return false
}

func (c *Controller) pointerDown(ctx context.Context, ev PointerDown) bool {
	c.cancel()
	w := c.View.ToWorld(ev.Screen)
	c.cursor = w
	c.drag = dragState{last: ev.Screen}
	log := ctxlog.FromContext(ctx)

	h := c.HitTest(w)
	switch h.Kind {
	case HitTaskCheckbox:
		if err := c.Editor.ToggleTask(ctx, h.NodeID, h.Task); err != nil {
			log.Warn("toggle task", "node", h.NodeID, "task", h.Task, "err", err)
		}
	case HitTask:
		c.Sel = Selection{Task: &TaskRef{Node: h.NodeID, Index: h.Task}}
	case HitEdgeEndpoint:
		c.selectEdge(h.EdgeID)
		c.beginEndpointDrag(h.EdgeID, h.End)
	case HitEdgeBody:
		c.selectEdge(h.EdgeID)
		end := editor.EndFrom
		if r, ok := c.route(h.EdgeID); ok && w.Dist(r.End) < w.Dist(r.Start) {
			end = editor.EndTo
		}
		c.beginEndpointDrag(h.EdgeID, end)
	case HitNodeCheckbox:
		c.selectNode(h.NodeID)
		if err := c.Editor.SetState(h.NodeID, graph.StateComplete); err != nil {
			log.Warn("complete node", "node", h.NodeID, "err", err)
		}
	case HitHandle:
		c.drag.kind, c.drag.node, c.drag.side = dragHandle, h.NodeID, h.Side
	case HitNode:
		c.selectNode(h.NodeID)
		if n := c.Editor.Graph.Node(h.NodeID); n != nil {
			c.drag.kind, c.drag.node = dragNode, n.ID
			c.drag.grab = n.Pos().Sub(w)
		}
	default:
		c.Sel = Selection{}
		c.drag.kind = dragPan
	}
	return true
}

func (c *Controller) selectNode(id int) { c.Sel = Selection{Node: &id} }

func (c *Controller) selectEdge(id float64) { c.Sel = Selection{Edge: &id} }

func (c *Controller) beginEndpointDrag(id float64, end editor.End) {
	e := c.Editor.Graph.EdgeByID(id)
	if e == nil {
		return
	}
	c.drag.kind, c.drag.edge, c.drag.end = dragEndpoint, e.Clone(), end
}

func (c *Controller) pointerMove(ev PointerMove) bool {
	w := c.View.ToWorld(ev.Screen)
	c.cursor = w
	defer func() { c.drag.last = ev.Screen }()

	switch c.drag.kind {
	case dragNode:
		if !c.drag.moved {
			c.Editor.Checkpoint()
			c.drag.moved = true
		}
		c.Editor.PlaceNode(c.drag.node, w.Add(c.drag.grab))
	case dragEndpoint:
		e := c.Editor.Graph.EdgeByID(c.drag.edge.ID)
		if e == nil {
			c.drag = dragState{}
			return true
		}
		c.drag.moved = true
		if c.drag.end == editor.EndFrom {
			e.FromX, e.FromY = graph.Ref(w.X), graph.Ref(w.Y)
		} else {
			e.ToX, e.ToY = graph.Ref(w.X), graph.Ref(w.Y)
		}
	case dragHandle:
		c.drag.moved = true
	case dragPan:
		c.View.Pan(ev.Screen.Sub(c.drag.last))
	default:
		return false
	}
	return true
}

func (c *Controller) pointerUp(ctx context.Context, ev PointerUp) bool {
	w := c.View.ToWorld(ev.Screen)
	c.cursor = w
	d := c.drag
	c.drag = dragState{}
	log := ctxlog.FromContext(ctx)

	switch d.kind {
	case dragEndpoint:
		if !d.moved {
			return true
		}
		c.restoreEdge(d.edge)
		target, side, ok := c.dropTarget(w)
		if !ok {
			if err := c.Editor.DeleteEdge(d.edge.ID); err != nil {
				log.Warn("delete edge", "edge", d.edge.ID, "err", err)
			}
			c.Sel = Selection{}
			return true
		}
		cur, curSide := d.edge.To, d.edge.ToSide
		if d.end == editor.EndFrom {
			cur, curSide = d.edge.From, d.edge.FromSide
		}
		if cur != nil && *cur == target && curSide == side {
			return true
		}
		if err := c.Editor.Reroute(d.edge.ID, d.end, target, side); err != nil {
			log.Debug("reroute rejected", "edge", d.edge.ID, "end", d.end, "target", target, "err", err)
		}
	case dragHandle:
		if !d.moved {
			return true
		}
		target, side, ok := c.dropTarget(w)
		if !ok || target == d.node {
			return true
		}
		if _, err := c.Editor.Connect(d.node, target, d.side, side); err != nil {
			log.Debug("connect rejected", "from", d.node, "to", target, "err", err)
		}
	case dragNone:
		return false
	}
	return true
}

// restoreEdge puts back the edge as it was before an endpoint drag.
func (c *Controller) restoreEdge(orig graph.Edge) {
	for i := range c.Editor.Graph.Edges {
		if c.Editor.Graph.Edges[i].ID == orig.ID {
			c.Editor.Graph.Edges[i] = orig.Clone()
			return
		}
	}
}

// cancel abandons any drag in progress.
func (c *Controller) cancel() {
	if c.drag.kind == dragEndpoint && c.drag.moved {
		c.restoreEdge(c.drag.edge)
	}
	c.drag = dragState{}
}

func (c *Controller) keyDown(ctx context.Context, ev KeyDown) bool {
	key := strings.ToLower(ev.Key)
	switch {
	case ev.Mods.Command() && key == "z" && !ev.Mods.Shift:
		c.cancel()
		c.Sel = Selection{}
		return c.Editor.Undo(ctx)
	case ev.Mods.Command() && (key == "y" || key == "z"):
		c.cancel()
		c.Sel = Selection{}
		return c.Editor.Redo(ctx)
	case key == "delete" || key == "backspace":
		return c.deleteSelection(ctx)
	case key == "escape":
		c.cancel()
		c.Sel = Selection{}
		return true
	}
	return false
}

func (c *Controller) deleteSelection(ctx context.Context) bool {
	log := ctxlog.FromContext(ctx)
	sel := c.Sel
	c.Sel = Selection{}
	switch {
	case sel.Edge != nil:
		if err := c.Editor.DeleteEdge(*sel.Edge); err != nil {
			log.Warn("delete edge", "edge", *sel.Edge, "err", err)
			return false
		}
	case sel.Node != nil:
		if err := c.Editor.DeleteNode(*sel.Node); err != nil {
			log.Warn("delete node", "node", *sel.Node, "err", err)
			return false
		}
	default:
		return false
	}
	return true
}

// Preview is the connector being drawn out of a handle, if any.
func (c *Controller) Preview() (from, to geom.Point, ok bool) {
	if c.drag.kind != dragHandle || !c.drag.moved {
		return geom.Point{}, geom.Point{}, false
	}
	n := c.Editor.Graph.Node(c.drag.node)
	if n == nil {
		return geom.Point{}, geom.Point{}, false
	}
	return c.Layout.Handle(*n, c.drag.side), c.cursor, true
}
