// Package editor is the single entry point for changing a skill tree. Every
// user-visible mutation records history first, then changes the graph, then
// re-runs state propagation before returning, so callers never observe a
// topology change without its derived states.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/history"
	"github.com/msalah0e/skilltree/internal/rules"
	"github.com/msalah0e/skilltree/internal/tasks"
)

var (
	ErrStateNotSelectable = errors.New("state is not user-selectable")
	ErrInvalidExp         = errors.New("exp must be zero or more")
	ErrNoDocument         = errors.New("node has no linked document")
	ErrTaskNotFound       = errors.New("task not found")
)

// Cache is a per-node cache that has to follow id changes.
type Cache interface {
	Rekey(oldID, newID int)
	Delete(id int)
	Clear()
}

// Watcher registers linked documents for change notifications.
type Watcher interface {
	Watch(id int, path string) error
	Unwatch(id int)
	Rekey(oldID, newID int)
}

// Documents reads and writes linked documents.
type Documents interface {
	Path(link string) string
	Read(ctx context.Context, link string) (string, error)
	Write(ctx context.Context, link, content string) error
}

// Options tunes an Editor. Zero values fall back to defaults.
type Options struct {
	HistoryLimit    int
	Settle          time.Duration
	Concurrency     int
	CollisionMargin float64
	Radius          func(graph.Node) float64 // sizes nodes for collision avoidance
	Logger          *slog.Logger
	Seed            uint64
}

const defaultRadius = 20

// Editor owns one tree's graph together with its history and caches.
type Editor struct {
	Graph   *graph.Graph
	History *history.Manager
	Tasks   *tasks.Cache

	docs    Documents
	lists   tasks.Provider
	watch   Watcher
	caches  []Cache
	opts    Options
	log     *slog.Logger
	rnd     *rand.Rand
	watched map[int]bool
}

// New wraps g. docs and watch may be nil; without documents nodes simply
// have no tasks.
func New(g *graph.Graph, docs Documents, watch Watcher, opts Options) *Editor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.CollisionMargin <= 0 {
		opts.CollisionMargin = geom.DefaultMargin
	}
	if opts.Radius == nil {
		opts.Radius = func(graph.Node) float64 { return defaultRadius }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if g == nil {
		g = graph.New()
	}
	e := &Editor{
		Graph:   g,
		History: history.New(opts.HistoryLimit),
		Tasks:   tasks.NewCache(),
		docs:    docs,
		watch:   watch,
		opts:    opts,
		log:     opts.Logger,
		rnd:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		watched: map[int]bool{},
	}
	if p, ok := docs.(tasks.Provider); ok {
		e.lists = p
	} else if docs != nil {
		e.lists = parsed{docs}
	}
	e.Graph.Normalize()
	e.resolveDuplicates()
	e.propagate()
	e.watchLinked()
	return e
}

// Track adds a cache that must be rekeyed and cleared alongside the task
// cache.
func (e *Editor) Track(c Cache) { e.caches = append(e.caches, c) }

func (e *Editor) propagate() []int {
	return rules.Apply(e.Graph, e.Tasks)
}

// Checkpoint records the current graph. Interactive drags call it once at
// drag start and then move the node freely.
func (e *Editor) Checkpoint() { e.History.Record(e.Graph) }

// Batch runs fn as one undoable step. The graph is recorded once up front
// and the mutations inside fn record nothing.
func (e *Editor) Batch(fn func() error) error {
	e.Checkpoint()
	var err error
	e.History.Suppress(func() { err = fn() })
	return err
}

func (e *Editor) node(id int) (*graph.Node, error) {
	n := e.Graph.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %d", graph.ErrNodeNotFound, id)
	}
	return n, nil
}

// AddNode creates a node at (x, y), nudged clear of its neighbours.
func (e *Editor) AddNode(x, y float64, shape graph.Shape) (graph.Node, error) {
	if shape != "" && !shape.Valid() {
		return graph.Node{}, fmt.Errorf("unknown shape %q", shape)
	}
	e.Checkpoint()
	n, err := e.Graph.AddNode(graph.Node{X: x, Y: y, State: graph.StateInProgress, Shape: shape})
	if err != nil {
		return graph.Node{}, err
	}
	e.PlaceNode(n.ID, geom.Pt(x, y))
	e.propagate()
	return *e.Graph.Node(n.ID), nil
}

// DeleteNode removes a node, its edges and everything cached for it.
func (e *Editor) DeleteNode(id int) error {
	if _, err := e.node(id); err != nil {
		return err
	}
	e.Checkpoint()
	touched := e.Graph.Neighbors(id)
	if err := e.Graph.RemoveNode(id); err != nil {
		return err
	}
	e.forget(id)
	e.lockDisconnected(touched...)
	e.propagate()
	return nil
}

func (e *Editor) forget(id int) {
	e.Tasks.Delete(id)
	for _, c := range e.caches {
		c.Delete(id)
	}
	if e.watch != nil && e.watched[id] {
		e.watch.Unwatch(id)
	}
	delete(e.watched, id)
}

// MoveNode places a node as a single undoable step.
func (e *Editor) MoveNode(id int, x, y float64) (geom.Point, error) {
	if _, err := e.node(id); err != nil {
		return geom.Point{}, err
	}
	e.Checkpoint()
	return e.PlaceNode(id, geom.Pt(x, y)), nil
}

// PlaceNode moves a node as close to target as collision avoidance allows
// and re-sides every edge touching it. It does not record history.
func (e *Editor) PlaceNode(id int, target geom.Point) geom.Point {
	n := e.Graph.Node(id)
	if n == nil {
		return target
	}
	bodies := make([]geom.Body, 0, len(e.Graph.Nodes))
	for _, o := range e.Graph.Nodes {
		if o.ID == id {
			continue
		}
		bodies = append(bodies, geom.Body{ID: o.ID, Center: o.Pos(), R: e.opts.Radius(o)})
	}
	p := geom.FindNonOverlappingPosition(target, id, e.opts.Radius(*n), bodies, e.opts.CollisionMargin, e.rnd)
	n.X, n.Y = p.X, p.Y
	e.resideEdges(id)
	return p
}

// resideEdges points both ends of every edge touching id at the nearest
// cardinal side of the other end.
func (e *Editor) resideEdges(id int) {
	for i := range e.Graph.Edges {
		ed := &e.Graph.Edges[i]
		if !ed.Touches(id) {
			continue
		}
		from, to, ok := ed.Ends()
		if !ok {
			continue
		}
		a, b := e.Graph.Node(from), e.Graph.Node(to)
		if a == nil || b == nil {
			continue
		}
		ed.FromSide = graph.SideBetween(*a, *b)
		ed.ToSide = graph.SideBetween(*b, *a)
	}
}

// Connect adds an edge from child to parent. Empty sides are chosen from the
// node positions.
func (e *Editor) Connect(from, to int, fromSide, toSide geom.Side) (graph.Edge, error) {
	if err := e.Graph.ValidateEdge(from, to, math.NaN()); err != nil {
		return graph.Edge{}, err
	}
	a, b := e.Graph.Node(from), e.Graph.Node(to)
	if fromSide == geom.SideNone {
		fromSide = graph.SideBetween(*a, *b)
	}
	if toSide == geom.SideNone {
		toSide = graph.SideBetween(*b, *a)
	}
	e.Checkpoint()
	ed, err := e.Graph.AddEdge(from, to, fromSide, toSide)
	if err != nil {
		return graph.Edge{}, err
	}
	e.propagate()
	return ed, nil
}

// End names one end of an edge.
type End int

const (
	EndFrom End = iota
	EndTo
)

func (end End) String() string {
	if end == EndTo {
		return "to"
	}
	return "from"
}

// Reroute moves one end of an edge to node target, attaching on side. When
// the new link would be invalid the edge is left as it was and the error
// returned. A node that loses its last connection is locked.
func (e *Editor) Reroute(edgeID float64, end End, target int, side geom.Side) error {
	ed := e.Graph.EdgeByID(edgeID)
	if ed == nil {
		return fmt.Errorf("%w: %v", graph.ErrEdgeNotFound, edgeID)
	}
	from, to, ok := ed.Ends()
	if !ok {
		return fmt.Errorf("%w: %v", graph.ErrIncompleteEdge, edgeID)
	}
	prev := from
	if end == EndFrom {
		from = target
	} else {
		prev = to
		to = target
	}
	if err := e.Graph.ValidateEdge(from, to, edgeID); err != nil {
		return err
	}

	e.Checkpoint()
	ed = e.Graph.EdgeByID(edgeID)
	if end == EndFrom {
		ed.From, ed.FromSide = graph.Ref(target), side
		ed.FromX, ed.FromY = nil, nil
	} else {
		ed.To, ed.ToSide = graph.Ref(target), side
		ed.ToX, ed.ToY = nil, nil
	}
	if side == geom.SideNone {
		a, b := e.Graph.Node(from), e.Graph.Node(to)
		if end == EndFrom {
			ed.FromSide = graph.SideBetween(*a, *b)
		} else {
			ed.ToSide = graph.SideBetween(*b, *a)
		}
	}
	e.lockDisconnected(prev)
	e.propagate()
	return nil
}

// DeleteEdge removes an edge; either end left without connections is locked.
func (e *Editor) DeleteEdge(edgeID float64) error {
	ed := e.Graph.EdgeByID(edgeID)
	if ed == nil {
		return fmt.Errorf("%w: %v", graph.ErrEdgeNotFound, edgeID)
	}
	var ends []int
	if ed.From != nil {
		ends = append(ends, *ed.From)
	}
	if ed.To != nil {
		ends = append(ends, *ed.To)
	}
	e.Checkpoint()
	if err := e.Graph.RemoveEdge(edgeID); err != nil {
		return err
	}
	e.lockDisconnected(ends...)
	e.propagate()
	return nil
}

func (e *Editor) lockDisconnected(ids ...int) {
	for _, id := range ids {
		if n := e.Graph.Node(id); n != nil && !e.Graph.HasAnyConnection(id) {
			n.State = graph.StateUnavailable
		}
	}
}

// SetState is the user override. Only complete and in-progress can be
// chosen; unavailable is always derived.
func (e *Editor) SetState(id int, s graph.State) error {
	if s != graph.StateComplete && s != graph.StateInProgress {
		return fmt.Errorf("%w: %q", ErrStateNotSelectable, s)
	}
	n, err := e.node(id)
	if err != nil {
		return err
	}
	e.Checkpoint()
	n.State = s
	e.propagate()
	return nil
}

// SetExp sets or, with nil, clears the experience value.
func (e *Editor) SetExp(id int, exp *int) error {
	if exp != nil && *exp < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidExp, *exp)
	}
	n, err := e.node(id)
	if err != nil {
		return err
	}
	e.Checkpoint()
	n.Exp = nil
	if exp != nil {
		n.Exp = graph.Ref(*exp)
	}
	return nil
}

func (e *Editor) SetShape(id int, shape graph.Shape) error {
	if shape != "" && !shape.Valid() {
		return fmt.Errorf("unknown shape %q", shape)
	}
	n, err := e.node(id)
	if err != nil {
		return err
	}
	e.Checkpoint()
	n.Shape = shape
	return nil
}

// ReassignID renames a node. Edges, the task cache, tracked caches and the
// watcher registry move to the new id in the same step.
func (e *Editor) ReassignID(oldID, newID int) error {
	if _, err := e.node(oldID); err != nil {
		return err
	}
	if oldID != newID && e.Graph.HasNode(newID) {
		return fmt.Errorf("%w: %d", graph.ErrDuplicateNode, newID)
	}
	e.Checkpoint()
	if err := e.Graph.ReassignNodeID(oldID, newID); err != nil {
		return err
	}
	e.rekey(oldID, newID)
	return nil
}

func (e *Editor) rekey(oldID, newID int) {
	if oldID == newID {
		return
	}
	e.Tasks.Rekey(oldID, newID)
	for _, c := range e.caches {
		c.Rekey(oldID, newID)
	}
	if e.watched[oldID] {
		if e.watch != nil {
			e.watch.Rekey(oldID, newID)
		}
		delete(e.watched, oldID)
		e.watched[newID] = true
	}
}

// ResolveDuplicateIDs repairs repeated node ids, typically after the
// settings file was edited by hand.
func (e *Editor) ResolveDuplicateIDs() []graph.Rename {
	renames := e.resolveDuplicates()
	if len(renames) > 0 {
		e.propagate()
	}
	return renames
}

func (e *Editor) resolveDuplicates() []graph.Rename {
	renames := e.Graph.ResolveDuplicateIDs()
	for _, r := range renames {
		e.log.Warn("duplicate node id reassigned", "old", r.Old, "new", r.New)
		n := e.Graph.Nodes[r.Index]
		if n.FileLink != "" {
			e.watchNode(n)
		}
	}
	return renames
}

// Undo restores the graph from before the last recorded mutation. Caches
// are reconciled with the restored ids and links before it returns.
func (e *Editor) Undo(ctx context.Context) bool {
	before := e.links()
	if !e.History.Undo(e.Graph) {
		return false
	}
	e.reconcile(ctx, before)
	return true
}

// Redo reapplies the last undone mutation.
func (e *Editor) Redo(ctx context.Context) bool {
	before := e.links()
	if !e.History.Redo(e.Graph) {
		return false
	}
	e.reconcile(ctx, before)
	return true
}

// links maps every node id to its document link.
func (e *Editor) links() map[int]string {
	m := make(map[int]string, len(e.Graph.Nodes))
	for _, n := range e.Graph.Nodes {
		m[n.ID] = n.FileLink
	}
	return m
}

// reconcile follows a whole-graph restore. Entries for ids that vanished or
// whose link changed are dropped, then linked nodes without cached tasks are
// read again.
func (e *Editor) reconcile(ctx context.Context, before map[int]string) {
	after := e.links()
	for id, link := range before {
		if now, ok := after[id]; !ok || now != link {
			e.Tasks.Delete(id)
			for _, c := range e.caches {
				c.Delete(id)
			}
		}
	}
	for _, id := range e.Tasks.Keys() {
		if after[id] == "" {
			e.Tasks.Delete(id)
		}
	}
	e.watchLinked()
	if e.docs == nil {
		return
	}
	for _, n := range e.Graph.Nodes {
		if _, cached := e.Tasks.Get(n.ID); n.FileLink == "" || cached {
			continue
		}
		if err := e.RefreshTasks(ctx, n.ID); err != nil {
			e.log.Warn("reload tasks after restore", "node", n.ID, "err", err)
		}
	}
}

// Reset swaps in another tree. Every cache and watcher of the outgoing tree
// is torn down first and history starts empty.
func (e *Editor) Reset(g *graph.Graph) {
	e.teardown()
	if g == nil {
		g = graph.New()
	}
	e.Graph = g
	e.History = history.New(e.opts.HistoryLimit)
	e.Graph.Normalize()
	e.resolveDuplicates()
	e.propagate()
	e.watchLinked()
}

// Close releases every watcher registration.
func (e *Editor) Close() { e.teardown() }

func (e *Editor) teardown() {
	if e.watch != nil {
		for id := range e.watched {
			e.watch.Unwatch(id)
		}
	}
	e.watched = map[int]bool{}
	e.Tasks.Clear()
	for _, c := range e.caches {
		c.Clear()
	}
}
