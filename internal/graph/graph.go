package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/msalah0e/skilltree/internal/geom"
)

var (
	ErrNodeNotFound   = errors.New("graph: node not found")
	ErrEdgeNotFound   = errors.New("graph: edge not found")
	ErrSelfLoop       = errors.New("graph: edge would connect a node to itself")
	ErrDuplicateEdge  = errors.New("graph: edge already exists")
	ErrDuplicateNode  = errors.New("graph: node id already in use")
	ErrIncompleteEdge = errors.New("graph: edge is missing an endpoint")
)

// State is the lifecycle state of a node.
type State string

const (
	StateComplete    State = "complete"
	StateInProgress  State = "in-progress"
	StateUnavailable State = "unavailable"
)

// ParseState accepts the canonical names plus a few spellings found in older
// settings files.
func ParseState(s string) (State, error) {
	switch s {
	case "complete", "completed", "done":
		return StateComplete, nil
	case "in-progress", "inprogress", "in_progress", "active":
		return StateInProgress, nil
	case "unavailable", "locked":
		return StateUnavailable, nil
	}
	return "", fmt.Errorf("unknown state %q", s)
}

func (s State) Valid() bool {
	return s == StateComplete || s == StateInProgress || s == StateUnavailable
}

// Shape is how a node is drawn and hit-tested.
type Shape string

const (
	ShapeCircle  Shape = "circle"
	ShapeSquare  Shape = "square"
	ShapeHexagon Shape = "hexagon"
	ShapeDiamond Shape = "diamond"
	ShapeStar    Shape = "star"
)

// Shapes lists every supported shape.
var Shapes = []Shape{ShapeCircle, ShapeSquare, ShapeHexagon, ShapeDiamond, ShapeStar}

func ParseShape(s string) (Shape, error) {
	for _, sh := range Shapes {
		if string(sh) == s {
			return sh, nil
		}
	}
	return "", fmt.Errorf("unknown shape %q", s)
}

func (s Shape) Valid() bool {
	_, err := ParseShape(string(s))
	return err == nil
}

// Boxy reports whether the shape hit-tests against its bounding box.
func (s Shape) Boxy() bool { return s == ShapeSquare || s == ShapeDiamond }

// Node is a skill or goal on the canvas.
type Node struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	State    State   `json:"state"`
	FileLink string  `json:"fileLink,omitempty"`
	Exp      *int    `json:"exp,omitempty"`
	Shape    Shape   `json:"shape,omitempty"`
}

func (n Node) Pos() geom.Point { return geom.Pt(n.X, n.Y) }

// ExpValue is the experience value, 0 when unset.
func (n Node) ExpValue() int {
	if n.Exp == nil {
		return 0
	}
	return *n.Exp
}

func (n Node) Clone() Node {
	c := n
	if n.Exp != nil {
		v := *n.Exp
		c.Exp = &v
	}
	return c
}

// Edge is a prerequisite link. The arrow runs from the dependent node
// (From, the child) to the prerequisite (To, the parent). From or To is nil
// only while an endpoint is being dragged.
type Edge struct {
	ID       float64   `json:"id"`
	From     *int      `json:"from"`
	To       *int      `json:"to"`
	FromSide geom.Side `json:"fromSide,omitempty"`
	ToSide   geom.Side `json:"toSide,omitempty"`
	FromX    *float64  `json:"fromX,omitempty"`
	FromY    *float64  `json:"fromY,omitempty"`
	ToX      *float64  `json:"toX,omitempty"`
	ToY      *float64  `json:"toY,omitempty"`
}

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T { return &v }

func cloneRef[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (e Edge) Clone() Edge {
	c := e
	c.From, c.To = cloneRef(e.From), cloneRef(e.To)
	c.FromX, c.FromY = cloneRef(e.FromX), cloneRef(e.FromY)
	c.ToX, c.ToY = cloneRef(e.ToX), cloneRef(e.ToY)
	return c
}

// Ends returns both endpoint ids; ok is false while either is detached.
func (e Edge) Ends() (from, to int, ok bool) {
	if e.From == nil || e.To == nil {
		return 0, 0, false
	}
	return *e.From, *e.To, true
}

// Touches reports whether either endpoint is id.
func (e Edge) Touches(id int) bool {
	return (e.From != nil && *e.From == id) || (e.To != nil && *e.To == id)
}

// FromOverride is the free-floating position of a detached or pinned from end.
func (e Edge) FromOverride() (geom.Point, bool) {
	if e.FromX == nil || e.FromY == nil {
		return geom.Point{}, false
	}
	return geom.Pt(*e.FromX, *e.FromY), true
}

// ToOverride is the free-floating position of a detached or pinned to end.
func (e Edge) ToOverride() (geom.Point, bool) {
	if e.ToX == nil || e.ToY == nil {
		return geom.Point{}, false
	}
	return geom.Pt(*e.ToX, *e.ToY), true
}

// Graph is the node and edge set of one skill tree.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Tree is a named graph, the unit of persistence and import/export.
type Tree struct {
	Name string `json:"name"`
	Graph
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{Nodes: make([]Node, 0), Edges: make([]Edge, 0)}
}

// Clone returns a deep copy.
func (g *Graph) Clone() Graph {
	c := Graph{Nodes: make([]Node, len(g.Nodes)), Edges: make([]Edge, len(g.Edges))}
	for i, n := range g.Nodes {
		c.Nodes[i] = n.Clone()
	}
	for i, e := range g.Edges {
		c.Edges[i] = e.Clone()
	}
	return c
}

// Node returns the node with id. The pointer is only valid until the next
// structural change to g.Nodes.
func (g *Graph) Node(id int) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

func (g *Graph) HasNode(id int) bool { return g.Node(id) != nil }

// EdgeByID returns the edge with id, or nil.
func (g *Graph) EdgeByID(id float64) *Edge {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return &g.Edges[i]
		}
	}
	return nil
}

// ─── Adjacency ───

func appendUnique(ids []int, seen map[int]bool, id int) []int {
	if seen[id] {
		return ids
	}
	seen[id] = true
	return append(ids, id)
}

// ParentsOf returns the nodes id points to (its prerequisites). Edges naming
// a missing node are skipped.
func (g *Graph) ParentsOf(id int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, e := range g.Edges {
		from, to, ok := e.Ends()
		if !ok || from != id || !g.HasNode(to) {
			continue
		}
		out = appendUnique(out, seen, to)
	}
	return out
}

// ChildrenOf returns the nodes pointing to id (those that depend on it).
func (g *Graph) ChildrenOf(id int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, e := range g.Edges {
		from, to, ok := e.Ends()
		if !ok || to != id || !g.HasNode(from) {
			continue
		}
		out = appendUnique(out, seen, from)
	}
	return out
}

// Neighbors is the deduplicated union of parents and children.
func (g *Graph) Neighbors(id int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, p := range g.ParentsOf(id) {
		out = appendUnique(out, seen, p)
	}
	for _, c := range g.ChildrenOf(id) {
		out = appendUnique(out, seen, c)
	}
	return out
}

// HasAnyConnection reports whether any edge touches id at either end.
func (g *Graph) HasAnyConnection(id int) bool {
	for _, e := range g.Edges {
		if e.Touches(id) {
			return true
		}
	}
	return false
}

// SideBetween returns the side of a that faces b: left/right when the
// horizontal offset dominates, otherwise top/bottom.
func SideBetween(a, b Node) geom.Side {
	dx, dy := b.X-a.X, b.Y-a.Y
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return geom.SideRight
		}
		return geom.SideLeft
	}
	if dy > 0 {
		return geom.SideBottom
	}
	return geom.SideTop
}

// ─── Mutation ───

// NextNodeID returns one past the largest id in use, starting at 1.
func (g *Graph) NextNodeID() int {
	next := 1
	for _, n := range g.Nodes {
		if n.ID >= next {
			next = n.ID + 1
		}
	}
	return next
}

// NewEdgeID returns an integer id above every existing edge id.
func (g *Graph) NewEdgeID() float64 {
	next := 1.0
	for _, e := range g.Edges {
		if e.ID >= next {
			next = math.Floor(e.ID) + 1
		}
	}
	return next
}

// AddNode appends n, assigning the next free id when n.ID is zero and the
// in-progress state when none is set.
func (g *Graph) AddNode(n Node) (Node, error) {
	if n.ID == 0 {
		n.ID = g.NextNodeID()
	} else if g.HasNode(n.ID) {
		return Node{}, fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	if !n.State.Valid() {
		n.State = StateInProgress
	}
	g.Nodes = append(g.Nodes, n)
	return n, nil
}

// RemoveNode deletes a node and every edge touching it.
func (g *Graph) RemoveNode(id int) error {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)

	// Cascade: drop every edge that referenced the node
	filtered := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if !e.Touches(id) {
			filtered = append(filtered, e)
		}
	}
	g.Edges = filtered
	return nil
}

// ValidateEdge checks a prospective from→to link: both nodes must exist, no
// self-loop and no other edge (ignoring the one with id ignore) with the same
// pair.
func (g *Graph) ValidateEdge(from, to int, ignore float64) error {
	if from == to {
		return ErrSelfLoop
	}
	if !g.HasNode(from) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, from)
	}
	if !g.HasNode(to) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, to)
	}
	for _, e := range g.Edges {
		if e.ID == ignore {
			continue
		}
		if f, t, ok := e.Ends(); ok && f == from && t == to {
			return fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, from, to)
		}
	}
	return nil
}

// AddEdge links child from to parent to.
func (g *Graph) AddEdge(from, to int, fromSide, toSide geom.Side) (Edge, error) {
	if err := g.ValidateEdge(from, to, math.NaN()); err != nil {
		return Edge{}, err
	}
	e := Edge{
		ID:       g.NewEdgeID(),
		From:     Ref(from),
		To:       Ref(to),
		FromSide: fromSide,
		ToSide:   toSide,
	}
	g.Edges = append(g.Edges, e)
	return e, nil
}

// RemoveEdge deletes the edge with id.
func (g *Graph) RemoveEdge(id float64) error {
	for i, e := range g.Edges {
		if e.ID == id {
			g.Edges = append(g.Edges[:i], g.Edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrEdgeNotFound, id)
}

// ReassignNodeID renames a node and rewrites every edge endpoint naming it.
func (g *Graph) ReassignNodeID(oldID, newID int) error {
	if oldID == newID {
		return nil
	}
	n := g.Node(oldID)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, oldID)
	}
	if g.HasNode(newID) {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, newID)
	}
	n.ID = newID
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.From != nil && *e.From == oldID {
			e.From = Ref(newID)
		}
		if e.To != nil && *e.To == oldID {
			e.To = Ref(newID)
		}
	}
	return nil
}

// Rename records one id reassignment.
type Rename struct {
	Index int
	Old   int
	New   int
}

// ResolveDuplicateIDs gives every repeated node id after its first
// occurrence the next free integer. Edges keep pointing at the first
// occurrence. The renames are returned so caches can follow.
func (g *Graph) ResolveDuplicateIDs() []Rename {
	var renames []Rename
	seen := make(map[int]bool, len(g.Nodes))
	next := g.NextNodeID()
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		if !seen[id] {
			seen[id] = true
			continue
		}
		g.Nodes[i].ID = next
		seen[next] = true
		renames = append(renames, Rename{Index: i, Old: id, New: next})
		next++
	}
	return renames
}

// Normalize repairs a freshly loaded graph: missing or unknown states become
// in-progress, unknown shapes are cleared, negative exp is dropped and edges
// without an id get one. Dangling edges are left alone; readers skip them.
func (g *Graph) Normalize() {
	if g.Nodes == nil {
		g.Nodes = make([]Node, 0)
	}
	if g.Edges == nil {
		g.Edges = make([]Edge, 0)
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !n.State.Valid() {
			n.State = StateInProgress
		}
		if n.Shape != "" && !n.Shape.Valid() {
			n.Shape = ""
		}
		if n.Exp != nil && *n.Exp < 0 {
			n.Exp = nil
		}
	}
	for i := range g.Edges {
		if g.Edges[i].ID == 0 {
			g.Edges[i].ID = g.NewEdgeID()
		}
	}
}

// NodeIDs returns every node id in ascending order.
func (g *Graph) NodeIDs() []int {
	ids := make([]int, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	sort.Ints(ids)
	return ids
}
