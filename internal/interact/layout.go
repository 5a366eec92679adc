package interact

import (
	"math"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
)

const (
	// TaskRadius is the radius of an orbit task marker.
	TaskRadius = 8.0
	// CheckboxSize is the side of the square task and node checkboxes.
	CheckboxSize = 12.0

	orbitGap        = 26.0
	maxRadiusFactor = 3.0
)

type orbit struct {
	center geom.Point
	r      float64
	pts    []geom.Point
}

// Layout derives sizes and positions from nodes and the canvas settings. It
// caches orbit positions per node id and follows id changes through Rekey.
type Layout struct {
	Canvas config.CanvasConfig
	orbits graph.Keyed[orbit]
}

func NewLayout(canvas config.CanvasConfig) *Layout {
	return &Layout{Canvas: canvas}
}

func (l *Layout) minRadius() float64 {
	if l.Canvas.NodeRadiusMin <= 0 {
		return 20
	}
	return l.Canvas.NodeRadiusMin
}

// Radius grows logarithmically with exp, from the configured minimum up to
// three times it.
func (l *Layout) Radius(n graph.Node) float64 {
	base := l.minRadius()
	r := base * (1 + math.Log10(1+float64(n.ExpValue()))/4)
	return math.Min(r, base*maxRadiusFactor)
}

// Shape is the node's own shape or the style default.
func (l *Layout) Shape(n graph.Node) graph.Shape {
	if n.Shape != "" {
		return n.Shape
	}
	return l.Canvas.ResolveStyle().DefaultShape
}

// Contains is the shape-aware body test: boxy shapes use their bounding box,
// round ones the radius.
func (l *Layout) Contains(n graph.Node, p geom.Point) bool {
	r := l.Radius(n)
	d := p.Sub(n.Pos())
	if l.Shape(n).Boxy() {
		return math.Abs(d.X) <= r && math.Abs(d.Y) <= r
	}
	return d.Len() <= r
}

// Handle is the connection point on side of n.
func (l *Layout) Handle(n graph.Node, side geom.Side) geom.Point {
	return geom.Anchor(n.Pos(), side, l.Radius(n))
}

// TaskPositions spreads count markers evenly around n, starting at the top.
func (l *Layout) TaskPositions(n graph.Node, count int) []geom.Point {
	if count <= 0 {
		l.orbits.Delete(n.ID)
		return nil
	}
	c, r := n.Pos(), l.Radius(n)
	if o, ok := l.orbits.Get(n.ID); ok && o.center == c && o.r == r && len(o.pts) == count {
		return o.pts
	}
	dist := r + orbitGap
	pts := make([]geom.Point, count)
	for i := range pts {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(count)
		pts[i] = c.Add(geom.Pt(math.Cos(a), math.Sin(a)).Scale(dist))
	}
	l.orbits.Set(n.ID, orbit{center: c, r: r, pts: pts})
	return pts
}

// TaskCheckbox is the center of the checkbox drawn above a selected task.
func TaskCheckbox(task geom.Point) geom.Point {
	return task.Add(geom.Pt(0, -(TaskRadius + CheckboxSize)))
}

func (l *Layout) Rekey(oldID, newID int) { l.orbits.Rekey(oldID, newID) }
func (l *Layout) Delete(id int)          { l.orbits.Delete(id) }
func (l *Layout) Clear()                 { l.orbits.Clear() }

// Route is the rendered path of one edge.
type Route struct {
	EdgeID float64
	Mode   config.EdgeMode
	Start  geom.Point
	End    geom.Point
	Curve  geom.Curve
	Path   []geom.Point
}

type endpoint struct {
	center geom.Point
	r      float64
	pinned bool
}

func (l *Layout) endpoint(g *graph.Graph, id *int, override geom.Point, hasOverride bool) (endpoint, bool) {
	if hasOverride {
		return endpoint{center: override, pinned: true}, true
	}
	if id == nil {
		return endpoint{}, false
	}
	n := g.Node(*id)
	if n == nil {
		return endpoint{}, false
	}
	return endpoint{center: n.Pos(), r: l.Radius(*n)}, true
}

func attach(e endpoint, side geom.Side, toward geom.Point) (geom.Point, geom.Side) {
	switch {
	case e.pinned:
		return e.center, geom.SideNone
	case side.Valid():
		return geom.Anchor(e.center, side, e.r), side
	default:
		return geom.FacingAnchor(e.center, toward, e.r), geom.SideNone
	}
}

// Route lays out edge e. ok is false when an end names a missing node.
func (l *Layout) Route(g *graph.Graph, e graph.Edge) (Route, bool) {
	fo, fok := e.FromOverride()
	to, tok := e.ToOverride()
	a, ok := l.endpoint(g, e.From, fo, fok)
	if !ok {
		return Route{}, false
	}
	b, ok := l.endpoint(g, e.To, to, tok)
	if !ok {
		return Route{}, false
	}
	start, fs := attach(a, e.FromSide, b.center)
	end, ts := attach(b, e.ToSide, a.center)

	r := Route{EdgeID: e.ID, Mode: l.Canvas.EdgeMode(), Start: start, End: end}
	switch r.Mode {
	case config.EdgeStraight:
		r.Curve = geom.Line(start, end)
	case config.EdgeRigid:
		r.Curve = geom.BuildCurve(start, end, fs, ts, a.r, b.r, true)
		r.Path = geom.RigidPath(start, end, fs, ts)
	default:
		r.Curve = geom.BuildCurve(start, end, fs, ts, a.r, b.r, false)
	}
	return r, true
}

// Dist2 is the squared distance from p to the drawn path.
func (r Route) Dist2(p geom.Point) float64 {
	if r.Mode == config.EdgeRigid {
		d, _ := geom.PointToPolyline(p, r.Path)
		return d
	}
	d, _ := geom.PointToBezier(p, r.Curve, geom.DefaultSamples)
	return d
}

// Polyline is the drawn path as points.
func (r Route) Polyline() []geom.Point {
	if r.Mode == config.EdgeRigid {
		return r.Path
	}
	return r.Curve.Polyline(geom.DefaultSamples)
}

// Direction is the approach direction at the arrow tip.
func (r Route) Direction() geom.Point {
	if r.Mode == config.EdgeRigid && len(r.Path) >= 2 {
		return r.Path[len(r.Path)-1].Sub(r.Path[len(r.Path)-2])
	}
	return r.Curve.EndTangent()
}
