package geom

import "math"

const (
	// DefaultSamples is the polyline resolution used for curve distance queries.
	DefaultSamples = 24

	minHandle  = 10.0
	handleFrac = 0.25
	nudgeFrac  = 0.15

	minRigidOffset  = 30.0
	rigidOffsetFrac = 0.2

	// ArrowLength is the arrowhead length at scale 1.
	ArrowLength = 12.0
	arrowSpread = math.Pi / 6
)

// Curve is a cubic bezier from P0 to P3.
type Curve struct {
	P0, P1, P2, P3 Point
}

// Line returns a straight segment expressed as a cubic.
func Line(a, b Point) Curve {
	d := b.Sub(a)
	return Curve{P0: a, P1: a.Add(d.Scale(1.0 / 3)), P2: a.Add(d.Scale(2.0 / 3)), P3: b}
}

// At evaluates the curve at t in [0,1].
func (c Curve) At(t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Tangent is the first derivative of the curve at t.
func (c Curve) Tangent(t float64) Point {
	mt := 1 - t
	return c.P1.Sub(c.P0).Scale(3 * mt * mt).
		Add(c.P2.Sub(c.P1).Scale(6 * mt * t)).
		Add(c.P3.Sub(c.P2).Scale(3 * t * t))
}

// EndTangent is the approach direction at P3. When the last control point
// sits on the endpoint the derivative vanishes, so it falls back to the
// direction from the earlier points.
func (c Curve) EndTangent() Point {
	const eps = 1e-9
	if d := c.Tangent(1); d.Len() > eps {
		return d
	}
	if d := c.P3.Sub(c.P1); d.Len() > eps {
		return d
	}
	return c.P3.Sub(c.P0)
}

// Reverse returns the same curve traversed from P3 to P0.
func (c Curve) Reverse() Curve {
	return Curve{P0: c.P3, P1: c.P2, P2: c.P1, P3: c.P0}
}

// Polyline samples the curve into samples+1 points.
func (c Curve) Polyline(samples int) []Point {
	if samples < 1 {
		samples = DefaultSamples
	}
	pts := make([]Point, samples+1)
	for i := 0; i <= samples; i++ {
		pts[i] = c.At(float64(i) / float64(samples))
	}
	return pts
}

func handleLength(dist, r float64) float64 {
	k := math.Max(minHandle, handleFrac*dist)
	return math.Max(k, 0.5*r)
}

func curvedControl(anchor, dir, perp Point, side Side, k float64) Point {
	if side.Valid() {
		return anchor.Add(side.Normal().Scale(k))
	}
	return anchor.Add(dir.Scale(k)).Add(perp.Scale(nudgeFrac * k))
}

// ControlPoints returns the two inner control points of the connector from
// anchor a to anchor b.
//
// In curved mode an explicit side pushes the control point out along that
// side's normal, which bends the curve sharply next to the node; without a
// side the control point runs along the chord with a small perpendicular
// nudge. The to end uses the mirrored nudge, so swapping the endpoints and the
// sides yields the same curve reversed.
//
// In right-angle mode both control points sit on the single corner of an L
// path (see RigidPath).
func ControlPoints(a, b Point, fromSide, toSide Side, rFrom, rTo float64, rightAngle bool) (Point, Point) {
	if rightAngle {
		ea, eb := exitPoints(a, b, fromSide, toSide)
		c := corner(ea, eb)
		return c, c
	}

	d := b.Sub(a)
	dist := d.Len()
	if dist == 0 {
		dist = 1
	}
	dir := d.Scale(1 / dist)
	perp := dir.Perp()

	c1 := curvedControl(a, dir, perp, fromSide, handleLength(dist, rFrom))
	c2 := curvedControl(b, dir.Scale(-1), perp.Scale(-1), toSide, handleLength(dist, rTo))
	return c1, c2
}

// BuildCurve assembles the full connector curve between two anchors.
func BuildCurve(a, b Point, fromSide, toSide Side, rFrom, rTo float64, rightAngle bool) Curve {
	c1, c2 := ControlPoints(a, b, fromSide, toSide, rFrom, rTo, rightAngle)
	return Curve{P0: a, P1: c1, P2: c2, P3: b}
}

func exitPoints(a, b Point, fromSide, toSide Side) (Point, Point) {
	if !fromSide.Valid() || !toSide.Valid() {
		return a, b
	}
	dist := a.Dist(b)
	if dist == 0 {
		dist = 1
	}
	off := math.Max(minRigidOffset, rigidOffsetFrac*dist)
	return a.Add(fromSide.Normal().Scale(off)), b.Add(toSide.Normal().Scale(off))
}

// corner picks the bend of an L path: the axis with the larger displacement
// is walked first.
func corner(ea, eb Point) Point {
	if math.Abs(eb.X-ea.X) >= math.Abs(eb.Y-ea.Y) {
		return Point{X: eb.X, Y: ea.Y}
	}
	return Point{X: ea.X, Y: eb.Y}
}

// RigidPath is the polyline of a right-angle connector: the anchors, the
// exit and entry points when both sides are explicit, and one 90° corner
// between them. Consecutive duplicates are dropped.
func RigidPath(a, b Point, fromSide, toSide Side) []Point {
	ea, eb := exitPoints(a, b, fromSide, toSide)
	raw := []Point{a, ea, corner(ea, eb), eb, b}
	out := raw[:1]
	for _, p := range raw[1:] {
		if p.Dist2(out[len(out)-1]) > 1e-12 {
			out = append(out, p)
		}
	}
	return out
}

// PointToSegment returns the squared distance from p to segment ab and the
// clamped parameter of the closest point.
func PointToSegment(p, a, b Point) (float64, float64) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist2(a), 0
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist2(a.Add(ab.Scale(t))), t
}

// PointToBezier approximates the squared distance from p to the curve by
// sampling it into a polyline. t is the curve parameter of the closest point.
func PointToBezier(p Point, c Curve, samples int) (float64, float64) {
	if samples < 1 {
		samples = DefaultSamples
	}
	best, bestT := math.Inf(1), 0.0
	prev := c.P0
	for i := 0; i < samples; i++ {
		next := c.At(float64(i+1) / float64(samples))
		d2, tt := PointToSegment(p, prev, next)
		if d2 < best {
			best = d2
			bestT = (float64(i) + tt) / float64(samples)
		}
		prev = next
	}
	return best, bestT
}

// PointToPolyline returns the squared distance from p to the polyline and the
// fraction of the way along it (by segment index) of the closest point.
func PointToPolyline(p Point, pts []Point) (float64, float64) {
	switch len(pts) {
	case 0:
		return math.Inf(1), 0
	case 1:
		return p.Dist2(pts[0]), 0
	}
	best, bestT := math.Inf(1), 0.0
	n := float64(len(pts) - 1)
	for i := 0; i+1 < len(pts); i++ {
		d2, tt := PointToSegment(p, pts[i], pts[i+1])
		if d2 < best {
			best = d2
			bestT = (float64(i) + tt) / n
		}
	}
	return best, bestT
}

// Arrowhead returns the tip and the two wing points of an arrow arriving at
// tip along dir. The length shrinks as the view zooms in.
func Arrowhead(tip, dir Point, scale float64) [3]Point {
	length := ArrowLength / math.Max(0.5, scale)
	u := dir.Unit()
	if u == (Point{}) {
		u = Point{X: 1}
	}
	back := u.Scale(-length)
	return [3]Point{
		tip,
		tip.Add(back.Rotate(arrowSpread)),
		tip.Add(back.Rotate(-arrowSpread)),
	}
}
