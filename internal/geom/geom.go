// Package geom holds the canvas geometry shared by rendering and hit-testing:
// anchors on node sides, cubic bezier and rigid connector construction,
// point-to-curve distance, arrowheads and drag-time collision avoidance.
package geom

import (
	"fmt"
	"math"
)

// Point is a coordinate in world or screen space. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(q Point) float64  { return p.Sub(q).Len() }
func (p Point) Perp() Point           { return Point{-p.Y, p.X} }
func (p Point) Dot(q Point) float64   { return p.X*q.X + p.Y*q.Y }
func (p Point) Dist2(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Unit returns p scaled to length 1, or the zero vector when p has no length.
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return p.Scale(1 / l)
}

// Rotate turns p by angle radians around the origin.
func (p Point) Rotate(angle float64) Point {
	s, c := math.Sincos(angle)
	return Point{p.X*c - p.Y*s, p.X*s + p.Y*c}
}

// Side is one of the four cardinal anchor sides of a node.
type Side string

const (
	SideNone   Side = ""
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides lists the cardinal sides in handle order.
var Sides = []Side{SideTop, SideRight, SideBottom, SideLeft}

// ParseSide accepts the four side names; the empty string maps to SideNone.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideNone, SideTop, SideRight, SideBottom, SideLeft:
		return Side(s), nil
	}
	return SideNone, fmt.Errorf("unknown side %q (want top, right, bottom or left)", s)
}

// Valid reports whether s names an actual side.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// Normal is the outward unit vector of the side.
func (s Side) Normal() Point {
	switch s {
	case SideTop:
		return Point{0, -1}
	case SideRight:
		return Point{1, 0}
	case SideBottom:
		return Point{0, 1}
	case SideLeft:
		return Point{-1, 0}
	}
	return Point{}
}

func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideRight:
		return SideLeft
	case SideBottom:
		return SideTop
	case SideLeft:
		return SideRight
	}
	return SideNone
}

// Anchor is the point on a node of radius r where a connector attaches to side.
// With no side the center is returned.
func Anchor(center Point, side Side, r float64) Point {
	return center.Add(side.Normal().Scale(r))
}

// FacingAnchor is the boundary point of a round node of radius r toward target.
func FacingAnchor(center, target Point, r float64) Point {
	return center.Add(target.Sub(center).Unit().Scale(r))
}
