// Package interact turns pointer and keyboard input into graph edits: the
// screen/world transform, node and edge layout, hit testing and the event
// dispatcher.
package interact

import (
	"math"

	"github.com/msalah0e/skilltree/internal/geom"
)

// Zoom limits.
const (
	MinScale = 0.1
	MaxScale = 5.0
)

// Viewport maps world coordinates to the screen:
// screen = world*Scale + Offset.
type Viewport struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

func NewViewport() Viewport { return Viewport{Scale: 1} }

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

func (v Viewport) offset() geom.Point { return geom.Pt(v.OffsetX, v.OffsetY) }

func (v Viewport) ToWorld(screen geom.Point) geom.Point {
	return screen.Sub(v.offset()).Scale(1 / v.scale())
}

func (v Viewport) ToScreen(world geom.Point) geom.Point {
	return world.Scale(v.scale()).Add(v.offset())
}

// Pan shifts the view by a screen-space delta.
func (v *Viewport) Pan(d geom.Point) {
	v.OffsetX += d.X
	v.OffsetY += d.Y
}

// ZoomAt multiplies the scale by factor, clamped to [MinScale, MaxScale],
// keeping the world point under screen fixed.
func (v *Viewport) ZoomAt(screen geom.Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) {
		return
	}
	anchor := v.ToWorld(screen)
	v.Scale = math.Max(MinScale, math.Min(MaxScale, v.scale()*factor))
	o := screen.Sub(anchor.Scale(v.Scale))
	v.OffsetX, v.OffsetY = o.X, o.Y
}

// Pixels converts a screen-space tolerance to world units.
func (v Viewport) Pixels(px float64) float64 { return px / v.scale() }
