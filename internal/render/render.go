// Package render draws a skill tree to PNG and exports it as Graphviz DOT.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/interact"
	"github.com/msalah0e/skilltree/internal/tasks"
)

// Tasks supplies the cached task list of a node.
type Tasks interface {
	Get(id int) ([]tasks.Task, bool)
}

// Options controls a PNG render.
type Options struct {
	Padding    float64
	ExpDisplay string
	Background color.Color
}

func (o Options) padding() float64 {
	if o.Padding <= 0 {
		return 40
	}
	return o.Padding
}

var (
	ink        = color.RGBA{0x22, 0x22, 0x2a, 0xff}
	faint      = color.RGBA{0x9a, 0x9a, 0xa6, 0xff}
	paper      = color.RGBA{0xfa, 0xfa, 0xf7, 0xff}
	taskOpen   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	taskDone   = color.RGBA{0x3c, 0xa8, 0x5a, 0xff}
	stateFills = map[graph.State]color.RGBA{
		graph.StateComplete:    {0x3c, 0xa8, 0x5a, 0xff},
		graph.StateInProgress:  {0xf2, 0xb1, 0x34, 0xff},
		graph.StateUnavailable: {0xb8, 0xb8, 0xc0, 0xff},
	}
)

// StateColor is the fill used for a node in state s.
func StateColor(s graph.State) color.RGBA {
	if c, ok := stateFills[s]; ok {
		return c
	}
	return stateFills[graph.StateInProgress]
}

func hex(c color.RGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// FillHex is StateColor as a CSS colour.
func FillHex(s graph.State) string { return hex(StateColor(s)) }

// ExpLabel formats a node's experience for display. Absolute mode prints
// the value; fraction mode prints how much of it the node's tasks have
// earned. Nodes without exp get no label.
func ExpLabel(n graph.Node, ts []tasks.Task, mode string) string {
	if n.Exp == nil {
		return ""
	}
	exp := *n.Exp
	if mode != config.ExpFraction {
		return fmt.Sprintf("%d xp", exp)
	}
	earned := 0
	switch done, total := tasks.Count(ts); {
	case n.State == graph.StateComplete:
		earned = exp
	case total > 0:
		earned = exp * done / total
	}
	return fmt.Sprintf("%d/%d", earned, exp)
}

// Bounds is the world rectangle covering every node, its orbit and its
// label.
func Bounds(g *graph.Graph, l *interact.Layout, ts Tasks) (lo, hi geom.Point) {
	if len(g.Nodes) == 0 {
		return geom.Point{}, geom.Point{}
	}
	lo = geom.Pt(math.Inf(1), math.Inf(1))
	hi = geom.Pt(math.Inf(-1), math.Inf(-1))
	grow := func(p geom.Point, r float64) {
		lo.X, lo.Y = math.Min(lo.X, p.X-r), math.Min(lo.Y, p.Y-r)
		hi.X, hi.Y = math.Max(hi.X, p.X+r), math.Max(hi.Y, p.Y+r)
	}
	for _, n := range g.Nodes {
		grow(n.Pos(), l.Radius(n)+labelGap)
		for _, p := range l.TaskPositions(n, len(taskList(ts, n.ID))) {
			grow(p, interact.TaskRadius)
		}
	}
	return lo, hi
}

const labelGap = 16.0

func taskList(ts Tasks, id int) []tasks.Task {
	if ts == nil {
		return nil
	}
	list, _ := ts.Get(id)
	return list
}

// Draw paints the tree onto a new context sized to fit it.
func Draw(g *graph.Graph, l *interact.Layout, ts Tasks, opts Options) *gg.Context {
	pad := opts.padding()
	lo, hi := Bounds(g, l, ts)
	w := int(math.Ceil(hi.X - lo.X + 2*pad))
	h := int(math.Ceil(hi.Y - lo.Y + 2*pad))

	dc := gg.NewContext(w, h)
	bg := opts.Background
	if bg == nil {
		bg = paper
	}
	dc.SetColor(bg)
	dc.Clear()
	dc.Translate(pad-lo.X, pad-lo.Y)

	dc.SetLineWidth(2)
	for _, e := range g.Edges {
		r, ok := l.Route(g, e)
		if !ok {
			continue
		}
		drawRoute(dc, r)
	}
	for _, n := range g.Nodes {
		drawNode(dc, l, n, taskList(ts, n.ID), opts.ExpDisplay)
	}
	return dc
}

// PNG renders the tree and encodes it to w.
func PNG(w io.Writer, g *graph.Graph, l *interact.Layout, ts Tasks, opts Options) error {
	return Draw(g, l, ts, opts).EncodePNG(w)
}

func drawRoute(dc *gg.Context, r interact.Route) {
	pts := r.Polyline()
	if len(pts) < 2 {
		return
	}
	dc.SetColor(ink)
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()

	head := geom.Arrowhead(r.End, r.Direction(), 1)
	dc.MoveTo(head[0].X, head[0].Y)
	dc.LineTo(head[1].X, head[1].Y)
	dc.LineTo(head[2].X, head[2].Y)
	dc.ClosePath()
	dc.Fill()
}

func polygon(dc *gg.Context, c geom.Point, radii []float64, start float64) {
	step := 2 * math.Pi / float64(len(radii))
	for i, r := range radii {
		a := start + step*float64(i)
		p := c.Add(geom.Pt(math.Cos(a), math.Sin(a)).Scale(r))
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.ClosePath()
}

func repeat(n int, rs ...float64) []float64 {
	out := make([]float64, 0, n*len(rs))
	for range n {
		out = append(out, rs...)
	}
	return out
}

func shapePath(dc *gg.Context, shape graph.Shape, c geom.Point, r float64) {
	switch shape {
	case graph.ShapeSquare:
		dc.DrawRectangle(c.X-r, c.Y-r, 2*r, 2*r)
	case graph.ShapeHexagon:
		polygon(dc, c, repeat(6, r), 0)
	case graph.ShapeDiamond:
		polygon(dc, c, repeat(4, r), -math.Pi/2)
	case graph.ShapeStar:
		polygon(dc, c, repeat(5, r, r*0.5), -math.Pi/2)
	default:
		dc.DrawCircle(c.X, c.Y, r)
	}
}

func drawNode(dc *gg.Context, l *interact.Layout, n graph.Node, ts []tasks.Task, mode string) {
	c, r := n.Pos(), l.Radius(n)
	shape := l.Shape(n)

	shapePath(dc, shape, c, r)
	dc.SetColor(StateColor(n.State))
	dc.FillPreserve()
	dc.SetColor(ink)
	dc.Stroke()

	dc.DrawStringAnchored(Title(n), c.X, c.Y, 0.5, 0.5)
	if label := ExpLabel(n, ts, mode); label != "" {
		dc.SetColor(faint)
		dc.DrawStringAnchored(label, c.X, c.Y+r+labelGap/2, 0.5, 0.5)
	}

	for i, p := range l.TaskPositions(n, len(ts)) {
		dc.DrawCircle(p.X, p.Y, interact.TaskRadius)
		if ts[i].Completed {
			dc.SetColor(taskDone)
		} else {
			dc.SetColor(taskOpen)
		}
		dc.FillPreserve()
		dc.SetColor(ink)
		dc.SetLineWidth(1)
		dc.Stroke()
		dc.SetLineWidth(2)
	}
}

// Title is the linked document's base name, or the id.
func Title(n graph.Node) string {
	if n.FileLink != "" {
		base := filepath.Base(n.FileLink)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return fmt.Sprintf("#%d", n.ID)
}
