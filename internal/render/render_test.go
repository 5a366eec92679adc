package render

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/interact"
	"github.com/msalah0e/skilltree/internal/tasks"
)

func sampleTree() graph.Tree {
	t := graph.Tree{Name: "Lang", Graph: *graph.New()}
	t.Nodes = []graph.Node{
		{ID: 1, X: 0, Y: 0, State: graph.StateComplete, Exp: graph.Ref(120)},
		{ID: 2, X: 200, Y: 0, State: graph.StateInProgress, Shape: graph.ShapeSquare, FileLink: "skills/Go Basics.md"},
		{ID: 3, X: 100, Y: 150, State: graph.StateUnavailable, Shape: graph.ShapeStar},
	}
	t.Edges = []graph.Edge{
		{ID: 1, From: graph.Ref(1), To: graph.Ref(2), FromSide: geom.SideRight, ToSide: geom.SideLeft},
		{ID: 2, From: graph.Ref(2), To: graph.Ref(3)},
		{ID: 3, From: graph.Ref(3), To: graph.Ref(99)},
	}
	return t
}

func TestExpLabel(t *testing.T) {
	ts := tasks.Parse("- [x] a\n- [ ] b\n- [x] c\n- [ ] d\n")
	n := graph.Node{State: graph.StateInProgress, Exp: graph.Ref(100)}

	assert.Equal(t, "100 xp", ExpLabel(n, ts, config.ExpAbsolute))
	assert.Equal(t, "50/100", ExpLabel(n, ts, config.ExpFraction))
	assert.Equal(t, "0/100", ExpLabel(n, nil, config.ExpFraction))

	n.State = graph.StateComplete
	assert.Equal(t, "100/100", ExpLabel(n, nil, config.ExpFraction))

	n.Exp = nil
	assert.Empty(t, ExpLabel(n, ts, config.ExpAbsolute))
}

func TestPNGFillsNodesByState(t *testing.T) {
	tree := sampleTree()
	l := interact.NewLayout(config.Default().Canvas)

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, &tree.Graph, l, nil, Options{Padding: 10}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	lo, hi := Bounds(&tree.Graph, l, nil)
	b := img.Bounds()
	assert.Equal(t, int(math.Ceil(hi.X-lo.X+20)), b.Dx())
	assert.Equal(t, int(math.Ceil(hi.Y-lo.Y+20)), b.Dy())

	// just above the title, inside the body
	at := func(p geom.Point) (uint32, uint32, uint32, uint32) {
		x := int(math.Floor(p.X - lo.X + 10))
		y := int(math.Floor(p.Y - lo.Y + 10 - 12))
		return img.At(x, y).RGBA()
	}
	for _, n := range tree.Nodes {
		r, g, bl, a := at(n.Pos())
		wr, wg, wb, wa := StateColor(n.State).RGBA()
		assert.Equal(t, []uint32{wr, wg, wb, wa}, []uint32{r, g, bl, a}, "node %d", n.ID)
	}
}

func TestBoundsCoverTasks(t *testing.T) {
	g := graph.New()
	g.Nodes = []graph.Node{{ID: 1}}
	l := interact.NewLayout(config.Default().Canvas)
	cache := tasks.NewCache()

	lo, hi := Bounds(g, l, cache)
	assert.Equal(t, geom.Pt(-36, -36), lo)
	assert.Equal(t, geom.Pt(36, 36), hi)

	cache.Set(1, tasks.Parse("- [ ] one\n"))
	lo, _ = Bounds(g, l, cache)
	// a single orbit marker sits straight above the node
	assert.InDelta(t, -(20 + 26 + interact.TaskRadius), lo.Y, 1e-9)

	lo, hi = Bounds(graph.New(), l, nil)
	assert.Equal(t, geom.Point{}, lo)
	assert.Equal(t, geom.Point{}, hi)
}

func TestEmptyTreeRenders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, graph.New(), interact.NewLayout(config.Default().Canvas), nil, Options{}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
}

func TestDOT(t *testing.T) {
	out := DOT(sampleTree())
	assert.True(t, strings.HasPrefix(out, `digraph "Lang" {`))
	assert.Contains(t, out, `n1 [label="#1\n120 xp", fillcolor="#3ca85a"];`)
	assert.Contains(t, out, `n2 [label="Go Basics", fillcolor="#f2b134", shape=box];`)
	assert.Contains(t, out, `shape=star`)
	assert.Contains(t, out, "n1 -> n2;")
	assert.Contains(t, out, "n2 -> n3;")
	assert.NotContains(t, out, "n99")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestDOTEscapesQuotes(t *testing.T) {
	out := DOT(graph.Tree{Name: `my "tree"`, Graph: *graph.New()})
	assert.Contains(t, out, `digraph "my \"tree\"" {`)
}
