package render

import (
	"fmt"
	"strings"

	"github.com/msalah0e/skilltree/internal/graph"
)

// quote makes a DOT string literal. Backslash sequences such as \n are
// kept so Graphviz can interpret them.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

var dotShapes = map[graph.Shape]string{
	graph.ShapeCircle:  "circle",
	graph.ShapeSquare:  "box",
	graph.ShapeHexagon: "hexagon",
	graph.ShapeDiamond: "diamond",
	graph.ShapeStar:    "star",
}

// DOT exports a tree as a Graphviz digraph. Arrows point from each
// prerequisite to the skill it unlocks and nodes are filled by state.
// Edges naming missing nodes are left out.
func DOT(t graph.Tree) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quote(t.Name))
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\"];\n\n")

	for _, n := range t.Nodes {
		label := Title(n)
		if n.Exp != nil {
			label += fmt.Sprintf("\\n%d xp", *n.Exp)
		}
		attrs := []string{
			"label=" + quote(label),
			"fillcolor=" + quote(FillHex(n.State)),
		}
		if s, ok := dotShapes[n.Shape]; ok && n.Shape != graph.ShapeCircle {
			attrs = append(attrs, "shape="+s)
		}
		fmt.Fprintf(&b, "  n%d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	b.WriteString("\n")
	for _, e := range t.Edges {
		from, to, ok := e.Ends()
		if !ok || !t.HasNode(from) || !t.HasNode(to) {
			continue
		}
		fmt.Fprintf(&b, "  n%d -> n%d;\n", from, to)
	}
	b.WriteString("}\n")
	return b.String()
}
