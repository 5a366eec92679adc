package server

import (
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/interact"
	"github.com/msalah0e/skilltree/internal/render"
)

// Scene is everything the browser canvas needs to draw one frame, in world
// coordinates.
type Scene struct {
	Tree      string             `json:"tree"`
	Nodes     []SceneNode        `json:"nodes"`
	Edges     []SceneEdge        `json:"edges"`
	View      interact.Viewport  `json:"view"`
	Selection interact.Selection `json:"selection"`
	Preview   []geom.Point       `json:"preview,omitempty"`
	Handles   bool               `json:"handles"`
	CanUndo   bool               `json:"canUndo"`
	CanRedo   bool               `json:"canRedo"`
}

type SceneNode struct {
	ID       int         `json:"id"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Radius   float64     `json:"radius"`
	Shape    graph.Shape `json:"shape"`
	State    graph.State `json:"state"`
	Fill     string      `json:"fill"`
	Title    string      `json:"title"`
	Label    string      `json:"label,omitempty"`
	Checkbox bool        `json:"checkbox"`
	Tasks    []SceneTask `json:"tasks,omitempty"`
}

type SceneTask struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
	Done bool    `json:"done"`
}

type SceneEdge struct {
	ID     float64      `json:"id"`
	Points []geom.Point `json:"points"`
	Head   []geom.Point `json:"head"`
}

// BuildScene lays out the controller's tree.
func BuildScene(tree string, ctl *interact.Controller, expMode string) Scene {
	ed, l := ctl.Editor, ctl.Layout
	sc := Scene{
		Tree:      tree,
		Nodes:     make([]SceneNode, 0, len(ed.Graph.Nodes)),
		Edges:     make([]SceneEdge, 0, len(ed.Graph.Edges)),
		View:      ctl.View,
		Selection: ctl.Sel,
		Handles:   l.Canvas.ShowHandles,
		CanUndo:   ed.History.CanUndo(),
		CanRedo:   ed.History.CanRedo(),
	}
	for _, r := range ctl.Routes() {
		head := geom.Arrowhead(r.End, r.Direction(), 1)
		sc.Edges = append(sc.Edges, SceneEdge{ID: r.EdgeID, Points: r.Polyline(), Head: head[:]})
	}
	for _, n := range ed.Graph.Nodes {
		ts, _ := ed.Tasks.Get(n.ID)
		sn := SceneNode{
			ID:       n.ID,
			X:        n.X,
			Y:        n.Y,
			Radius:   l.Radius(n),
			Shape:    l.Shape(n),
			State:    n.State,
			Fill:     render.FillHex(n.State),
			Title:    render.Title(n),
			Label:    render.ExpLabel(n, ts, expMode),
			Checkbox: ctl.HasCheckbox(n),
		}
		for i, p := range ctl.TaskMarkers(n) {
			sn.Tasks = append(sn.Tasks, SceneTask{X: p.X, Y: p.Y, Text: ts[i].Text, Done: ts[i].Completed})
		}
		sc.Nodes = append(sc.Nodes, sn)
	}
	if from, to, ok := ctl.Preview(); ok {
		sc.Preview = []geom.Point{from, to}
	}
	return sc
}
