package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/skilltree/internal/ctxlog"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/history"
	"github.com/msalah0e/skilltree/internal/notes"
	"github.com/msalah0e/skilltree/internal/tasks"
)

type memDocs struct {
	mu    sync.Mutex
	files map[string]string
}

func newMemDocs(files map[string]string) *memDocs {
	if files == nil {
		files = map[string]string{}
	}
	return &memDocs{files: files}
}

func (m *memDocs) Path(link string) string { return "/vault/" + link }

func (m *memDocs) Read(_ context.Context, link string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[link]
	if !ok {
		return "", errors.New("no such document")
	}
	return c, nil
}

func (m *memDocs) Write(_ context.Context, link, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[link] = content
	return nil
}

func (m *memDocs) get(link string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[link]
}

type fakeWatch struct {
	paths map[int]string
}

func (w *fakeWatch) Watch(id int, path string) error { w.paths[id] = path; return nil }
func (w *fakeWatch) Unwatch(id int)                  { delete(w.paths, id) }
func (w *fakeWatch) Rekey(oldID, newID int) {
	if p, ok := w.paths[oldID]; ok {
		delete(w.paths, oldID)
		w.paths[newID] = p
	}
}

type keyedCache struct {
	graph.Keyed[string]
}

func (k *keyedCache) Rekey(oldID, newID int) { k.Keyed.Rekey(oldID, newID) }

func newEditor(t *testing.T, docs *memDocs) (*Editor, *fakeWatch) {
	t.Helper()
	w := &fakeWatch{paths: map[int]string{}}
	var d Documents
	if docs != nil {
		d = docs
	}
	return New(graph.New(), d, w, Options{Seed: 1}), w
}

func state(e *Editor, id int) graph.State { return e.Graph.Node(id).State }

func TestAddAndConnect(t *testing.T) {
	e, _ := newEditor(t, nil)

	a, err := e.AddNode(0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, graph.StateUnavailable, a.State, "orphan without tasks is locked")

	b, err := e.AddNode(300, 0, graph.ShapeHexagon)
	require.NoError(t, err)

	ed, err := e.Connect(a.ID, b.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, geom.SideRight, ed.FromSide)
	assert.Equal(t, geom.SideLeft, ed.ToSide)
	assert.Equal(t, graph.StateInProgress, state(e, a.ID))
	assert.Equal(t, graph.StateUnavailable, state(e, b.ID))
}

func TestAddNodeAvoidsOverlap(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(5, 0, "")
	d := geom.Pt(a.X, a.Y).Dist(geom.Pt(b.X, b.Y))
	assert.GreaterOrEqual(t, d, 2*defaultRadius+geom.DefaultMargin-1e-6)
}

func TestTopologyErrorsRecordNothing(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(300, 0, "")
	_, err := e.Connect(a.ID, b.ID, "", "")
	require.NoError(t, err)
	past, _ := e.History.Len()

	_, err = e.Connect(a.ID, a.ID, "", "")
	assert.ErrorIs(t, err, graph.ErrSelfLoop)
	_, err = e.Connect(a.ID, b.ID, "", "")
	assert.ErrorIs(t, err, graph.ErrDuplicateEdge)
	_, err = e.Connect(a.ID, 99, "", "")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)

	after, _ := e.History.Len()
	assert.Equal(t, past, after)
	assert.Len(t, e.Graph.Edges, 1)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(300, 0, "")
	before := history.Take(e.Graph)

	_, err := e.Connect(a.ID, b.ID, "", "")
	require.NoError(t, err)
	after := history.Take(e.Graph)

	require.True(t, e.Undo(context.Background()))
	if diff := cmp.Diff(before, history.Take(e.Graph)); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}
	require.True(t, e.Redo(context.Background()))
	if diff := cmp.Diff(after, history.Take(e.Graph)); diff != "" {
		t.Errorf("redo mismatch (-want +got):\n%s", diff)
	}
}

func TestSetState(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")

	assert.ErrorIs(t, e.SetState(a.ID, graph.StateUnavailable), ErrStateNotSelectable)
	require.NoError(t, e.SetState(a.ID, graph.StateComplete))
	assert.Equal(t, graph.StateComplete, state(e, a.ID), "complete survives the rule pass")

	require.NoError(t, e.SetState(a.ID, graph.StateInProgress))
	assert.Equal(t, graph.StateUnavailable, state(e, a.ID), "orphan rule locks it again")
}

func TestSetExpAndShape(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")

	assert.ErrorIs(t, e.SetExp(a.ID, graph.Ref(-1)), ErrInvalidExp)
	require.NoError(t, e.SetExp(a.ID, graph.Ref(40)))
	assert.Equal(t, 40, e.Graph.Node(a.ID).ExpValue())
	require.NoError(t, e.SetExp(a.ID, nil))
	assert.Nil(t, e.Graph.Node(a.ID).Exp)

	assert.Error(t, e.SetShape(a.ID, "blob"))
	require.NoError(t, e.SetShape(a.ID, graph.ShapeStar))
	assert.Equal(t, graph.ShapeStar, e.Graph.Node(a.ID).Shape)
}

func TestReroute(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(300, 0, "")
	c, _ := e.AddNode(0, 300, "")
	ed, _ := e.Connect(a.ID, b.ID, "", "")
	require.NoError(t, e.SetState(b.ID, graph.StateComplete))

	past, _ := e.History.Len()
	err := e.Reroute(ed.ID, EndTo, a.ID, "")
	assert.ErrorIs(t, err, graph.ErrSelfLoop)
	got := e.Graph.EdgeByID(ed.ID)
	assert.Equal(t, b.ID, *got.To, "invalid reroute leaves the edge alone")
	after, _ := e.History.Len()
	assert.Equal(t, past, after)

	require.NoError(t, e.Reroute(ed.ID, EndTo, c.ID, ""))
	got = e.Graph.EdgeByID(ed.ID)
	assert.Equal(t, c.ID, *got.To)
	assert.Equal(t, geom.SideTop, got.ToSide)
	assert.Equal(t, graph.StateUnavailable, state(e, b.ID), "disconnected node is locked even if complete")
}

func TestDeleteEdgeAndNode(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(300, 0, "")
	c, _ := e.AddNode(600, 0, "")
	ab, _ := e.Connect(a.ID, b.ID, "", "")
	_, _ = e.Connect(b.ID, c.ID, "", "")
	require.NoError(t, e.SetState(a.ID, graph.StateComplete))

	require.NoError(t, e.DeleteEdge(ab.ID))
	assert.Equal(t, graph.StateUnavailable, state(e, a.ID))
	assert.ErrorIs(t, e.DeleteEdge(ab.ID), graph.ErrEdgeNotFound)

	require.NoError(t, e.DeleteNode(c.ID))
	assert.Empty(t, e.Graph.Edges)
	assert.Equal(t, graph.StateUnavailable, state(e, b.ID))
	assert.ErrorIs(t, e.DeleteNode(c.ID), graph.ErrNodeNotFound)
}

func TestMoveNodeResidesEdges(t *testing.T) {
	e, _ := newEditor(t, nil)
	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(300, 0, "")
	ed, _ := e.Connect(a.ID, b.ID, "", "")

	p, err := e.MoveNode(a.ID, 300, 400)
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(300, 400), p)
	got := e.Graph.EdgeByID(ed.ID)
	assert.Equal(t, geom.SideTop, got.FromSide)
	assert.Equal(t, geom.SideBottom, got.ToSide)

	require.True(t, e.Undo(context.Background()))
	assert.Equal(t, 0.0, e.Graph.Node(a.ID).Y)
}

func TestLinkFileAndToggleTask(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{"go.md": "# Go\n- [ ] tour\n- [x] install\n"})
	e, w := newEditor(t, docs)
	a, _ := e.AddNode(0, 0, "")

	require.NoError(t, e.LinkFile(ctx, a.ID, "go.md"))
	assert.Equal(t, "/vault/go.md", w.paths[a.ID])
	done, total, ok := e.Tasks.Progress(a.ID)
	require.True(t, ok)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)
	assert.Equal(t, graph.StateUnavailable, state(e, a.ID))

	require.NoError(t, e.ToggleTask(ctx, a.ID, 0))
	assert.Contains(t, docs.get("go.md"), "- [x] tour")
	assert.Equal(t, graph.StateComplete, state(e, a.ID), "all tasks done completes the node")

	assert.ErrorIs(t, e.ToggleTask(ctx, a.ID, 7), ErrTaskNotFound)

	require.NoError(t, e.LinkFile(ctx, a.ID, ""))
	assert.NotContains(t, w.paths, a.ID)
	assert.False(t, e.Tasks.Has(a.ID))
}

func TestToggleTaskWithoutDocument(t *testing.T) {
	e, _ := newEditor(t, newMemDocs(nil))
	a, _ := e.AddNode(0, 0, "")
	assert.ErrorIs(t, e.ToggleTask(context.Background(), a.ID, 0), ErrNoDocument)
}

func TestUnreadableDocumentDegrades(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, newMemDocs(nil))
	a, _ := e.AddNode(0, 0, "")
	require.NoError(t, e.LinkFile(ctx, a.ID, "missing.md"))
	assert.False(t, e.Tasks.Has(a.ID))
	assert.Equal(t, graph.StateUnavailable, state(e, a.ID))
}

func TestRefreshAllAppliesFrontMatter(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{
		"a.md": "---\nskilltree-exp: 120\nskilltree-shape: diamond\n---\n- [x] done\n",
		"b.md": "- [ ] todo\n",
	})
	g := graph.New()
	g.Nodes = []graph.Node{
		{ID: 1, X: 0, Y: 0, FileLink: "a.md"},
		{ID: 2, X: 300, Y: 0, FileLink: "b.md"},
		{ID: 3, X: 600, Y: 0, FileLink: "gone.md"},
	}
	w := &fakeWatch{paths: map[int]string{}}
	e := New(g, docs, w, Options{Concurrency: 2})
	assert.Len(t, w.paths, 3)

	require.NoError(t, e.RefreshAll(ctx))
	n := e.Graph.Node(1)
	assert.Equal(t, 120, n.ExpValue())
	assert.Equal(t, graph.ShapeDiamond, n.Shape)
	assert.Equal(t, graph.StateComplete, n.State)
	assert.Equal(t, graph.StateUnavailable, state(e, 2))
	assert.False(t, e.Tasks.Has(3))
}

func TestSyncFrontMatter(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{
		"a.md": "---\ntitle: A\nskilltree-shape: star\n---\nbody\n",
		"b.md": "plain\n",
	})
	g := graph.New()
	g.Nodes = []graph.Node{
		{ID: 1, X: 0, Y: 0, FileLink: "a.md"},
		{ID: 2, X: 300, Y: 0, FileLink: "b.md", Exp: graph.Ref(5)},
	}
	e := New(g, docs, nil, Options{})
	_, err := e.Connect(1, 2, "", "")
	require.NoError(t, err)

	n, err := e.SyncFrontMatter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ma, err := notes.ReadMeta(docs.get("a.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, *ma.NodeID)
	assert.Equal(t, []int{2}, ma.Requires)
	assert.Equal(t, "star", ma.Shape)
	assert.True(t, strings.Contains(docs.get("a.md"), "title: A"))

	mb, err := notes.ReadMeta(docs.get("b.md"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, mb.Unlocks)
	assert.Equal(t, 5, *mb.Exp)

	n, err = e.SyncFrontMatter(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "unchanged documents are not rewritten")
}

func TestReassignIDRekeysCaches(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{"a.md": "- [ ] x\n"})
	e, w := newEditor(t, docs)
	pos := &keyedCache{}
	e.Track(pos)

	a, _ := e.AddNode(0, 0, "")
	b, _ := e.AddNode(300, 0, "")
	_, _ = e.Connect(a.ID, b.ID, "", "")
	require.NoError(t, e.LinkFile(ctx, a.ID, "a.md"))
	pos.Set(a.ID, "orbit")

	assert.ErrorIs(t, e.ReassignID(a.ID, b.ID), graph.ErrDuplicateNode)
	require.NoError(t, e.ReassignID(a.ID, 10))

	assert.True(t, e.Tasks.Has(10))
	assert.False(t, e.Tasks.Has(a.ID))
	assert.True(t, pos.Has(10))
	assert.Equal(t, "/vault/a.md", w.paths[10])
	assert.Equal(t, 10, *e.Graph.Edges[0].From)
}

func TestResolveDuplicateIDs(t *testing.T) {
	g := graph.New()
	g.Nodes = []graph.Node{{ID: 1}, {ID: 1, X: 300}, {ID: 2, X: 600}}
	e := New(g, nil, nil, Options{})
	assert.Equal(t, []int{1, 2, 3}, e.Graph.NodeIDs(), "repaired on load")
	assert.Empty(t, e.ResolveDuplicateIDs())
}

func TestResetTearsDown(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{"a.md": "- [x] x\n"})
	e, w := newEditor(t, docs)
	pos := &keyedCache{}
	e.Track(pos)
	a, _ := e.AddNode(0, 0, "")
	require.NoError(t, e.LinkFile(ctx, a.ID, "a.md"))
	pos.Set(a.ID, "orbit")

	next := graph.New()
	next.Nodes = []graph.Node{{ID: 7, FileLink: "a.md"}}
	e.Reset(next)

	assert.Equal(t, map[int]string{7: "/vault/a.md"}, w.paths)
	assert.False(t, e.Tasks.Has(a.ID))
	assert.Zero(t, pos.Len())
	assert.False(t, e.History.CanUndo())
}

func TestUndoRenameMovesTasksBack(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{"a.md": "- [ ] one\n- [x] two\n"})
	e, w := newEditor(t, docs)
	layout := &keyedCache{}
	e.Track(layout)
	a, _ := e.AddNode(0, 0, "")
	require.NoError(t, e.LinkFile(ctx, a.ID, "a.md"))
	layout.Set(a.ID, "orbit")

	require.NoError(t, e.ReassignID(a.ID, 10))
	require.True(t, e.Undo(ctx))

	assert.True(t, e.Tasks.Has(a.ID), "tasks follow the restored id")
	assert.Equal(t, []int{a.ID}, e.Tasks.Keys())
	assert.Equal(t, map[int]string{a.ID: "/vault/a.md"}, w.paths)
	_, ok := layout.Get(10)
	assert.False(t, ok, "no entry left under the undone id")
	require.NoError(t, e.ToggleTask(ctx, a.ID, 0))

	require.True(t, e.Redo(ctx))
	assert.True(t, e.Tasks.Has(10))
	assert.Equal(t, []int{10}, e.Tasks.Keys())
	assert.Equal(t, map[int]string{10: "/vault/a.md"}, w.paths)
}

func TestUndoDeleteRestoresTasks(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs(map[string]string{"a.md": "- [x] one\n- [x] two\n"})
	e, w := newEditor(t, docs)
	a, _ := e.AddNode(0, 0, "")
	require.NoError(t, e.LinkFile(ctx, a.ID, "a.md"))
	require.Equal(t, graph.StateComplete, state(e, a.ID))

	require.NoError(t, e.DeleteNode(a.ID))
	assert.Empty(t, e.Tasks.Keys())
	assert.Empty(t, w.paths)

	require.True(t, e.Undo(ctx))
	done, total, ok := e.Tasks.Progress(a.ID)
	require.True(t, ok, "restored node has its tasks again")
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
	assert.Equal(t, "/vault/a.md", w.paths[a.ID])
	assert.Equal(t, graph.StateComplete, state(e, a.ID))
}

func TestUndoLinkDropsTasks(t *testing.T) {
	ctx := context.Background()
	e, w := newEditor(t, newMemDocs(map[string]string{"a.md": "- [ ] one\n"}))
	a, _ := e.AddNode(0, 0, "")
	require.NoError(t, e.LinkFile(ctx, a.ID, "a.md"))

	require.True(t, e.Undo(ctx))
	assert.Empty(t, e.Graph.Node(a.ID).FileLink)
	assert.Empty(t, e.Tasks.Keys())
	assert.Empty(t, w.paths)
}

func TestBatchIsOneUndoStep(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, newMemDocs(map[string]string{"a.md": "- [ ] one\n"}))
	exp := 50
	var id int
	require.NoError(t, e.Batch(func() error {
		n, err := e.AddNode(0, 0, graph.ShapeStar)
		if err != nil {
			return err
		}
		id = n.ID
		if err := e.SetExp(id, &exp); err != nil {
			return err
		}
		return e.LinkFile(ctx, id, "a.md")
	}))
	past, _ := e.History.Len()
	assert.Equal(t, 1, past)
	assert.Equal(t, 50, e.Graph.Node(id).ExpValue())

	require.True(t, e.Undo(ctx))
	assert.Empty(t, e.Graph.Nodes)
	assert.Empty(t, e.Tasks.Keys())
	assert.False(t, e.History.Suppressed())
}

func TestConnectFindsDuplicateWithNegativeID(t *testing.T) {
	g := graph.New()
	g.Nodes = []graph.Node{{ID: 1}, {ID: 2, X: 300}}
	g.Edges = []graph.Edge{{ID: -1, From: graph.Ref(1), To: graph.Ref(2)}}
	e := New(g, nil, nil, Options{Seed: 1})

	_, err := e.Connect(1, 2, "", "")
	assert.ErrorIs(t, err, graph.ErrDuplicateEdge)
}

type listingDocs struct {
	*memDocs
	calls int
}

func (l *listingDocs) Tasks(ctx context.Context, link string) ([]tasks.Task, error) {
	l.calls++
	content, err := l.Read(ctx, link)
	if err != nil {
		return nil, err
	}
	return tasks.Parse(content), nil
}

func TestLoadUsesDocumentTaskLister(t *testing.T) {
	ctx := context.Background()
	docs := &listingDocs{memDocs: newMemDocs(map[string]string{
		"a.md": "---\nskilltree-id: 7\n---\n- [ ] one\n",
	})}
	var buf strings.Builder
	log := slog.New(slog.NewTextHandler(&buf, nil))
	e := New(graph.New(), docs, nil, Options{Seed: 1})
	a, _ := e.AddNode(0, 0, "")

	require.NoError(t, e.LinkFile(ctxlog.WithLogger(ctx, log), a.ID, "a.md"))
	assert.Equal(t, 1, docs.calls)
	assert.True(t, e.Tasks.Has(a.ID))
	assert.Contains(t, buf.String(), "front matter names another node")
}
