package editor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/skilltree/internal/ctxlog"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/notes"
	"github.com/msalah0e/skilltree/internal/rules"
	"github.com/msalah0e/skilltree/internal/tasks"
)

// watchLinked brings the watcher registry in line with the graph: every
// linked node is watched and nothing else is.
func (e *Editor) watchLinked() {
	if e.watch == nil || e.docs == nil {
		return
	}
	live := map[int]bool{}
	for _, n := range e.Graph.Nodes {
		if n.FileLink != "" {
			live[n.ID] = true
			e.watchNode(n)
		}
	}
	for id := range e.watched {
		if !live[id] {
			e.watch.Unwatch(id)
			delete(e.watched, id)
		}
	}
}

func (e *Editor) watchNode(n graph.Node) {
	if e.watch == nil || e.docs == nil {
		return
	}
	if err := e.watch.Watch(n.ID, e.docs.Path(n.FileLink)); err != nil {
		e.log.Warn("watch document", "node", n.ID, "link", n.FileLink, "err", err)
		return
	}
	e.watched[n.ID] = true
}

// LinkFile attaches a document to a node and loads its tasks. An empty link
// detaches the current one.
func (e *Editor) LinkFile(ctx context.Context, id int, link string) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	e.Checkpoint()
	n.FileLink = link
	if link == "" {
		e.Tasks.Delete(id)
		if e.watch != nil && e.watched[id] {
			e.watch.Unwatch(id)
			delete(e.watched, id)
		}
		e.propagate()
		return nil
	}
	e.watchNode(*n)
	return e.RefreshTasks(ctx, id)
}

// loaded is one document read, kept apart from the graph until it is applied
// on the caller's goroutine.
type loaded struct {
	id    int
	tasks []tasks.Task
	meta  notes.Meta
	err   error
}

// parsed adapts Documents that cannot list tasks themselves.
type parsed struct{ docs Documents }

func (p parsed) Tasks(ctx context.Context, link string) ([]tasks.Task, error) {
	content, err := p.docs.Read(ctx, link)
	if err != nil {
		return nil, err
	}
	return tasks.Parse(content), nil
}

func (e *Editor) load(ctx context.Context, id int, link string) loaded {
	ts, err := e.lists.Tasks(ctx, link)
	if err != nil {
		return loaded{id: id, err: err}
	}
	l := loaded{id: id, tasks: ts}
	content, err := e.docs.Read(ctx, link)
	if err != nil {
		return l
	}
	if meta, err := notes.ReadMeta(content); err != nil {
		ctxlog.FromContext(ctx).Warn("front matter unreadable", "node", id, "link", link, "err", err)
	} else {
		l.meta = meta
	}
	return l
}

// apply stores one read. A failed read leaves the node without tasks.
func (e *Editor) apply(ctx context.Context, l loaded) {
	if l.err != nil {
		ctxlog.FromContext(ctx).Warn("document unreadable", "node", l.id, "err", l.err)
		e.Tasks.Delete(l.id)
		return
	}
	e.Tasks.Set(l.id, l.tasks)
	n := e.Graph.Node(l.id)
	if n == nil {
		return
	}
	if l.meta.NodeID != nil && *l.meta.NodeID != l.id {
		ctxlog.FromContext(ctx).Warn("front matter names another node", "node", l.id, "link", n.FileLink, "skilltree-id", *l.meta.NodeID)
	}
	if l.meta.Exp != nil {
		n.Exp = graph.Ref(*l.meta.Exp)
	}
	if sh := graph.Shape(l.meta.Shape); sh != "" && sh.Valid() {
		n.Shape = sh
	}
}

// RefreshTasks re-reads the document linked to a node. Read failures are
// logged and degrade to "no tasks"; only a missing node is an error.
func (e *Editor) RefreshTasks(ctx context.Context, id int) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	if n.FileLink == "" || e.docs == nil {
		e.Tasks.Delete(id)
		e.propagate()
		return nil
	}
	l := e.load(ctx, id, n.FileLink)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	e.apply(ctx, l)
	rules.ApplyTaskCompletion(e.Graph, id, e.Tasks)
	return nil
}

// HandleChange reacts to a watcher notification.
func (e *Editor) HandleChange(ctx context.Context, c notes.Change) error {
	if !e.Graph.HasNode(c.ID) {
		return nil
	}
	return e.RefreshTasks(ctx, c.ID)
}

// RefreshAll reads every linked document concurrently. Results are applied
// here in node order once all reads finish, so the graph is only touched by
// the calling goroutine.
func (e *Editor) RefreshAll(ctx context.Context) error {
	if e.docs == nil {
		return nil
	}
	type job struct {
		id   int
		link string
	}
	var jobs []job
	for _, n := range e.Graph.Nodes {
		if n.FileLink != "" {
			jobs = append(jobs, job{n.ID, n.FileLink})
		}
	}

	results := make([]loaded, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = e.load(gctx, j.id, j.link)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, l := range results {
		e.apply(ctx, l)
	}
	e.propagate()
	for _, l := range results {
		if l.err == nil {
			rules.ApplyTaskCompletion(e.Graph, l.id, e.Tasks)
		}
	}
	return nil
}

// ToggleTask flips one task of a node. The cache and derived states update
// at once; the document is written afterwards and re-read after the settle
// delay.
func (e *Editor) ToggleTask(ctx context.Context, id, index int) error {
	n, err := e.node(id)
	if err != nil {
		return err
	}
	if n.FileLink == "" || e.docs == nil {
		return fmt.Errorf("%w: %d", ErrNoDocument, id)
	}
	ts, _ := e.Tasks.Get(id)
	if index < 0 || index >= len(ts) {
		return fmt.Errorf("%w: node %d task %d", ErrTaskNotFound, id, index)
	}
	task := ts[index]
	link := n.FileLink

	e.Tasks.SetCompleted(id, index, !task.Completed)
	rules.ApplyTaskCompletion(e.Graph, id, e.Tasks)

	content, err := e.docs.Read(ctx, link)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("toggle task: read", "node", id, "err", err)
		return nil
	}
	next, _, err := tasks.Toggle(content, task.Line)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("toggle task: document changed", "node", id, "line", task.Line, "err", err)
		return e.RefreshTasks(ctx, id)
	}
	if err := e.docs.Write(ctx, link, next); err != nil {
		ctxlog.FromContext(ctx).Warn("toggle task: write", "node", id, "err", err)
		return nil
	}
	if err := sleep(ctx, e.opts.Settle); err != nil {
		return err
	}
	return e.RefreshTasks(ctx, id)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SyncFrontMatter writes each linked node's id, parents and children into
// its document's front matter. Writes run concurrently; failures are logged
// and counted.
func (e *Editor) SyncFrontMatter(ctx context.Context) (written int, err error) {
	if e.docs == nil {
		return 0, nil
	}
	type job struct {
		link string
		upd  notes.Update
	}
	var jobs []job
	for _, n := range e.Graph.Nodes {
		if n.FileLink == "" {
			continue
		}
		upd := notes.Update{
			ID:       n.ID,
			Requires: e.Graph.ParentsOf(n.ID),
			Unlocks:  e.Graph.ChildrenOf(n.ID),
			Shape:    string(n.Shape),
		}
		if n.Exp != nil {
			upd.Exp = graph.Ref(*n.Exp)
		}
		jobs = append(jobs, job{n.FileLink, upd})
	}

	log := ctxlog.FromContext(ctx)
	done := make([]bool, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			content, err := e.docs.Read(gctx, j.link)
			if err != nil {
				log.Warn("front matter: read", "link", j.link, "err", err)
				return nil
			}
			next, err := notes.WriteMeta(content, j.upd)
			if err != nil {
				log.Warn("front matter: encode", "link", j.link, "err", err)
				return nil
			}
			if next == content {
				return nil
			}
			if err := e.docs.Write(gctx, j.link, next); err != nil {
				log.Warn("front matter: write", "link", j.link, "err", err)
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()
	for _, ok := range done {
		if ok {
			written++
		}
	}
	return written, ctx.Err()
}
