// Package server exposes one open skill tree over HTTP together with a
// small browser canvas that feeds pointer and keyboard input back into the
// interaction controller.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gofiber/fiber/v3"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/ctxlog"
	"github.com/msalah0e/skilltree/internal/editor"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/interact"
	"github.com/msalah0e/skilltree/internal/notes"
	"github.com/msalah0e/skilltree/internal/render"
	"github.com/msalah0e/skilltree/internal/store"
)

//go:embed index.html
var page string

// Server serialises every request on one mutex, so events reach the
// controller one at a time and in order.
type Server struct {
	mu    sync.Mutex
	store *store.Manager
	ed    *editor.Editor
	ctl   *interact.Controller
	cfg   *config.Config
	log   *slog.Logger
	app   *fiber.App
}

// New serves the store's current tree, which ed must be editing.
func New(st *store.Manager, ctl *interact.Controller, cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: st, ed: ctl.Editor, ctl: ctl, cfg: cfg, log: log, app: fiber.New()}
	s.routes()
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) ctx(c fiber.Ctx) context.Context {
	return ctxlog.WithLogger(c.Context(), s.log)
}

func (s *Server) scene() Scene {
	return BuildScene(s.store.CurrentName(), s.ctl, s.cfg.Canvas.ExpDisplay)
}

// persist writes the tree and its history.
func (s *Server) persist() error {
	if err := s.store.Save(); err != nil {
		return err
	}
	return s.store.SaveHistory(s.store.CurrentName(), s.ed.History)
}

func fail(c fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) routes() {
	s.app.Get("/", func(c fiber.Ctx) error {
		return c.Type("html").SendString(page)
	})

	// ── Tree ──────────────────────────────────────────────────────────
	s.app.Get("/api/tree", func(c fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(s.scene())
	})

	s.app.Get("/api/trees", func(c fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(fiber.Map{"current": s.store.CurrentName(), "trees": s.store.Names()})
	})

	s.app.Post("/api/trees/:name/switch", func(c fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		err = s.switchTree(s.ctx(c), name)
		if errors.Is(err, store.ErrTreeNotFound) {
			return fail(c, fiber.StatusNotFound, err)
		}
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, err)
		}
		return c.JSON(s.scene())
	})

	s.app.Get("/api/render.png", func(c fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		var buf bytes.Buffer
		opts := render.Options{ExpDisplay: s.cfg.Canvas.ExpDisplay}
		if err := render.PNG(&buf, s.ed.Graph, s.ctl.Layout, s.ed.Tasks, opts); err != nil {
			return fail(c, fiber.StatusInternalServerError, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})

	// ── Input ─────────────────────────────────────────────────────────
	s.app.Post("/api/events", func(c fiber.Ctx) error {
		var w interact.Wire
		if err := c.Bind().JSON(&w); err != nil {
			return fail(c, fiber.StatusBadRequest, errors.New("invalid body"))
		}
		ev, err := w.Event()
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		redraw := s.ctl.Dispatch(s.ctx(c), ev)
		// moves only matter once the drag ends
		if _, move := ev.(interact.PointerMove); redraw && !move {
			if err := s.persist(); err != nil {
				return fail(c, fiber.StatusInternalServerError, err)
			}
		}
		return c.JSON(fiber.Map{"redraw": redraw, "scene": s.scene()})
	})

	s.app.Post("/api/undo", func(c fiber.Ctx) error {
		return s.step(c, s.ed.Undo)
	})

	s.app.Post("/api/redo", func(c fiber.Ctx) error {
		return s.step(c, s.ed.Redo)
	})
}

func (s *Server) step(c fiber.Ctx, fn func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctl.Sel = interact.Selection{}
	changed := fn()
	if changed {
		if err := s.persist(); err != nil {
			return fail(c, fiber.StatusInternalServerError, err)
		}
	}
	return c.JSON(fiber.Map{"changed": changed, "scene": s.scene()})
}

// switchTree persists the outgoing tree with its history, tears down its
// caches and watchers, then loads the incoming tree and its documents.
func (s *Server) switchTree(ctx context.Context, name string) error {
	if name == s.store.CurrentName() {
		return nil
	}
	if _, err := s.store.Tree(name); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		return err
	}
	_, err := s.store.Switch(name, func(*graph.Tree) { s.ed.Close() })
	if err != nil {
		return err
	}
	s.ed.Reset(&s.store.Current().Graph)
	s.ed.History = s.store.LoadHistory(name, s.cfg.History.Limit)
	s.ctl.Sel = interact.Selection{}
	s.ctl.View = interact.NewViewport()
	if err := s.ed.RefreshAll(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("load documents", "tree", name, "err", err)
	}
	return nil
}

// Follow applies document change notifications until ctx ends or changes
// is closed.
func (s *Server) Follow(ctx context.Context, changes <-chan notes.Change) {
	ctx = ctxlog.WithLogger(ctx, s.log)
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			s.mu.Lock()
			if err := s.ed.HandleChange(ctx, ch); err != nil {
				s.log.Warn("document change", "node", ch.ID, "path", ch.Path, "err", err)
			} else if err := s.persist(); err != nil {
				s.log.Warn("persist", "err", err)
			}
			s.mu.Unlock()
		}
	}
}
