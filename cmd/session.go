package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/msalah0e/skilltree/internal/activity"
	"github.com/msalah0e/skilltree/internal/ctxlog"
	"github.com/msalah0e/skilltree/internal/editor"
	"github.com/msalah0e/skilltree/internal/interact"
	"github.com/msalah0e/skilltree/internal/notes"
	"github.com/msalah0e/skilltree/internal/store"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

// session is one opened tree: the store, an editor over the current tree
// and the layout that sizes its nodes.
type session struct {
	ctx     context.Context
	log     *slog.Logger
	store   *store.Manager
	ed      *editor.Editor
	layout  *interact.Layout
	vault   *notes.Vault
	watcher *notes.Watcher
}

// fatal prints a red message and exits 1.
func fatal(format string, args ...any) {
	ui.Bad.Printf("  "+format+"\n", args...)
	os.Exit(1)
}

func openStore(cmd *cobra.Command) *store.Manager {
	st, err := store.Open("")
	if err != nil {
		fatal("Failed to load trees: %v", err)
	}
	if treeFlag != "" && treeFlag != st.CurrentName() {
		if _, err := st.Switch(treeFlag, nil); err != nil {
			fatal("%v", err)
		}
	}
	return st
}

// openSession loads the current tree (after --tree) into an editor. With
// watch set, linked documents are registered with an fsnotify watcher.
func openSession(cmd *cobra.Command, watch bool) *session {
	ctx := cmd.Context()
	log := ctxlog.FromContext(ctx)
	st := openStore(cmd)

	s := &session{ctx: ctx, log: log, store: st, vault: notes.NewVault(cfg.Notes.VaultDir)}
	s.layout = interact.NewLayout(cfg.Canvas)

	var w editor.Watcher
	if watch {
		nw, err := notes.NewWatcher(cfg.Debounce(), log)
		if err != nil {
			fatal("Failed to start watcher: %v", err)
		}
		s.watcher = nw
		w = nw
	}

	s.ed = editor.New(&st.Current().Graph, s.vault, w, editor.Options{
		HistoryLimit:    cfg.History.Limit,
		Settle:          cfg.Settle(),
		Concurrency:     cfg.Parallel.Concurrency,
		CollisionMargin: cfg.Interaction.CollisionMargin,
		Radius:          s.layout.Radius,
		Logger:          log,
	})
	s.ed.History = st.LoadHistory(st.CurrentName(), cfg.History.Limit)
	if err := s.ed.RefreshAll(ctx); err != nil {
		log.Warn("load documents", "tree", st.CurrentName(), "err", err)
	}
	return s
}

func (s *session) tree() string { return s.store.CurrentName() }

// commit persists the tree and its history, then journals the action.
func (s *session) commit(action, format string, args ...any) {
	if err := s.store.Save(); err != nil {
		fatal("Failed to save trees: %v", err)
	}
	if err := s.store.SaveHistory(s.tree(), s.ed.History); err != nil {
		s.log.Warn("save history", "tree", s.tree(), "err", err)
	}
	if err := activity.Logf(action, s.tree(), format, args...); err != nil {
		s.log.Debug("activity log", "err", err)
	}
}

func (s *session) close() {
	s.ed.Close()
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

// check exits on a failed mutation.
func check(err error) {
	if err == nil {
		return
	}
	fatal("%v", err)
}

func parseID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fatal("Invalid node id %q", arg)
	}
	return id
}

func parseEdgeID(arg string) float64 {
	id, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		fatal("Invalid edge id %q", arg)
	}
	return id
}

// formatEdgeID prints whole ids without a fraction.
func formatEdgeID(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}

func treeCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	st, err := store.Open("")
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return st.Names(), cobra.ShellCompDirectiveNoFileComp
}

func nodeCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	st, err := store.Open("")
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, n := range st.Current().Nodes {
		out = append(out, fmt.Sprintf("%d\t%s", n.ID, n.FileLink))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
