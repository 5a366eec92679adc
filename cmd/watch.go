package cmd

import (
	"fmt"

	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/render"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow linked notes and update node states as checkboxes change",
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, true)
			defer s.close()

			ui.Banner("watch " + s.tree())
			linked := 0
			for _, n := range s.ed.Graph.Nodes {
				if n.FileLink != "" {
					linked++
				}
			}
			if linked == 0 {
				fmt.Println("  No linked notes to watch.")
				fmt.Println("  Link one with `skilltree node link <id> <note>`")
				return
			}
			fmt.Printf("  Watching %d notes under %s\n", linked, ui.Brand.Sprint(cfg.Notes.VaultDir))
			fmt.Printf("  %s\n\n", ui.Subtle.Sprint("Ctrl+C to stop"))

			changes := s.watcher.Changes()
			for {
				select {
				case <-s.ctx.Done():
					return
				case ch, ok := <-changes:
					if !ok {
						return
					}
					before := states(s)
					if err := s.ed.HandleChange(s.ctx, ch); err != nil {
						s.log.Warn("document change", "node", ch.ID, "path", ch.Path, "err", err)
						continue
					}
					s.commit("watch", "node %d %s", ch.ID, ch.Path)
					for _, n := range s.ed.Graph.Nodes {
						if before[n.ID] != n.State {
							fmt.Printf("  %s %s %s\n", ui.StateIcon(n.State), ui.Brand.Sprint(render.Title(n)), n.State)
						}
					}
				}
			}
		},
	}
}

func states(s *session) map[int]graph.State {
	m := make(map[int]graph.State, len(s.ed.Graph.Nodes))
	for _, n := range s.ed.Graph.Nodes {
		m[n.ID] = n.State
	}
	return m
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Write node ids and links into the front matter of linked notes",
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			written, err := s.ed.SyncFrontMatter(s.ctx)
			if err != nil {
				fatal("%v", err)
			}
			s.commit("sync", "%d notes", written)
			ui.Good.Printf("  %s Updated %d notes\n", ui.StatusIcon(true), written)
		},
	}
}
