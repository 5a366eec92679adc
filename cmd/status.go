package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/render"
	"github.com/msalah0e/skilltree/internal/tasks"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise the current tree",
		Run: func(cmd *cobra.Command, args []string) {
			runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) {
	s := openSession(cmd, false)
	defer s.close()

	ui.Banner(s.tree())
	g := s.ed.Graph
	if len(g.Nodes) == 0 {
		fmt.Println("  Empty tree. Get started:")
		fmt.Println()
		ui.Info.Println("  skilltree node add --x 0 --y 0")
		ui.Info.Println("  skilltree edge add <child> <parent>")
		return
	}

	counts := map[graph.State]int{}
	earned, total := 0, 0
	for _, n := range g.Nodes {
		counts[n.State]++
		total += n.ExpValue()
		if n.State == graph.StateComplete {
			earned += n.ExpValue()
		}
	}

	ui.Field("Nodes", len(g.Nodes))
	ui.Field("Edges", len(g.Edges))
	for _, st := range []graph.State{graph.StateComplete, graph.StateInProgress, graph.StateUnavailable} {
		ui.Field(string(st), fmt.Sprintf("%s %d", ui.StateIcon(st), counts[st]))
	}
	if total > 0 {
		ui.Field("Experience", fmt.Sprintf("%s %d/%d", ui.Meter(earned, total, 20), earned, total))
	}
	fmt.Println()
	fmt.Printf("  %s\n", ui.Subtle.Sprintf("%d trees in %s", len(s.store.Names()), s.store.Path()))
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"ls"},
		Short:   "List the nodes and edges of the current tree",
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			ui.Banner(s.tree())
			g := s.ed.Graph
			var rows [][]string
			for _, n := range g.Nodes {
				ts, _ := s.ed.Tasks.Get(n.ID)
				progress := "-"
				if len(ts) > 0 {
					done, all := tasks.Count(ts)
					progress = fmt.Sprintf("%d/%d", done, all)
				}
				rows = append(rows, []string{
					strconv.Itoa(n.ID),
					ui.StateIcon(n.State) + " " + string(n.State),
					render.Title(n),
					dash(render.ExpLabel(n, ts, cfg.Canvas.ExpDisplay)),
					progress,
					joinIDs(g.ParentsOf(n.ID)),
					joinIDs(g.ChildrenOf(n.ID)),
				})
			}
			if len(rows) == 0 {
				fmt.Println("  No nodes.")
				return
			}
			ui.Table([]string{"ID", "State", "Title", "Exp", "Tasks", "Requires", "Unlocks"}, rows)
			fmt.Printf("\n  %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
		},
	}
}

func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
