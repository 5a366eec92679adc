package cmd

import (
	"fmt"

	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last change to the current tree",
		Run: func(cmd *cobra.Command, args []string) {
			step(cmd, "undo")
		},
	}
}

func redoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone change",
		Run: func(cmd *cobra.Command, args []string) {
			step(cmd, "redo")
		},
	}
}

func step(cmd *cobra.Command, action string) {
	s := openSession(cmd, false)
	defer s.close()

	fn := s.ed.Undo
	if action == "redo" {
		fn = s.ed.Redo
	}
	if !fn(s.ctx) {
		fmt.Printf("  Nothing to %s.\n", action)
		return
	}
	s.commit(action, "%d nodes, %d edges", len(s.ed.Graph.Nodes), len(s.ed.Graph.Edges))
	ui.Good.Printf("  %s %s: %d nodes, %d edges\n", ui.StatusIcon(true), action, len(s.ed.Graph.Nodes), len(s.ed.Graph.Edges))
}
