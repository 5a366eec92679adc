package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/render"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "node",
		Aliases: []string{"n"},
		Short:   "Add, move and edit nodes",
	}

	cmd.AddCommand(
		nodeAddCmd(),
		nodeRemoveCmd(),
		nodeMoveCmd(),
		nodeStateCmd(),
		nodeExpCmd(),
		nodeShapeCmd(),
		nodeLinkCmd(),
		nodeIDCmd(),
	)
	return cmd
}

func parseShape(s string) graph.Shape {
	if s == "" {
		return ""
	}
	sh, err := graph.ParseShape(s)
	if err != nil {
		fatal("%v (one of %s)", err, shapeNames())
	}
	return sh
}

func shapeNames() string {
	names := make([]string, len(graph.Shapes))
	for i, sh := range graph.Shapes {
		names[i] = string(sh)
	}
	return strings.Join(names, ", ")
}

func nodeAddCmd() *cobra.Command {
	var (
		x, y  float64
		shape string
		exp   int
		link  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a node, nudged clear of its neighbours",
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			var n graph.Node
			check(s.ed.Batch(func() error {
				var err error
				if n, err = s.ed.AddNode(x, y, parseShape(shape)); err != nil {
					return err
				}
				if cmd.Flags().Changed("exp") {
					if err := s.ed.SetExp(n.ID, &exp); err != nil {
						return err
					}
				}
				if link != "" {
					return s.ed.LinkFile(s.ctx, n.ID, link)
				}
				return nil
			}))
			n = *s.ed.Graph.Node(n.ID)
			s.commit("node-add", "node %d at %.0f,%.0f", n.ID, n.X, n.Y)
			ui.Good.Printf("  %s Added node %s at (%.0f, %.0f)\n", ui.StatusIcon(true), ui.Brand.Sprint(n.ID), n.X, n.Y)
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "X position")
	cmd.Flags().Float64Var(&y, "y", 0, "Y position")
	cmd.Flags().StringVar(&shape, "shape", "", "Shape: "+shapeNames())
	cmd.Flags().IntVar(&exp, "exp", 0, "Experience points")
	cmd.Flags().StringVar(&link, "link", "", "Linked note, relative to the vault")
	return cmd
}

func nodeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <id>",
		Aliases:           []string{"remove", "delete"},
		Short:             "Delete a node and its edges",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			check(s.ed.DeleteNode(id))
			s.commit("node-rm", "node %d", id)
			ui.Good.Printf("  %s Deleted node %d\n", ui.StatusIcon(true), id)
		},
	}
}

func nodeMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "move <id> <x> <y>",
		Aliases:           []string{"mv"},
		Short:             "Move a node",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			x, errX := strconv.ParseFloat(args[1], 64)
			y, errY := strconv.ParseFloat(args[2], 64)
			if errX != nil || errY != nil {
				fatal("Invalid position %s,%s", args[1], args[2])
			}
			p, err := s.ed.MoveNode(id, x, y)
			check(err)
			s.commit("node-move", "node %d to %.0f,%.0f", id, p.X, p.Y)
			ui.Good.Printf("  %s Node %d at (%.0f, %.0f)\n", ui.StatusIcon(true), id, p.X, p.Y)
			if p.X != x || p.Y != y {
				fmt.Printf("  %s\n", ui.Subtle.Sprint("Moved clear of an overlapping node"))
			}
		},
	}
}

func nodeStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "state <id> <complete|in-progress>",
		Short:             "Mark a node complete or in progress",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			st, err := graph.ParseState(args[1])
			check(err)
			check(s.ed.SetState(id, st))
			n := s.ed.Graph.Node(id)
			s.commit("node-state", "node %d %s", id, st)
			ui.Good.Printf("  %s Node %d is %s\n", ui.StatusIcon(true), id, ui.StateIcon(n.State)+" "+string(n.State))
		},
	}
}

func nodeExpCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "exp <id> <points|none>",
		Short:             "Set or clear a node's experience points",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			var exp *int
			if args[1] != "none" {
				v, err := strconv.Atoi(args[1])
				if err != nil {
					fatal("Invalid exp %q", args[1])
				}
				exp = &v
			}
			check(s.ed.SetExp(id, exp))
			s.commit("node-exp", "node %d exp %s", id, args[1])
			ui.Good.Printf("  %s Node %d exp %s\n", ui.StatusIcon(true), id, args[1])
		},
	}
}

func nodeShapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "shape <id> <shape>",
		Short:             "Change a node's shape",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			sh := parseShape(args[1])
			check(s.ed.SetShape(id, sh))
			s.commit("node-shape", "node %d %s", id, sh)
			ui.Good.Printf("  %s Node %d is a %s\n", ui.StatusIcon(true), id, sh)
		},
	}
}

func nodeLinkCmd() *cobra.Command {
	var unlink bool

	cmd := &cobra.Command{
		Use:               "link <id> [note]",
		Short:             "Link a note whose checkboxes drive the node",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			link := ""
			switch {
			case unlink:
			case len(args) == 2:
				link = args[1]
			default:
				n := s.ed.Graph.Node(id)
				if n == nil {
					fatal("node %d not found", id)
				}
				link = fmt.Sprintf("%s/%d.md", cfg.Notes.DefaultPath, id)
			}
			if link != "" && !s.vault.Exists(link) {
				fmt.Printf("  %s %s does not exist yet\n", ui.WarnIcon(), s.vault.Path(link))
			}
			check(s.ed.LinkFile(s.ctx, id, link))
			n := s.ed.Graph.Node(id)
			s.commit("node-link", "node %d %q", id, link)
			if link == "" {
				ui.Good.Printf("  %s Unlinked node %d\n", ui.StatusIcon(true), id)
				return
			}
			ts, _ := s.ed.Tasks.Get(id)
			ui.Good.Printf("  %s Linked node %d to %s\n", ui.StatusIcon(true), id, ui.Brand.Sprint(render.Title(*n)))
			fmt.Printf("  %d tasks, %s\n", len(ts), ui.StateIcon(n.State)+" "+string(n.State))
		},
	}

	cmd.Flags().BoolVar(&unlink, "unlink", false, "Remove the current link")
	return cmd
}

func nodeIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "id <old> <new>",
		Short:             "Give a node a new id, updating its edges",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			oldID, newID := parseID(args[0]), parseID(args[1])
			check(s.ed.ReassignID(oldID, newID))
			s.commit("node-id", "node %d to %d", oldID, newID)
			ui.Good.Printf("  %s Node %d is now %d\n", ui.StatusIcon(true), oldID, newID)
		},
	}
}
