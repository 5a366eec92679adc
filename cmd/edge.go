package cmd

import (
	"fmt"
	"strconv"

	"github.com/msalah0e/skilltree/internal/editor"
	"github.com/msalah0e/skilltree/internal/geom"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func edgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edge",
		Aliases: []string{"e"},
		Short:   "Connect nodes with prerequisite edges",
		Long: `An edge runs from a child to the parent it unlocks. The parent stays
unavailable until every child pointing at it is complete.

  skilltree edge add 1 2      # 2 requires 1
  skilltree edge rm 3
  skilltree edge reroute 3 to 4`,
		Run: func(cmd *cobra.Command, args []string) {
			edgeListCmd().Run(cmd, args)
		},
	}

	cmd.AddCommand(
		edgeAddCmd(),
		edgeRemoveCmd(),
		edgeListCmd(),
		edgeRerouteCmd(),
	)
	return cmd
}

func parseSide(s string) geom.Side {
	side, err := geom.ParseSide(s)
	if err != nil {
		fatal("%v", err)
	}
	return side
}

func edgeAddCmd() *cobra.Command {
	var fromSide, toSide string

	cmd := &cobra.Command{
		Use:               "add <child> <parent>",
		Aliases:           []string{"link"},
		Short:             "Make parent require child",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			from, to := parseID(args[0]), parseID(args[1])
			e, err := s.ed.Connect(from, to, parseSide(fromSide), parseSide(toSide))
			check(err)
			s.commit("edge-add", "edge %s %d->%d", formatEdgeID(e.ID), from, to)
			ui.Good.Printf("  %s Edge %s: %d %s %d\n", ui.StatusIcon(true), formatEdgeID(e.ID), from, ui.Subtle.Sprint("→"), to)
		},
	}

	cmd.Flags().StringVar(&fromSide, "from-side", "", "Side of the child the edge leaves from")
	cmd.Flags().StringVar(&toSide, "to-side", "", "Side of the parent the edge arrives at")
	return cmd
}

func edgeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <edge-id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete an edge",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseEdgeID(args[0])
			check(s.ed.DeleteEdge(id))
			s.commit("edge-rm", "edge %s", formatEdgeID(id))
			ui.Good.Printf("  %s Deleted edge %s\n", ui.StatusIcon(true), formatEdgeID(id))
		},
	}
}

func edgeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List edges",
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			t := st.Current()
			ui.Banner(st.CurrentName() + " edges")
			var rows [][]string
			for _, e := range t.Edges {
				end := func(id *int, side geom.Side) string {
					if id == nil {
						return "?"
					}
					if side == geom.SideNone {
						return strconv.Itoa(*id)
					}
					return fmt.Sprintf("%d (%s)", *id, side)
				}
				rows = append(rows, []string{formatEdgeID(e.ID), end(e.From, e.FromSide), end(e.To, e.ToSide)})
			}
			if len(rows) == 0 {
				fmt.Println("  No edges.")
				return
			}
			ui.Table([]string{"ID", "Child", "Parent"}, rows)
		},
	}
}

func edgeRerouteCmd() *cobra.Command {
	var side string

	cmd := &cobra.Command{
		Use:   "reroute <edge-id> <from|to> <node>",
		Short: "Attach one end of an edge to another node",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseEdgeID(args[0])
			var end editor.End
			switch args[1] {
			case "from", "child":
				end = editor.EndFrom
			case "to", "parent":
				end = editor.EndTo
			default:
				fatal("End must be from or to, got %q", args[1])
			}
			target := parseID(args[2])
			check(s.ed.Reroute(id, end, target, parseSide(side)))
			s.commit("edge-reroute", "edge %s %s %d", formatEdgeID(id), end, target)
			ui.Good.Printf("  %s Edge %s now ends %s at %d\n", ui.StatusIcon(true), formatEdgeID(id), end, target)
		},
	}

	cmd.Flags().StringVar(&side, "side", "", "Side of the node to attach to")
	return cmd
}
