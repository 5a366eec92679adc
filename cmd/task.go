package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msalah0e/skilltree/internal/tasks"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Read and tick the checkboxes of a node's note",
	}

	cmd.AddCommand(taskListCmd(), taskToggleCmd())
	return cmd
}

func printTasks(ts []tasks.Task, depth func(tasks.Task) int) {
	for _, t := range ts {
		fmt.Printf("  %3d  %s%s %s\n", t.Index, strings.Repeat("  ", depth(t)), ui.StatusIcon(t.Completed), t.Text)
	}
}

// depthOf counts parent links up to the root task.
func depthOf(ts []tasks.Task) func(tasks.Task) int {
	return func(t tasks.Task) int {
		d := 0
		for p := t.Parent; p >= 0 && p < len(ts); p = ts[p].Parent {
			d++
		}
		return d
	}
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "list <node>",
		Aliases:           []string{"ls"},
		Short:             "List a node's tasks",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			n := s.ed.Graph.Node(id)
			if n == nil {
				fatal("node %d not found", id)
			}
			if n.FileLink == "" {
				fmt.Printf("  Node %d has no linked note.\n", id)
				return
			}
			ts, _ := s.ed.Tasks.Get(id)
			done, total := tasks.Count(ts)
			ui.Banner(n.FileLink)
			if total == 0 {
				fmt.Println("  No checkboxes.")
				return
			}
			printTasks(ts, depthOf(ts))
			fmt.Printf("\n  %d/%d done\n", done, total)
		},
	}
}

func taskToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "toggle <node> <index>",
		Aliases:           []string{"tick"},
		Short:             "Flip one checkbox in the linked note",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: nodeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			id := parseID(args[0])
			index, err := strconv.Atoi(args[1])
			if err != nil {
				fatal("Invalid task index %q", args[1])
			}
			check(s.ed.ToggleTask(s.ctx, id, index))
			s.commit("task-toggle", "node %d task %d", id, index)

			ts, _ := s.ed.Tasks.Get(id)
			n := s.ed.Graph.Node(id)
			if index < len(ts) {
				ui.Good.Printf("  %s %s %s\n", ui.StatusIcon(true), ui.StatusIcon(ts[index].Completed), ts[index].Text)
			}
			fmt.Printf("  Node %d is %s\n", id, ui.StateIcon(n.State)+" "+string(n.State))
		},
	}
}
