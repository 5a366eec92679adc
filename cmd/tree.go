package cmd

import (
	"fmt"
	"strconv"

	"github.com/msalah0e/skilltree/internal/activity"
	"github.com/msalah0e/skilltree/internal/graph"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func treeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tree",
		Aliases: []string{"trees"},
		Short:   "Manage skill trees",
		Run: func(cmd *cobra.Command, args []string) {
			treeListCmd().Run(cmd, args)
		},
	}

	cmd.AddCommand(
		treeListCmd(),
		treeNewCmd(),
		treeUseCmd(),
		treeRemoveCmd(),
		treeRenameCmd(),
	)
	return cmd
}

func treeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trees",
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			ui.Banner("trees")
			var rows [][]string
			for _, name := range st.Names() {
				t, _ := st.Tree(name)
				marker := " "
				if name == st.CurrentName() {
					marker = ui.Good.Sprint("*")
				}
				done := 0
				for _, n := range t.Nodes {
					if n.State == graph.StateComplete {
						done++
					}
				}
				rows = append(rows, []string{marker, name, strconv.Itoa(len(t.Nodes)), fmt.Sprintf("%d/%d", done, len(t.Nodes))})
			}
			ui.Table([]string{"", "Name", "Nodes", "Complete"}, rows)
		},
	}
}

func treeNewCmd() *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty tree",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			if _, err := st.Create(args[0]); err != nil {
				fatal("%v", err)
			}
			if use {
				if _, err := st.Switch(args[0], nil); err != nil {
					fatal("%v", err)
				}
			}
			_ = activity.Log("tree-new", args[0], "")
			ui.Good.Printf("  %s Created %s\n", ui.StatusIcon(true), ui.Brand.Sprint(args[0]))
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "Switch to the new tree")
	return cmd
}

func treeUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "use <name>",
		Aliases:           []string{"switch"},
		Short:             "Make a tree the current one",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: treeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			if _, err := st.Switch(args[0], nil); err != nil {
				fatal("%v", err)
			}
			_ = activity.Log("tree-use", args[0], "")
			ui.Good.Printf("  %s Now on %s\n", ui.StatusIcon(true), ui.Brand.Sprint(args[0]))
		},
	}
}

func treeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <name>",
		Aliases:           []string{"remove", "delete"},
		Short:             "Delete a tree and its history",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: treeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			if err := st.Delete(args[0]); err != nil {
				fatal("%v", err)
			}
			_ = activity.Log("tree-rm", args[0], "")
			ui.Good.Printf("  %s Deleted %s, current tree is %s\n", ui.StatusIcon(true), args[0], ui.Brand.Sprint(st.CurrentName()))
		},
	}
}

func treeRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rename <old> <new>",
		Aliases:           []string{"mv"},
		Short:             "Rename a tree",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: treeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			if err := st.Rename(args[0], args[1]); err != nil {
				fatal("%v", err)
			}
			_ = activity.Logf("tree-rename", args[1], "from %s", args[0])
			ui.Good.Printf("  %s Renamed %s to %s\n", ui.StatusIcon(true), args[0], ui.Brand.Sprint(args[1]))
		},
	}
}
