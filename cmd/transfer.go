package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/msalah0e/skilltree/internal/activity"
	"github.com/msalah0e/skilltree/internal/render"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:               "export [tree]",
		Short:             "Export a tree as JSON or Graphviz DOT",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: treeCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore(cmd)
			name := st.CurrentName()
			if len(args) == 1 {
				name = args[0]
			}

			var data []byte
			switch format {
			case "json":
				out, err := st.Export(name)
				if err != nil {
					fatal("%v", err)
				}
				data = append(out, '\n')
			case "dot":
				t, err := st.Copy(name)
				if err != nil {
					fatal("%v", err)
				}
				data = []byte(render.DOT(t))
			default:
				fatal("Unknown format %q (json or dot)", format)
			}

			if output == "" || output == "-" {
				_, _ = cmd.OutOrStdout().Write(data)
				return
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				fatal("Failed to write %s: %v", output, err)
			}
			ui.Good.Printf("  %s Exported %s to %s\n", ui.StatusIcon(true), ui.Brand.Sprint(name), output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		overwrite bool
		use       bool
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a tree exported as JSON",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				fatal("Failed to read %s: %v", args[0], err)
			}

			st := openStore(cmd)
			t, err := st.Import(data, overwrite)
			if err != nil {
				fatal("%v", err)
			}
			if use {
				if _, err := st.Switch(t.Name, nil); err != nil {
					fatal("%v", err)
				}
			}
			_ = activity.Logf("import", t.Name, "%d nodes from %s", len(t.Nodes), args[0])
			ui.Good.Printf("  %s Imported %s (%d nodes, %d edges)\n", ui.StatusIcon(true), ui.Brand.Sprint(t.Name), len(t.Nodes), len(t.Edges))
			if !use {
				fmt.Printf("  %s\n", ui.Subtle.Sprintf("skilltree tree use %q to open it", t.Name))
			}
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace a tree with the same name")
	cmd.Flags().BoolVar(&use, "use", false, "Switch to the imported tree")
	return cmd
}
