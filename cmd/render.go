package cmd

import (
	"fmt"
	"image/color"
	"os"

	"github.com/msalah0e/skilltree/internal/render"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func renderCmd() *cobra.Command {
	var (
		output      string
		padding     float64
		transparent bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the current tree to a PNG",
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, false)
			defer s.close()

			if output == "" {
				output = s.tree() + ".png"
			}
			opts := render.Options{Padding: padding, ExpDisplay: cfg.Canvas.ExpDisplay}
			if transparent {
				opts.Background = color.Transparent
			}

			f, err := os.Create(output)
			if err != nil {
				fatal("Failed to create %s: %v", output, err)
			}
			if err := render.PNG(f, s.ed.Graph, s.layout, s.ed.Tasks, opts); err != nil {
				f.Close()
				fatal("Failed to render: %v", err)
			}
			if err := f.Close(); err != nil {
				fatal("Failed to write %s: %v", output, err)
			}
			ui.Good.Printf("  %s Rendered %s\n", ui.StatusIcon(true), ui.Brand.Sprint(output))
			fmt.Printf("  %s\n", ui.Subtle.Sprintf("%d nodes, %d edges, %s style", len(s.ed.Graph.Nodes), len(s.ed.Graph.Edges), cfg.Canvas.ResolveStyle().Name))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path (default <tree>.png)")
	cmd.Flags().Float64Var(&padding, "padding", 40, "Margin around the tree in pixels")
	cmd.Flags().BoolVar(&transparent, "transparent", false, "Leave the background transparent")
	return cmd
}
