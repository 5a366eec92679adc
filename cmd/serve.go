package cmd

import (
	"fmt"

	"github.com/msalah0e/skilltree/internal/interact"
	"github.com/msalah0e/skilltree/internal/server"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Edit the current tree in the browser",
		Long: `Serve an editable canvas of the current tree.

Drag nodes to move them, drag from a handle to another node to connect,
drag an edge end into empty space to delete it. Ctrl+Z / Ctrl+Y undo and
redo. Linked notes are watched and the tree follows their checkboxes.

  skilltree serve
  skilltree serve --addr :8080 --tree Languages`,
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd, true)
			defer s.close()

			ctl := interact.NewController(s.ed, s.layout, cfg.Interaction)
			srv := server.New(s.store, ctl, cfg, s.log)

			go srv.Follow(s.ctx, s.watcher.Changes())
			go func() {
				<-s.ctx.Done()
				if err := srv.Shutdown(); err != nil {
					s.log.Warn("shutdown", "err", err)
				}
			}()

			ui.Banner("serve")
			fmt.Printf("  Tree:     %s\n", ui.Brand.Sprint(s.tree()))
			fmt.Printf("  Canvas:   %s\n", ui.Info.Sprintf("http://%s/", displayAddr(addr)))
			fmt.Printf("  %s\n\n", ui.Subtle.Sprint("Ctrl+C to stop"))

			if err := srv.Listen(addr); err != nil {
				fatal("Server stopped: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7420", "Listen address")
	return cmd
}

// displayAddr fills in a host for bare ":port" addresses.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
