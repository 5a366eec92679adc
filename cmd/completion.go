package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func completionCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for bash, zsh, fish or powershell.
Tree names and node IDs complete from the current store.

  eval "$(skilltree completion zsh)"
  skilltree completion fish > ~/.config/fish/completions/skilltree.fish`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := completionWriters(cmd.Root(), !plain)[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell %q", args[0])
			}
			return gen(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&plain, "no-descriptions", false, "Leave command descriptions out of the script")
	return cmd
}

func completionWriters(root *cobra.Command, desc bool) map[string]func(io.Writer) error {
	return map[string]func(io.Writer) error{
		"bash": func(w io.Writer) error { return root.GenBashCompletionV2(w, desc) },
		"zsh": func(w io.Writer) error {
			if desc {
				return root.GenZshCompletion(w)
			}
			return root.GenZshCompletionNoDesc(w)
		},
		"fish": func(w io.Writer) error { return root.GenFishCompletion(w, desc) },
		"powershell": func(w io.Writer) error {
			if desc {
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return root.GenPowerShellCompletion(w)
		},
	}
}
