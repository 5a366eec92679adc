package cmd

import (
	"fmt"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Run: func(cmd *cobra.Command, args []string) {
			configShowCmd().Run(cmd, args)
		},
	}

	cmd.AddCommand(configShowCmd(), configGetCmd(), configSetCmd())
	return cmd
}

func configKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("config")
			var rows [][]string
			for _, k := range config.Keys() {
				v, _ := cfg.Get(k)
				rows = append(rows, []string{k, v})
			}
			ui.Table([]string{"Key", "Value"}, rows)
			fmt.Printf("\n  %s\n", ui.Subtle.Sprintf("Stored in %s", config.ConfigDir()))
		},
	}
}

func configGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Print one setting",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: configKeys,
		Run: func(cmd *cobra.Command, args []string) {
			v, err := cfg.Get(args[0])
			if err != nil {
				fatal("%v", err)
			}
			fmt.Println(v)
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Change one setting",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: configKeys,
		Run: func(cmd *cobra.Command, args []string) {
			if err := cfg.Set(args[0], args[1]); err != nil {
				fatal("%v", err)
			}
			if err := config.Save(cfg); err != nil {
				fatal("Failed to save config: %v", err)
			}
			ui.Good.Printf("  %s %s = %s\n", ui.StatusIcon(true), args[0], ui.Brand.Sprint(args[1]))
		},
	}
}
