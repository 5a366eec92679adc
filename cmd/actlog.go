package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/msalah0e/skilltree/internal/activity"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

type logView struct {
	count   int
	grep    string
	current bool
	stats   bool
	asJSON  bool
}

func actlogCmd() *cobra.Command {
	var v logView

	cmd := &cobra.Command{
		Use:     "log",
		Aliases: []string{"activity"},
		Short:   "Show recent changes across trees",
		Example: `  skilltree log -n 5
  skilltree log --grep edge --current
  skilltree log --stats`,
		Run: func(cmd *cobra.Command, args []string) {
			var tree string
			if v.current {
				tree = openStore(cmd).CurrentName()
			}
			entries, err := v.load(tree)
			if err != nil {
				fatal("Failed to read activity: %v", err)
			}
			switch {
			case v.asJSON:
				data, _ := json.MarshalIndent(entries, "", "  ")
				fmt.Println(string(data))
			case v.stats:
				ui.Banner("activity stats")
				printStats(entries)
			default:
				ui.Banner("activity log")
				if len(entries) == 0 {
					fmt.Println("  Nothing logged.")
					return
				}
				printEntries(entries, 50)
				fmt.Printf("\n  %s\n", ui.Subtle.Sprintf("%d entries, newest first", len(entries)))
			}
		},
	}

	f := cmd.Flags()
	f.IntVarP(&v.count, "count", "n", 20, "Show at most this many entries (0 for all)")
	f.StringVarP(&v.grep, "grep", "g", "", "Only entries mentioning this text")
	f.BoolVar(&v.current, "current", false, "Only entries for the current tree")
	f.BoolVar(&v.stats, "stats", false, "Count entries per tree and action")
	f.BoolVar(&v.asJSON, "json", false, "Print entries as JSON")
	cmd.AddCommand(actlogClearCmd())
	return cmd
}

// load applies the filters in order: text, tree, then count. Stats see
// every matching entry.
func (v logView) load(tree string) ([]activity.Entry, error) {
	var (
		entries []activity.Entry
		err     error
	)
	if v.grep != "" {
		entries, err = activity.Search(v.grep, 0)
	} else {
		entries, err = activity.Read(0)
	}
	if err != nil {
		return nil, err
	}
	if tree != "" {
		entries = forTree(entries, tree)
	}
	if !v.stats && v.count > 0 && len(entries) > v.count {
		entries = entries[:v.count]
	}
	return entries, nil
}

func forTree(entries []activity.Entry, tree string) []activity.Entry {
	var out []activity.Entry
	for _, e := range entries {
		if e.Tree == tree {
			out = append(out, e)
		}
	}
	return out
}

func printEntries(entries []activity.Entry, width int) {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Action,
			dash(e.Tree),
			truncateLog(e.Details, width),
		}
	}
	ui.Table([]string{"When", "Action", "Tree", "Details"}, rows)
}

func printStats(entries []activity.Entry) {
	ui.Field("Entries", len(entries))
	if len(entries) == 0 {
		return
	}
	ui.Field("Since", entries[len(entries)-1].Timestamp.Local().Format("2006-01-02"))

	perTree, perAction := map[string]int{}, map[string]int{}
	for _, e := range entries {
		perTree[dash(e.Tree)]++
		perAction[e.Action]++
	}
	fmt.Println()
	ui.Table([]string{"Tree", "Changes"}, countRows(perTree))
	fmt.Println()
	ui.Table([]string{"Action", "Changes"}, countRows(perAction))
}

// countRows orders by count, highest first, then by name.
func countRows(m map[string]int) [][]string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		return m[a] > m[b] || (m[a] == m[b] && a < b)
	})
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, fmt.Sprint(m[name])}
	}
	return rows
}

func actlogClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all logged changes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := activity.Clear(); err != nil {
				fatal("%v", err)
			}
			ui.Good.Printf("  %s Log emptied\n", ui.StatusIcon(true))
		},
	}
}

func truncateLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
