package cmd

import (
	"strings"
	"testing"

	"github.com/msalah0e/skilltree/internal/activity"
	"github.com/msalah0e/skilltree/internal/tasks"
)

func TestJoinIDs(t *testing.T) {
	if got := joinIDs(nil); got != "-" {
		t.Errorf("expected '-', got %q", got)
	}
	if got := joinIDs([]int{3, 1, 2}); got != "3,1,2" {
		t.Errorf("expected '3,1,2', got %q", got)
	}
}

func TestFormatEdgeID(t *testing.T) {
	cases := map[float64]string{
		1:     "1",
		12:    "12",
		1.5:   "1.5",
		0.125: "0.125",
	}
	for in, want := range cases {
		if got := formatEdgeID(in); got != want {
			t.Errorf("formatEdgeID(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("expected localhost:8080, got %q", got)
	}
	if got := displayAddr("127.0.0.1:7420"); got != "127.0.0.1:7420" {
		t.Errorf("expected address unchanged, got %q", got)
	}
	if got := displayAddr(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestDepthOfFollowsParents(t *testing.T) {
	ts := tasks.Parse("- [ ] a\n  - [ ] b\n    - [x] c\n- [ ] d\n")
	depth := depthOf(ts)
	want := []int{0, 1, 2, 0}
	for i, task := range ts {
		if got := depth(task); got != want[i] {
			t.Errorf("task %d: depth %d, want %d", i, got, want[i])
		}
	}
}

func TestTruncateLog(t *testing.T) {
	if got := truncateLog("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := truncateLog("abcdefghijklmnop", 10); got != "abcdefg..." {
		t.Errorf("expected 'abcdefg...', got %q", got)
	}
}

func TestDash(t *testing.T) {
	if dash("") != "-" || dash("50 xp") != "50 xp" {
		t.Error("dash should only replace empty strings")
	}
}

func TestShapeNamesListsEveryShape(t *testing.T) {
	if got := shapeNames(); got != "circle, square, hexagon, diamond, star" {
		t.Errorf("unexpected shape list %q", got)
	}
}

func TestCommandTree(t *testing.T) {
	want := []string{"status", "show", "tree", "node", "edge", "task", "undo", "redo", "export", "import", "render", "serve", "watch", "sync", "config", "log", "completion"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing command %q", name)
		}
	}

	node, _, err := rootCmd.Find([]string{"node", "link"})
	if err != nil || node.Name() != "link" {
		t.Fatalf("expected node link, got %v %v", node, err)
	}
	if f := rootCmd.PersistentFlags().Lookup("tree"); f == nil || f.Shorthand != "t" {
		t.Error("expected a --tree/-t persistent flag")
	}
}

func TestForTreeKeepsOrder(t *testing.T) {
	entries := []activity.Entry{
		{Action: "node-add", Tree: "Work"},
		{Action: "edge-add", Tree: "Default"},
		{Action: "node-rm", Tree: "Work"},
	}
	got := forTree(entries, "Work")
	if len(got) != 2 || got[0].Action != "node-add" || got[1].Action != "node-rm" {
		t.Errorf("unexpected filter result %+v", got)
	}
	if forTree(entries, "Nope") != nil {
		t.Error("expected no entries for an unknown tree")
	}
}

func TestCompletionWritersCoverValidArgs(t *testing.T) {
	writers := completionWriters(rootCmd, true)
	for _, shell := range completionCmd().ValidArgs {
		gen, ok := writers[shell]
		if !ok {
			t.Errorf("no generator for %s", shell)
			continue
		}
		var buf strings.Builder
		if err := gen(&buf); err != nil || buf.Len() == 0 {
			t.Errorf("%s: empty script, err %v", shell, err)
		}
	}
}

func TestCountRowsOrder(t *testing.T) {
	rows := countRows(map[string]int{"b": 2, "a": 2, "c": 5})
	got := []string{rows[0][0], rows[1][0], rows[2][0]}
	if strings.Join(got, ",") != "c,a,b" || rows[0][1] != "5" {
		t.Errorf("unexpected order %v", rows)
	}
}
