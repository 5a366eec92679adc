// Package tasks reads checkbox task lists out of linked markdown documents.
//
// Only the checkbox convention is understood: a "-" or "*" marker, an
// optional space, then "[ ]" or "[x]". Hierarchy comes purely from
// indentation, with a tab counting as two spaces.
package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Task is one checkbox line.
type Task struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Line      int    `json:"line"`
	Indent    int    `json:"indent"`
	Parent    int    `json:"parentIndex"`
	Children  []int  `json:"children,omitempty"`
}

// Root reports whether the task has no parent.
func (t Task) Root() bool { return t.Parent < 0 }

// Provider loads the task list of a linked document.
type Provider interface {
	Tasks(ctx context.Context, path string) ([]Task, error)
}

var checkboxRe = regexp.MustCompile(`^([ \t]*)[-*] ?\[([ xX])\]\s?(.*)$`)

func indentWidth(ws string) int {
	n := 0
	for _, r := range ws {
		if r == '\t' {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// Parse extracts every checkbox line of content, in document order, and links
// them into a forest.
func Parse(content string) []Task {
	var out []Task
	for i, raw := range splitLines(content) {
		line := strings.TrimRight(raw, "\r")
		m := checkboxRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, Task{
			Index:     len(out),
			Text:      strings.TrimSpace(m[3]),
			Completed: m[2] != " ",
			Line:      i,
			Indent:    indentWidth(m[1]),
			Parent:    -1,
		})
	}
	return BuildForest(out)
}

// BuildForest sets Parent and Children: a task hangs under the nearest
// preceding task with a strictly smaller indent.
func BuildForest(ts []Task) []Task {
	var stack []int
	for i := range ts {
		ts[i].Parent = -1
		ts[i].Children = nil
	}
	for i := range ts {
		for len(stack) > 0 && ts[stack[len(stack)-1]].Indent >= ts[i].Indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			p := stack[len(stack)-1]
			ts[i].Parent = p
			ts[p].Children = append(ts[p].Children, i)
		}
		stack = append(stack, i)
	}
	return ts
}

// Count returns how many tasks are done out of the total.
func Count(ts []Task) (done, total int) {
	for _, t := range ts {
		if t.Completed {
			done++
		}
	}
	return done, len(ts)
}

// AllDone reports whether there is at least one task and every task is done.
func AllDone(ts []Task) bool {
	done, total := Count(ts)
	return total > 0 && done == total
}

// Toggle flips the checkbox on the given 0-based line and returns the new
// content along with the new completion value.
func Toggle(content string, line int) (string, bool, error) {
	lines := splitLines(content)
	if line < 0 || line >= len(lines) {
		return content, false, fmt.Errorf("line %d out of range (have %d)", line, len(lines))
	}
	raw := lines[line]
	loc := checkboxRe.FindStringSubmatchIndex(strings.TrimRight(raw, "\r"))
	if loc == nil {
		return content, false, fmt.Errorf("line %d is not a task", line)
	}
	// loc[4]:loc[5] is the mark inside the brackets.
	mark := raw[loc[4]:loc[5]]
	next := "x"
	if mark != " " {
		next = " "
	}
	lines[line] = raw[:loc[4]] + next + raw[loc[5]:]
	return strings.Join(lines, "\n"), next == "x", nil
}
