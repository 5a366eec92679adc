package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/msalah0e/skilltree/internal/graph"
)

var (
	Brand  = color.New(color.FgHiGreen, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Tree = "\U0001F333"

// Banner prints the tool name followed by what is being shown.
func Banner(subtitle string) {
	fmt.Printf("%s %s: %s\n\n", Tree, Brand.Sprint("skilltree"), subtitle)
}

// Field prints one "label  value" line of a summary block.
func Field(label string, value any) {
	fmt.Printf("  %s  %v\n", Brand.Sprintf("%-14s", label), value)
}

// Table writes rows to stdout under headers. Nothing is printed for an
// empty row set.
func Table(headers []string, rows [][]string) {
	FprintTable(os.Stdout, headers, rows)
}

// FprintTable aligns columns by rune count so glyph cells line up.
func FprintTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	cols := len(headers)
	widths := make([]int, cols)
	measure := func(i int, s string) {
		if n := utf8.RuneCountInString(s); i < cols && n > widths[i] {
			widths[i] = n
		}
	}
	for i, h := range headers {
		measure(i, h)
	}
	for _, row := range rows {
		for i, cell := range row {
			measure(i, cell)
		}
	}

	pad := func(s string, width int) string {
		return s + strings.Repeat(" ", width-utf8.RuneCountInString(s)+2)
	}
	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i := 0; i < cols && i < len(cells); i++ {
			b.WriteString(pad(cells[i], widths[i]))
		}
		return strings.TrimRight(b.String(), " ")
	}

	rules := make([]string, cols)
	for i, n := range widths {
		rules[i] = strings.Repeat("─", n)
	}
	Subtle.Fprintln(w, line(headers))
	Subtle.Fprintln(w, line(rules))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
}

// Meter renders earned out of total as a fixed-width bar.
func Meter(earned, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := earned * width / total
	if filled > width {
		filled = width
	}
	return Good.Sprint(strings.Repeat("█", filled)) + Subtle.Sprint(strings.Repeat("░", width-filled))
}

func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

func WarnIcon() string {
	return Warn.Sprint("⚠")
}

// StateIcon is the coloured glyph for a node state.
func StateIcon(s graph.State) string {
	switch s {
	case graph.StateComplete:
		return Good.Sprint("●")
	case graph.StateInProgress:
		return Info.Sprint("◐")
	default:
		return Subtle.Sprint("○")
	}
}
