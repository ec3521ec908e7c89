package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/hostref/hostvm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// statRows flattens a stats snapshot into label/value pairs.
func statRows(s hostvm.Stats) [][2]string {
	return [][2]string{
		{"local refs", fmt.Sprint(s.LocalRefs)},
		{"global refs", fmt.Sprint(s.GlobalRefs)},
		{"threads", fmt.Sprint(s.Threads)},
		{"attaches", fmt.Sprint(s.Attaches)},
		{"detaches", fmt.Sprint(s.Detaches)},
		{"described failures", fmt.Sprint(s.Described)},
		{"pinned chars", fmt.Sprint(s.PinnedChars)},
		{"leaked refs", fmt.Sprint(s.LeakedRefs)},
		{"freed objects", fmt.Sprint(s.Freed)},
		{"violations", fmt.Sprint(s.Violations)},
		{"arena bytes", fmt.Sprint(s.ArenaInUse)},
	}
}

// renderReport formats the final state of a run.
func renderReport(s hostvm.Stats, violations []error) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("refwatch report"))
	b.WriteString("\n\n")

	for _, row := range statRows(s) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-20s", row[0])), row[1])
	}
	b.WriteString("\n")

	if s.LeakedRefs == 0 && len(violations) == 0 {
		b.WriteString(okStyle.Render("no leaks, no violations"))
		b.WriteString("\n")
		return b.String()
	}

	if s.LeakedRefs > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d local references leaked at detach", s.LeakedRefs)))
		b.WriteString("\n")
	}
	for _, v := range violations {
		b.WriteString(errorStyle.Render("• " + v.Error()))
		b.WriteString("\n")
	}
	return b.String()
}
