package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"patchrebase.dev/patchrebase/internal/patch"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	outcomeStyle = map[string]lipgloss.Style{
		patch.Untouched.String():    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		patch.Modified.String():     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		patch.Deleted.String():      dimStyle,
		patch.Inapplicable.String(): lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Summary renders a run for the terminal
func Summary(run Run) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Rebase " + strings.ToLower(run.State)))
	if run.SessionID != "" {
		b.WriteString(" " + dimStyle.Render(run.SessionID))
	}
	b.WriteString("\n")

	for _, o := range patch.AllOutcomes {
		files := run.Outcomes[o.String()]
		if len(files) == 0 {
			continue
		}
		label := outcomeStyle[o.String()].Render(fmt.Sprintf("%-12s", o.String()))
		fmt.Fprintf(&b, "\n%s %s", label, strings.Join(files, ", "))
	}

	if run.Conflict != nil {
		fmt.Fprintf(&b, "\n\nWaiting on %s: %s", run.Conflict.Patch, strings.Join(run.Conflict.Paths, ", "))
	}
	if run.Error != "" {
		fmt.Fprintf(&b, "\n\n%s", outcomeStyle[patch.Inapplicable.String()].Render(run.Error))
	}
	if run.RebuildRequired {
		b.WriteString("\n\nRebuild required")
	}
	return boxStyle.Render(b.String()) + "\n"
}
