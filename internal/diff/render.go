package diff

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/promptlens/promptlens/internal/textdiff"
)

// Renderer formats a report for a terminal, expanding content changes into
// their line/word-level comparison. Color output is the caller's choice
// (typically tied to stdout being a TTY).
type Renderer struct {
	Color bool
	// Full expands content changes into a line-by-line view; otherwise only
	// the one-line summary per change is printed.
	Full bool
	// Mode selects the text-diff algorithm for expanded content changes.
	Mode textdiff.Mode
}

var (
	styleAdded   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleRemoved = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleChanged = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleFaint   = lipgloss.NewStyle().Faint(true)
)

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.Color {
		return s
	}
	return style.Render(s)
}

// Render formats the full report.
func (r *Renderer) Render(report *Report) string {
	if !report.HasChanges {
		return "No differences found.\n"
	}

	var b strings.Builder
	b.WriteString(r.paint(styleHeader, fmt.Sprintf("Comparing %s vs %s", report.SnapshotA, report.SnapshotB)))
	b.WriteString(fmt.Sprintf("\n%d change(s) found:\n\n", len(report.Entries)))

	for i := range report.Entries {
		e := &report.Entries[i]
		b.WriteString(r.renderEntry(e))
	}
	return b.String()
}

func (r *Renderer) renderEntry(e *ChangeRecord) string {
	var b strings.Builder
	switch e.Kind {
	case ChangeAdded:
		b.WriteString(r.paint(styleAdded, "+ "+e.Describe()) + "\n")
	case ChangeRemoved:
		b.WriteString(r.paint(styleRemoved, "- "+e.Describe()) + "\n")
	case ChangeEnabled:
		b.WriteString(r.paint(styleChanged, "~ "+e.Describe()) + "\n")
	case ChangeContent:
		b.WriteString(r.paint(styleChanged, "~ "+e.Describe()) + "\n")
		if r.Full {
			b.WriteString(r.renderContent(e))
		}
	}
	return b.String()
}

// renderContent expands a content change into its two-tier text diff. Lines
// present on only one side are printed whole; aligned changed lines are
// printed per side with their word spans highlighted.
func (r *Renderer) renderContent(e *ChangeRecord) string {
	left, right := textdiff.LineDiffMode(r.Mode, e.ContentA, e.ContentB)

	var b strings.Builder
	for i := range left {
		switch {
		case left[i].Op == textdiff.OpSame:
			b.WriteString("    " + left[i].Text + "\n")
		case left[i].Op == textdiff.OpRemoved && right[i].Op == textdiff.OpEmpty:
			b.WriteString("  " + r.paint(styleRemoved, "- "+left[i].Text) + "\n")
		case left[i].Op == textdiff.OpEmpty && right[i].Op == textdiff.OpAdded:
			b.WriteString("  " + r.paint(styleAdded, "+ "+right[i].Text) + "\n")
		default:
			b.WriteString("  " + r.paint(styleRemoved, "- ") + r.renderWords(left[i].Words, textdiff.OpRemoved, styleRemoved) + "\n")
			b.WriteString("  " + r.paint(styleAdded, "+ ") + r.renderWords(right[i].Words, textdiff.OpAdded, styleAdded) + "\n")
		}
	}
	return b.String()
}

// renderWords joins one side's word spans, highlighting spans carrying the
// side's own op and dimming nothing else. The concatenation is text-exact
// apart from styling.
func (r *Renderer) renderWords(words []textdiff.WordSpan, highlight textdiff.Op, style lipgloss.Style) string {
	var b strings.Builder
	for _, w := range words {
		if w.Op == highlight {
			b.WriteString(r.paint(style, w.Text))
		} else {
			b.WriteString(r.paint(styleFaint, w.Text))
		}
	}
	return b.String()
}
