// Package cli provides styled terminal output for the accusync commands.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings and values that need review.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent text.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)

	// WarningStyle formats warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)

	// ErrorStyle formats errors.
	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	// SubtleStyle formats secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoxStyle is used for bordered summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "i"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an informational message with icon.
func FormatInfo(message string) string {
	return SubtleStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatResult renders a detection result for a table cell. Misses are
// highlighted so operators see which rows need a correction.
func FormatResult(r model.DetectionResult) string {
	switch r.Method {
	case model.MethodNotFound:
		return WarningStyle.Render(r.Display())
	case model.MethodNotApplicable:
		return SubtleStyle.Render(r.Display())
	default:
		return r.Display()
	}
}

// RenderMethodCounts renders a method histogram, most frequent first.
func RenderMethodCounts(title string, counts map[model.Method]int) string {
	type entry struct {
		method model.Method
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for m, n := range counts {
		entries = append(entries, entry{method: m, count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].method < entries[j].method
	})

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("%-24s %d", e.method, e.count)
		if e.method == model.MethodNotFound {
			line = WarningStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return RenderBox(title, strings.Join(lines, "\n"))
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}
