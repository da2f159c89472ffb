// Package display provides terminal formatting for nexus output.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/daviddao/nexus/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	UrgentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	NormalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
	RatingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308"))
	DeadlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#b91c1c"))
	EventStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1d4ed8"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#d1d5db")).
			Padding(0, 1)
	focusedBorder = lipgloss.Color("#6366f1")
)

// Panel titles, indexed by feature.
var titles = map[types.Feature]string{
	types.FeatureMenu:      "🍽️  Live Mess Menu",
	types.FeatureSentiment: "📢 Voice AI",
	types.FeatureMail:      "🤖 Mail Summarizer",
	types.FeatureExtract:   "📅 Event Extractor",
}

// Title returns the panel title for a feature.
func Title(f types.Feature) string {
	if t, ok := titles[f]; ok {
		return t
	}
	return string(f)
}

// Panel wraps body in a bordered box of the given outer width.
func Panel(title, body string, width int, focused bool) string {
	style := panelStyle
	if focused {
		style = style.BorderForeground(focusedBorder)
	}
	if width > 0 {
		// Border takes one column each side.
		style = style.Width(max(width-2, 1))
	}
	content := Bold.Render(title)
	if body != "" {
		content += "\n\n" + body
	}
	return style.Render(content)
}

// PanelContentWidth is the text width left inside a Panel of the given outer
// width, after border and padding. Zero means unbounded.
func PanelContentWidth(width int) int {
	if width <= 0 {
		return 0
	}
	return max(width-4, 1)
}

// MenuBody renders menu entries one per line.
func MenuBody(entries []types.MenuEntry) string {
	if len(entries) == 0 {
		return Dim.Render("No menu available")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s  %s %s",
			Bold.Render(e.MealType), e.Menu, RatingStyle.Render(Rating(e.Rating))))
	}
	return strings.Join(lines, "\n")
}

// Rating formats a menu rating as a star value.
func Rating(r float64) string {
	return "★" + FormatFloat(r)
}

// FormatFloat prints f without trailing zeros.
func FormatFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// SentimentBody renders the latest sentiment result. ok is false when no
// result is present.
func SentimentBody(r types.SentimentResult, ok bool) string {
	if !ok {
		return ""
	}
	line := fmt.Sprintf("%s  %s  %s", r.Emoji, Bold.Render(r.Sentiment), Dim.Render("Score: "+FormatFloat(r.Score)))
	if r.IsToxic {
		line += "  " + ErrStyle.Render("toxic")
	}
	return line
}

// MailBody renders the newest limit summaries. Urgent items are highlighted.
// Lines are cut to width when width is positive.
func MailBody(summaries []types.MailSummary, limit, width int) string {
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	lines := make([]string, 0, len(summaries))
	for _, m := range summaries {
		lines = append(lines, MailLine(m, width))
	}
	return strings.Join(lines, "\n")
}

// MailLine renders one summary as "▌ Category: action item". A positive
// width shortens the action item so the line fits.
func MailLine(m types.MailSummary, width int) string {
	bar := NormalStyle.Render("▌")
	if m.IsUrgent {
		bar = UrgentStyle.Render("▌")
	}
	prefix := bar + " " + Bold.Render(m.Category+":") + " "
	item := m.ActionItem
	if width > 0 {
		item = Truncate(item, max(width-lipgloss.Width(prefix), minItemWidth))
	}
	return prefix + item
}

const minItemWidth = 4

// ExtractionBody renders deadlines and events. ok is false when no result is
// present.
func ExtractionBody(r types.ExtractionResult, ok bool) string {
	if !ok {
		return ""
	}
	return bulletList("Deadlines", r.Deadlines, DeadlineStyle) + "\n" + bulletList("Events", r.Events, EventStyle)
}

func bulletList(heading string, items []string, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(style.Bold(true).Render(heading))
	if len(items) == 0 {
		b.WriteString("\n" + Dim.Render("None detected"))
		return b.String()
	}
	for _, item := range items {
		b.WriteString("\n" + style.Render("• "+item))
	}
	return b.String()
}

// Elapsed formats a request duration for status lines.
func Elapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// Truncate shortens a string to maxLen runes, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SuccessMsg writes a green checkmark + message.
func SuccessMsg(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, Success.Render("✓")+" "+msg)
}

// ErrorMsg writes a red X + message.
func ErrorMsg(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, ErrStyle.Render("✗")+" "+msg)
}

// Header writes a section header.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w, Bold.Render(title))
}

// SubHeader writes a dim subsection label.
func SubHeader(w io.Writer, title string) {
	fmt.Fprintln(w, Muted.Render(title))
}
