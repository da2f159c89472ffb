package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/daviddao/nexus/internal/display"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/types"
)

const defaultPanelWidth = 48

func (m Model) panelWidth() int {
	if m.width <= 0 {
		return defaultPanelWidth
	}
	return max(m.width/2, 20)
}

// View renders the dashboard.
func (m Model) View() string {
	w := m.panelWidth()
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.menuPanel(w),
		m.sentimentPanel(w),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		m.mailPanel(w),
		m.extractPanel(w),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, m.footer())
}

func (m Model) title(f types.Feature) string {
	t := display.Title(f)
	if m.shell.State(f) == feature.Submitting {
		t += " " + m.spinner.View()
	}
	return t
}

func (m Model) focused(f types.Feature) bool {
	return m.Focused() == f
}

func (m Model) menuPanel(w int) string {
	snap := m.shell.Menu().Snapshot()
	var body string
	if snap.InFlight {
		body = display.Dim.Render("Loading...")
	} else {
		entries, _ := snap.Latest()
		body = display.MenuBody(entries)
	}
	return display.Panel(m.title(types.FeatureMenu), body, w, false)
}

func (m Model) sentimentPanel(w int) string {
	snap := m.shell.Sentiment().Snapshot()
	parts := []string{m.sentiment.View(), hint("enter", "Analyze", snap.InFlight, "...")}
	if r, ok := snap.Latest(); ok {
		parts = append(parts, display.SentimentBody(r, true))
	}
	return display.Panel(m.title(types.FeatureSentiment), strings.Join(parts, "\n"), w, m.focused(types.FeatureSentiment))
}

func (m Model) mailPanel(w int) string {
	snap := m.shell.Mail().Snapshot()
	parts := []string{m.mail.View(), hint("ctrl+s", "Get Quick Summary", snap.InFlight, "...")}
	if body := display.MailBody(snap.Results, m.displayLimit, display.PanelContentWidth(w)); body != "" {
		parts = append(parts, body)
	}
	return display.Panel(m.title(types.FeatureMail), strings.Join(parts, "\n"), w, m.focused(types.FeatureMail))
}

func (m Model) extractPanel(w int) string {
	snap := m.shell.Extraction().Snapshot()
	parts := []string{
		display.Dim.Render("Extracts dates & deadlines automatically."),
		m.extract.View(),
		hint("ctrl+s", "Extract Dates", snap.InFlight, "Scanning..."),
	}
	if r, ok := snap.Latest(); ok {
		parts = append(parts, display.ExtractionBody(r, true))
	}
	return display.Panel(m.title(types.FeatureExtract), strings.Join(parts, "\n"), w, m.focused(types.FeatureExtract))
}

func hint(key, action string, busy bool, busyLabel string) string {
	if busy {
		return display.Muted.Render(busyLabel)
	}
	return display.Muted.Render(key+": ") + action
}

func (m Model) footer() string {
	keys := display.Dim.Render("tab: focus · ctrl+x: clear · esc: quit")
	counts := fmt.Sprintf("%s %d  %s %d",
		display.Success.Render("ok"), m.counts[types.OutcomeSuccess],
		display.ErrStyle.Render("failed"), m.counts[types.OutcomeFailed])
	line := keys + "  " + counts
	if m.status != "" {
		line += "  " + display.ErrStyle.Render(m.status)
	}
	return line
}
