package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/types"
)

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		inner := max(m.panelWidth()-4, 10)
		m.sentiment.Width = inner
		m.mail.SetWidth(inner)
		m.extract.SetWidth(inner)
		return m, nil

	case jobDoneMsg:
		m.syncWidget(msg.feature)
		if m.shell.State(msg.feature) == feature.Failed {
			m.status = StatusBackendError
		}
		m.refreshCounts()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyTab:
		cmd := m.setFocus(m.focus + 1)
		return m, cmd

	case tea.KeyShiftTab:
		cmd := m.setFocus(m.focus - 1)
		return m, cmd

	case tea.KeyCtrlX:
		m.shell.Clear(m.Focused())
		m.status = ""
		return m, nil

	case tea.KeyCtrlS:
		return m, m.submit(m.Focused())

	case tea.KeyEnter:
		// Enter submits the single-line input; textareas take it as a newline.
		if m.Focused() == types.FeatureSentiment {
			return m, m.submit(types.FeatureSentiment)
		}
	}

	var cmd tea.Cmd
	f := m.Focused()
	switch f {
	case types.FeatureSentiment:
		m.sentiment, cmd = m.sentiment.Update(msg)
		_ = m.shell.SetInput(f, m.sentiment.Value())
	case types.FeatureMail:
		m.mail, cmd = m.mail.Update(msg)
		_ = m.shell.SetInput(f, m.mail.Value())
	case types.FeatureExtract:
		m.extract, cmd = m.extract.Update(msg)
		_ = m.shell.SetInput(f, m.extract.Value())
	}
	return m, cmd
}

// submit starts a request for f. Suppressed submits return nil.
func (m *Model) submit(f types.Feature) tea.Cmd {
	job, ok := m.shell.Start(f)
	if !ok {
		return nil
	}
	m.status = ""
	return m.runJob(f, job)
}
