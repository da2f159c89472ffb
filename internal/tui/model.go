// Package tui is the interactive 2×2 dashboard bound to a dashboard.Shell.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/daviddao/nexus/internal/dashboard"
	"github.com/daviddao/nexus/internal/types"
)

// StatusBackendError is shown after any request fails. Error details are
// never surfaced.
const StatusBackendError = "Backend error"

// focusOrder lists the panels that accept input, in tab order.
var focusOrder = []types.Feature{types.FeatureSentiment, types.FeatureMail, types.FeatureExtract}

// jobDoneMsg is delivered when a controller job has committed its outcome.
type jobDoneMsg struct {
	feature types.Feature
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx   context.Context
	shell *dashboard.Shell

	sentiment textinput.Model
	mail      textarea.Model
	extract   textarea.Model
	spinner   spinner.Model

	focus        int
	displayLimit int
	status       string
	counts       map[string]int

	width  int
	height int
}

// New builds a model. Jobs run with ctx, so cancelling it aborts requests
// still in flight.
func New(ctx context.Context, shell *dashboard.Shell, displayLimit int) Model {
	ti := textinput.New()
	ti.Placeholder = "e.g. Food was great!"
	ti.CharLimit = 0
	ti.Focus()

	mail := textarea.New()
	mail.Placeholder = "Paste long email..."
	mail.ShowLineNumbers = false
	mail.SetHeight(3)

	extract := textarea.New()
	extract.Placeholder = "e.g. Quiz on 12th March, submit by 5 PM..."
	extract.ShowLineNumbers = false
	extract.SetHeight(3)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#6366f1"))

	return Model{
		ctx:          ctx,
		shell:        shell,
		sentiment:    ti,
		mail:         mail,
		extract:      extract,
		spinner:      sp,
		displayLimit: displayLimit,
		counts:       map[string]int{},
	}
}

// Init starts the spinner and the one-time menu load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.mountCmd())
}

func (m Model) mountCmd() tea.Cmd {
	job, ok := m.shell.Mount()
	if !ok {
		return nil
	}
	return m.runJob(types.FeatureMenu, job)
}

// runJob wraps a controller job as a command.
func (m Model) runJob(f types.Feature, job func(context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		job(ctx)
		return jobDoneMsg{feature: f}
	}
}

// Focused returns the feature whose input has focus.
func (m Model) Focused() types.Feature {
	return focusOrder[m.focus]
}

// Status returns the status bar notice.
func (m Model) Status() string {
	return m.status
}

func (m *Model) setFocus(i int) tea.Cmd {
	n := len(focusOrder)
	m.focus = ((i % n) + n) % n

	m.sentiment.Blur()
	m.mail.Blur()
	m.extract.Blur()
	switch m.Focused() {
	case types.FeatureSentiment:
		return m.sentiment.Focus()
	case types.FeatureMail:
		return m.mail.Focus()
	default:
		return m.extract.Focus()
	}
}

// syncWidget copies a controller's input buffer into its widget.
func (m *Model) syncWidget(f types.Feature) {
	text := m.shell.Input(f)
	switch f {
	case types.FeatureSentiment:
		if m.sentiment.Value() != text {
			m.sentiment.SetValue(text)
		}
	case types.FeatureMail:
		if m.mail.Value() != text {
			m.mail.SetValue(text)
		}
	case types.FeatureExtract:
		if m.extract.Value() != text {
			m.extract.SetValue(text)
		}
	}
}

func (m *Model) refreshCounts() {
	j := m.shell.Journal()
	if j == nil {
		return
	}
	if counts, err := j.CountByOutcome(); err == nil {
		m.counts = counts
	}
}
