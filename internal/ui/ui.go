// Package ui renders planner results for the terminal and provides the
// interactive Bubble Tea planner.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-skyplan/internal/resolver"
	"github.com/litescript/ls-skyplan/internal/session"
	"github.com/litescript/ls-skyplan/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewNight ViewMode = iota
	ViewYear
	ViewMosaic
	viewCount
)

var viewNames = [...]string{"Night", "Year", "Mosaic"}

// Msg types for Bubble Tea
type (
	// AnimTickMsg advances the spinner.
	AnimTickMsg time.Time

	// progressMsg carries one resolver event and re-arms the listener.
	progressMsg struct {
		event  resolver.Event
		events <-chan resolver.Event
		done   <-chan struct{}
	}

	// planMsg carries the finished plans for target.
	planMsg struct {
		target string
		night  *session.NightPlan
		year   *session.YearPlan
		mosaic *session.MosaicPlan
		err    error
	}
)

const animInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the root Bubble Tea model.
type Model struct {
	sess   *session.Session
	render Renderer
	date   time.Time

	viewMode ViewMode
	width    int
	height   int
	animTick int

	input   []rune
	loading bool
	status  string
	err     error

	night  *session.NightPlan
	year   *session.YearPlan
	mosaic *session.MosaicPlan
}

// New creates the planner model. A zero date uses the session's configured
// observation date.
func New(sess *session.Session, r Renderer, date time.Time) Model {
	return Model{sess: sess, render: r, date: date}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return animTickCmd()
}

func animTickCmd() tea.Cmd {
	return tea.Tick(animInterval, func(t time.Time) tea.Msg { return AnimTickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.render.Width = max(msg.Width-4, 0)

	case AnimTickMsg:
		m.animTick++
		return m, animTickCmd()

	case progressMsg:
		m.status = msg.event.Message
		return m, waitProgress(msg.events, msg.done)

	case planMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = "Planned " + msg.target
		m.night, m.year, m.mosaic = msg.night, msg.year, msg.mosaic
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		m.viewMode = (m.viewMode + 1) % viewCount
	case tea.KeyShiftTab:
		m.viewMode = (m.viewMode + viewCount - 1) % viewCount
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyEnter:
		target := strings.TrimSpace(string(m.input))
		if target == "" || m.loading {
			return m, nil
		}
		m.loading = true
		m.err = nil
		m.status = "Resolving " + target
		events := make(chan resolver.Event, 8)
		done := make(chan struct{})
		return m, tea.Batch(m.planCmd(target, events, done), waitProgress(events, done))
	case tea.KeyRunes, tea.KeySpace:
		m.input = append(m.input, msg.Runes...)
		if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
			m.input = append(m.input, ' ')
		}
	}
	return m, nil
}

// planCmd resolves target once, then builds all three plans from the memo.
func (m Model) planCmd(target string, events chan<- resolver.Event, done chan<- struct{}) tea.Cmd {
	sess, date := m.sess, m.date
	return func() tea.Msg {
		defer close(done)
		ctx := context.Background()

		progress := func(e resolver.Event) {
			select {
			case events <- e:
			default:
			}
		}
		if _, err := sess.Resolve(ctx, target, progress); err != nil {
			return planMsg{target: target, err: err}
		}

		night, err := sess.Night(ctx, target, date)
		if err != nil {
			return planMsg{target: target, err: err}
		}
		year, err := sess.Year(ctx, target, date)
		if err != nil {
			return planMsg{target: target, err: err}
		}
		grid, err := sess.Mosaic(ctx, target, 0, 0)
		if err != nil {
			return planMsg{target: target, err: err}
		}
		return planMsg{target: target, night: &night, year: &year, mosaic: &grid}
	}
}

// waitProgress delivers the next resolver event, or nothing once the plan
// command has finished.
func waitProgress(events <-chan resolver.Event, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-events:
			return progressMsg{event: e, events: events, done: done}
		case <-done:
			return nil
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + m.render.title("ls-skyplan") + " " + m.render.muted("v"+version.Version) + "\n")
	b.WriteString(m.renderTabs() + "\n\n")
	b.WriteString("  Target: " + string(m.input) + m.render.style(colorAccent).Render("▏") + "\n\n")
	b.WriteString(indent(m.renderContent()) + "\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		tab := fmt.Sprintf("[%d] %s", i+1, name)
		if ViewMode(i) == m.viewMode {
			parts = append(parts, m.render.style(colorAccent).Bold(!m.render.Plain).Render("▶ "+tab))
		} else {
			parts = append(parts, m.render.muted("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderContent() string {
	switch m.viewMode {
	case ViewYear:
		if m.year != nil {
			return m.render.Year(*m.year)
		}
	case ViewMosaic:
		if m.mosaic != nil {
			return m.render.Mosaic(*m.mosaic)
		}
	default:
		if m.night != nil {
			return m.render.Night(*m.night)
		}
	}
	return m.render.muted("Type a name or coordinates and press enter.")
}

func (m Model) renderFooter() string {
	var status string
	switch {
	case m.err != nil:
		status = m.render.style(colorError).Render("ERROR: " + m.err.Error())
	case m.loading:
		spinner := spinnerFrames[m.animTick%len(spinnerFrames)]
		status = m.render.style(colorAccent).Render(spinner) + " " + m.status
	default:
		status = m.render.muted(m.status)
	}
	help := m.render.muted("enter: plan | tab: switch view | esc: quit")
	return "  " + status + "  " + m.render.muted("|") + "  " + help
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

// Run starts the interactive planner on the terminal.
func Run(sess *session.Session, r Renderer, date time.Time) error {
	_, err := tea.NewProgram(New(sess, r, date), tea.WithAltScreen()).Run()
	return err
}
