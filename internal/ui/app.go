// Package ui renders the single-screen Lantern monitor with Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"lantern/internal/poll"
	"lantern/internal/session"
	"lantern/internal/state"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Session   *session.Controller
	Poller    *poll.Poller
	ServerURL string
}

// Model is the root Bubble Tea state for the monitor.
type Model struct {
	store     *state.Store
	session   *session.Controller
	poller    *poll.Poller
	serverURL string

	theme    Theme
	spinner  spinner.Model
	width    int
	height   int
	focused  bool
	snapshot state.Snapshot
	sess     session.State
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func newModel(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		store:     opts.Store,
		session:   opts.Session,
		poller:    opts.Poller,
		serverURL: opts.ServerURL,
		theme:     defaultTheme(),
		spinner:   sp,
		focused:   true,
		snapshot:  opts.Store.Snapshot(),
		sess:      opts.Session.State(),
	}
}

// Run blocks until the user quits or the context is cancelled.
func Run(opts Options) error {
	program := tea.NewProgram(
		newModel(opts),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(opts.Context),
	)
	_, err := program.Run()
	if err != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.poller.Refresh()
		case "f":
			// Manual focus toggle for terminals that never deliver
			// focus events.
			m.focused = !m.focused
			m.poller.SetFocused(m.focused)
		}
	case tea.FocusMsg:
		m.focused = true
		m.poller.SetFocused(true)
	case tea.BlurMsg:
		m.focused = false
		m.poller.SetFocused(false)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.snapshot = m.store.Snapshot()
		m.sess = m.session.State()
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("lantern"))
	b.WriteString(m.theme.Dim.Render(" · " + m.serverURL))
	b.WriteString("\n\n")

	b.WriteString(m.theme.Section.Render("Session"))
	b.WriteString("\n")
	b.WriteString(m.sessionLine())
	b.WriteString("\n\n")

	b.WriteString(m.theme.Section.Render("Library"))
	b.WriteString("\n")
	b.WriteString(m.libraryLines())
	b.WriteString("\n")

	b.WriteString(m.theme.Section.Render("Queue"))
	b.WriteString("\n")
	b.WriteString(m.queueLines())
	b.WriteString("\n")

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) sessionLine() string {
	s := m.sess
	switch {
	case s.Loading:
		return m.spinner.View() + " resolving session"
	case s.Err != nil:
		line := m.theme.Bad.Render(fmt.Sprintf("%s: %s", s.Err.Code, s.Err.Message))
		if s.WaitTime != nil {
			line += m.theme.Warn.Render(fmt.Sprintf("  retry in %s", s.WaitTime.Round(time.Second)))
		}
		return line
	case !s.LoginRequired:
		return m.theme.Good.Render("open access")
	case s.HasValidSession:
		return m.theme.Good.Render("signed in") + m.theme.Value.Render("  role: "+s.Role)
	default:
		return m.theme.Warn.Render("login required")
	}
}

func (m Model) libraryLines() string {
	if !m.snapshot.HasData {
		return m.theme.Dim.Render(m.spinner.View() + " waiting for first poll")
	}
	stats := m.snapshot.Stats
	return fmt.Sprintf("%s %s   %s %s   %s %s",
		m.theme.Label.Render("videos:"), m.theme.Value.Render(fmt.Sprintf("%d", stats.Videos)),
		m.theme.Label.Render("hours:"), m.theme.Value.Render(fmt.Sprintf("%.1f", stats.TotalHours)),
		m.theme.Label.Render("watched today:"), m.theme.Value.Render(fmt.Sprintf("%d", stats.WatchedToday)),
	)
}

func (m Model) queueLines() string {
	if !m.snapshot.HasData {
		return m.theme.Dim.Render("—")
	}
	queue := m.snapshot.Queue
	liveness := m.theme.Dim.Render("idle")
	if queue.HasLiveWork() {
		liveness = m.theme.Good.Render("live")
	}
	header := fmt.Sprintf("%s %s   %s %s   %s",
		m.theme.Label.Render("active:"), m.theme.Value.Render(fmt.Sprintf("%d", queue.Active)),
		m.theme.Label.Render("queued:"), m.theme.Value.Render(fmt.Sprintf("%d", queue.Queued)),
		liveness,
	)
	var lines []string
	lines = append(lines, header)
	for i, task := range queue.Tasks {
		if i >= 5 {
			lines = append(lines, m.theme.Dim.Render(fmt.Sprintf("… %d more", len(queue.Tasks)-i)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			m.theme.Value.Render(task.Kind),
			m.theme.Dim.Render(task.State),
			m.theme.Label.Render(fmt.Sprintf("%.0f%%", task.Progress)),
		))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	var parts []string
	if m.snapshot.IsOffline() {
		parts = append(parts, m.theme.Bad.Render("OFFLINE"))
	} else if m.snapshot.LastErr != nil {
		parts = append(parts, m.theme.Warn.Render(m.snapshot.LastErr.Message))
	}
	if !m.focused {
		parts = append(parts, m.theme.Dim.Render("paused (unfocused)"))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, m.theme.Dim.Render("updated "+m.snapshot.LastUpdated.Format("15:04:05")))
	}
	parts = append(parts, m.theme.Dim.Render("r refresh · f focus · q quit"))
	return "\n" + strings.Join(parts, m.theme.Dim.Render("  ·  "))
}

var _ tea.Model = Model{}
