// Package tui provides a Bubble Tea terminal user interface for
// monitoring renders: pick a project, start an export or preview, and
// watch the task until it lands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SunguochaoYeepay/sound-Edit/internal/config"
	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
	"github.com/SunguochaoYeepay/sound-Edit/internal/studio"
	"github.com/SunguochaoYeepay/sound-Edit/internal/task"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4FC3F7")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateSelect State = iota
	StatePreviewInput
	StateRendering
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   task.Level
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state      State
	spinner    spinner.Model
	progress   progress.Model
	rangeInput textinput.Model
	settings   *config.Settings
	logs       []LogEntry
	err        error

	svc    *studio.Service
	events chan task.Event

	ctx    context.Context
	cancel context.CancelFunc

	projects []model.ProjectInfo
	cursor   int

	taskID    string
	status    model.StatusRecord
	startedAt time.Time

	width  int
	height int
}

// NewModel creates a new TUI model. The service is built here so its
// progress events flow into the UI's log pane.
func NewModel(settings *config.Settings) (Model, error) {
	events := make(chan task.Event, 64)
	svc, err := studio.NewService(settings, studio.Options{
		OnProgress: func(e task.Event) {
			select {
			case events <- e:
			default:
			}
		},
	})
	if err != nil {
		return Model{}, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FC3F7"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ti := textinput.New()
	ti.Placeholder = "start[,duration] in seconds, e.g. 12.5,10"
	ti.CharLimit = 40
	ti.Width = 40

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	return Model{
		state:      StateSelect,
		spinner:    sp,
		progress:   prog,
		rangeInput: ti,
		settings:   settings,
		svc:        svc,
		events:     events,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadProjects(), m.spinner.Tick, m.waitForEvent())
}

// Message types
type (
	// ProjectsMsg carries the refreshed project list.
	ProjectsMsg struct {
		Projects []model.ProjectInfo
		Err      error
	}

	// TaskStartedMsg is sent once a render has been queued.
	TaskStartedMsg struct {
		TaskID string
		Err    error
	}

	// StatusMsg carries the latest polled task status.
	StatusMsg struct {
		Rec model.StatusRecord
		Err error
	}

	// EventMsg carries one progress event from the render pipeline.
	EventMsg struct {
		Event task.Event
	}

	// TickMsg schedules the next status poll.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			m.svc.Close()
			return m, tea.Quit

		case "esc":
			switch m.state {
			case StateSelect:
				m.cancel()
				m.svc.Close()
				return m, tea.Quit
			case StatePreviewInput:
				m.state = StateSelect
			case StateRendering:
				// The render keeps running server-side; stop watching it.
				m.state = StateSelect
			}

		case "up", "k":
			if m.state == StateSelect && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.state == StateSelect && m.cursor < len(m.projects)-1 {
				m.cursor++
			}

		case "r":
			if m.state == StateSelect || m.state == StateComplete || m.state == StateError {
				m.state = StateSelect
				m.logs = nil
				m.err = nil
				m.taskID = ""
				m.status = model.StatusRecord{}
				return m, m.loadProjects()
			}

		case "e", "enter":
			if m.state == StateSelect && len(m.projects) > 0 {
				m.state = StateRendering
				m.startedAt = time.Now()
				return m, tea.Batch(m.startExport(m.projects[m.cursor].ID), m.spinner.Tick)
			}
			if m.state == StatePreviewInput && msg.String() == "enter" {
				start, duration := parseRange(m.rangeInput.Value())
				m.state = StateRendering
				m.startedAt = time.Now()
				return m, tea.Batch(m.startPreview(m.projects[m.cursor].ID, start, duration), m.spinner.Tick)
			}

		case "p":
			if m.state == StateSelect && len(m.projects) > 0 {
				m.state = StatePreviewInput
				m.rangeInput.SetValue("")
				m.rangeInput.Focus()
				return m, textinput.Blink
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				m.cancel()
				m.svc.Close()
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProjectsMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.projects = msg.Projects
			if m.cursor >= len(m.projects) {
				m.cursor = 0
			}
		}

	case TaskStartedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.taskID = msg.TaskID
			cmds = append(cmds, m.tickStatus())
		}

	case StatusMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.status = msg.Rec
		switch msg.Rec.State {
		case model.StateCompleted:
			m.state = StateComplete
		case model.StateFailed:
			m.state = StateError
			m.err = fmt.Errorf("%s", msg.Rec.Message)
		default:
			cmds = append(cmds, m.tickStatus())
		}

	case EventMsg:
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}
		cmds = append(cmds, m.waitForEvent())

	case TickMsg:
		if m.state == StateRendering && m.taskID != "" {
			cmds = append(cmds, m.pollStatus())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StatePreviewInput {
		var cmd tea.Cmd
		m.rangeInput, cmd = m.rangeInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// renderPercent maps task state onto the progress bar. There is no true
// percentage for a render, so processing ramps with elapsed time and
// saturates until the terminal state snaps it to done.
func (m Model) renderPercent() float64 {
	switch m.status.State {
	case model.StateCompleted:
		return 1.0
	case model.StateQueued:
		return 0.05
	case model.StateProcessing:
		elapsed := time.Since(m.startedAt).Seconds()
		p := 0.1 + elapsed/30
		if p > 0.9 {
			p = 0.9
		}
		return p
	}
	return 0
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SoundEdit Render Monitor"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Compose, export, preview"))
	b.WriteString("\n\n")

	switch m.state {
	case StateSelect:
		b.WriteString(m.viewSelect())
	case StatePreviewInput:
		b.WriteString(m.viewPreviewInput())
	case StateRendering:
		b.WriteString(m.viewRendering())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewSelect() string {
	var b strings.Builder

	if len(m.projects) == 0 {
		b.WriteString(infoStyle.Render("No projects found."))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("Projects dir: %s", m.settings.ProjectsDir)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Projects (%d):", len(m.projects))))
	b.WriteString("\n\n")
	for i, p := range m.projects {
		line := fmt.Sprintf("%s  %.1fs  %s", p.Title, p.TotalDuration, dimStyle.Render(p.ID))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewPreviewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Preview %q", m.projects[m.cursor].Title)))
	b.WriteString("\n\n")
	b.WriteString(m.rangeInput.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Empty input previews from the start with the default length."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewRendering() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	label := "Queueing render..."
	if m.status.State != "" {
		label = fmt.Sprintf("%s: %s", m.status.State, m.status.Message)
	}
	b.WriteString(subtitleStyle.Render(label))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.renderPercent()))
	b.WriteString("\n")
	if m.taskID != "" {
		b.WriteString(dimStyle.Render("Task: " + m.taskID))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	box := boxStyle.Render(fmt.Sprintf(
		"Render complete\n\n"+
			"Task:   %s\n"+
			"Output: %s",
		m.status.TaskID,
		m.status.OutputPath,
	))
	return box
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Render failed:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case task.LevelError:
			style = errorStyle
			prefix = "✗"
		case task.LevelWarning:
			style = warningStyle
			prefix = "!"
		case task.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case task.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateSelect:
		return "enter/e: export • p: preview • r: refresh • ↑/↓: move • esc: quit"
	case StatePreviewInput:
		return "enter: start preview • esc: back"
	case StateRendering:
		return "esc: stop watching (render continues)"
	case StateComplete, StateError:
		return "r: back to projects • q: quit"
	}
	return ""
}

func (m Model) loadProjects() tea.Cmd {
	return func() tea.Msg {
		infos, err := m.svc.ListProjects(m.ctx)
		return ProjectsMsg{Projects: infos, Err: err}
	}
}

func (m Model) startExport(projectID string) tea.Cmd {
	return func() tea.Msg {
		id, err := m.svc.StartExport(m.ctx, projectID)
		return TaskStartedMsg{TaskID: id, Err: err}
	}
}

func (m Model) startPreview(projectID string, start, duration float64) tea.Cmd {
	return func() tea.Msg {
		id, err := m.svc.StartPreview(m.ctx, projectID, start, duration)
		return TaskStartedMsg{TaskID: id, Err: err}
	}
}

func (m Model) pollStatus() tea.Cmd {
	return func() tea.Msg {
		rec, err := m.svc.TaskStatus(m.ctx, m.taskID)
		return StatusMsg{Rec: rec, Err: err}
	}
}

func (m Model) tickStatus() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return EventMsg{Event: <-m.events}
	}
}

// parseRange reads "start" or "start,duration" preview input. Malformed
// input falls back to zero, which means defaults downstream.
func parseRange(s string) (start, duration float64) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	if len(parts) >= 1 {
		fmt.Sscanf(strings.TrimSpace(parts[0]), "%g", &start)
	}
	if len(parts) == 2 {
		fmt.Sscanf(strings.TrimSpace(parts[1]), "%g", &duration)
	}
	return start, duration
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	m, err := NewModel(settings)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
