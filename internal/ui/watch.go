package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/resona-fm/resona/internal/models"
)

// pollInterval is how often the watch view refreshes task status.
const pollInterval = 500 * time.Millisecond

// TaskSource is the slice of the task manager the watch view needs.
type TaskSource interface {
	Status(id string) (*models.ResolutionTask, error)
	RequestStop(id string) (*models.ResolutionTask, error)
}

// Model is the resolution watch view.
type Model struct {
	manager TaskSource
	taskID  string
	task    *models.ResolutionTask
	bar     progress.Model
	width   int
	err     error
	keys    keyMap
	help    help.Model
}

type tickMsg time.Time

type statusMsg struct {
	task *models.ResolutionTask
	err  error
}

type stopRequestedMsg struct {
	task *models.ResolutionTask
	err  error
}

// NewModel creates a watch view for the given task.
func NewModel(manager TaskSource, taskID string) *Model {
	return &Model{
		manager: manager,
		taskID:  taskID,
		bar:     progress.New(progress.WithDefaultGradient()),
		keys:    newKeyMap(),
		help:    help.New(),
	}
}

// Init starts the poll loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.requestStop()
		}
		return m, nil

	case tickMsg:
		if m.task != nil && m.task.Status.Terminal() {
			return m, nil
		}
		return m, tea.Batch(m.poll(), tick())

	case statusMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.task = msg.task
		return m, nil

	case stopRequestedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.task = msg.task
		return m, nil
	}

	return m, nil
}

// View renders the watch view.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n", m.err))
	}
	if m.task == nil {
		return styles.help.Render("Loading task status...\n")
	}

	title := styles.title.Render("Resolution Task")
	status := statusStyle(string(m.task.Status)).Render(string(m.task.Status))

	var percent float64
	if m.task.Total > 0 {
		percent = float64(m.task.Processed+m.task.Failed) / float64(m.task.Total)
	} else if m.task.Status.Terminal() {
		percent = 1
	}

	info := fmt.Sprintf("%d/%d processed, %d failed", m.task.Processed+m.task.Failed, m.task.Total, m.task.Failed)
	body := fmt.Sprintf("%s\n%s  %s\n\n%s\n", title, status, info, m.bar.ViewAs(percent))

	if m.task.Message != "" {
		body += styles.warn.Render(m.task.Message) + "\n"
	}

	return body + "\n" + m.help.ShortHelpView(m.keys.ShortHelp())
}

func (m *Model) poll() tea.Cmd {
	return func() tea.Msg {
		task, err := m.manager.Status(m.taskID)
		return statusMsg{task: task, err: err}
	}
}

func (m *Model) requestStop() tea.Cmd {
	return func() tea.Msg {
		task, err := m.manager.RequestStop(m.taskID)
		return stopRequestedMsg{task: task, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
