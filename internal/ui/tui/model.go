package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/awxgate/internal/monitor"
)

// Model is the Bubble Tea model for the job watch view.
type Model struct {
	// Job info
	JobID    int
	Hostname string
	Template string

	// Latest observation
	Status monitor.Status
	Output string
	Polls  int

	StartTime time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool

	now func() time.Time
}

// NewWatchModel creates a model for watching one job.
func NewWatchModel(jobID int, hostname, template string) Model {
	return Model{
		JobID:     jobID,
		Hostname:  hostname,
		Template:  template,
		Status:    monitor.StatusPending,
		StartTime: time.Now(),
		now:       time.Now,
	}
}

// Terminal reports whether the watched job reached a terminal status.
func (m Model) Terminal() bool {
	return monitor.IsTerminal(m.Status)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case JobStatusMsg:
		m.Status = msg.Status
		m.Output = msg.Output
		m.Polls = msg.Polls
		if m.Terminal() {
			m.Done = true
			return m, tea.Quit
		}

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) elapsed() time.Duration {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	return now().Sub(m.StartTime)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
