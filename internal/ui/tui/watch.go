package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/awxgate/internal/monitor"
)

// Watcher polls a job until it reaches a terminal status.
type Watcher interface {
	Watch(ctx context.Context, jobID int, interval time.Duration, onUpdate func(monitor.Update)) (monitor.Update, error)
}

// RunWatchTUI watches a job with a Bubble Tea TUI and returns the last
// observation. Quitting early returns the status seen so far.
func RunWatchTUI(ctx context.Context, w Watcher, jobID int, hostname, template string, interval time.Duration) (monitor.Update, error) {
	m := NewWatchModel(jobID, hostname, template)

	p := tea.NewProgram(m, tea.WithAltScreen())

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		_, err := w.Watch(watchCtx, jobID, interval, func(u monitor.Update) {
			p.Send(JobStatusMsg(u))
		})
		if err != nil {
			p.Send(ErrMsg{Err: fmt.Errorf("stopped watching job %d: %w", jobID, err)})
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return monitor.Update{}, fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	last := monitor.Update{Status: fm.Status, Output: fm.Output, Polls: fm.Polls}
	if fm.Err != nil {
		return last, fm.Err
	}
	return last, nil
}
