package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/awxgate/internal/monitor"
)

// defaultOutputLines is the output tail shown before the terminal size is known.
const defaultOutputLines = 20

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderOutput(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("awxgate: job %d", m.JobID)
	if m.Hostname != "" {
		title += fmt.Sprintf(" (%s / %s)", m.Hostname, m.Template)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	default:
		icon, style := statusIcon(m.Status, m.SpinnerFrame)
		status += style.Render(icon + " " + string(m.Status))
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderOutput(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Output"))
	b.WriteString("\n")

	lines := tailLines(m.Output, outputHeight(m))
	if len(lines) == 0 {
		b.WriteString(dimStyle.Render("    (no output yet)"))
		b.WriteString("\n")
		return
	}
	for _, line := range lines {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func renderFooter(b *strings.Builder, m Model) {
	parts := []string{
		fmt.Sprintf("elapsed: %s", formatDuration(m.elapsed())),
		fmt.Sprintf("polls: %d", m.Polls),
	}
	if !m.Done && m.Err == nil {
		parts = append(parts, currentSpinner(m.SpinnerFrame)+" watching")
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %s  |  q: quit", strings.Join(parts, "  |  "))))
	b.WriteString("\n")
}

// RenderStatusOnce renders a single observation without the TUI runtime.
func RenderStatusOnce(jobID int, status monitor.Status, output string) string {
	m := NewWatchModel(jobID, "", "")
	m.Status = status
	m.Output = output
	m.Done = monitor.IsTerminal(status)
	var b strings.Builder
	renderHeader(&b, m)
	renderOutput(&b, m)
	return b.String()
}

// Helper functions

func statusIcon(s monitor.Status, frame int) (string, lipgloss.Style) {
	switch s {
	case monitor.StatusSuccessful:
		return checkMark, readyStyle
	case monitor.StatusFailed, monitor.StatusError, monitor.StatusCanceled:
		return crossMark, failedStyle
	case monitor.StatusUnknown:
		return warnMark, warningStyle
	case monitor.StatusRunning:
		return currentSpinner(frame), activeStyle
	default:
		return spinner, dimStyle
	}
}

func currentSpinner(frame int) string {
	if len(spinnerFrames) == 0 {
		return spinner
	}
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func outputHeight(m Model) int {
	if m.Height <= 0 {
		return defaultOutputLines
	}
	// header, section title, footer and margins
	h := m.Height - 6
	if h < 3 {
		h = 3
	}
	return h
}

func tailLines(output string, n int) []string {
	output = strings.TrimRight(output, "\n")
	if output == "" || n <= 0 {
		return nil
	}
	lines := strings.Split(output, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
