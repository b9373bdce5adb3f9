package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/imamik/awxgate/internal/audit"
)

const auditDateLayout = "2006-01-02"

var (
	auditOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	auditFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	auditHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	auditCell   = lipgloss.NewStyle().Padding(0, 1)
)

// AuditList handles the audit list command. from and to are YYYY-MM-DD
// dates in local time; empty values default to today.
func AuditList(ctx context.Context, opts Options, from, to string) error {
	rng, err := parseAuditRange(from, to, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.svc.AuditLog(ctx, rng)
	if err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(stdout, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "No audit records in range.")
		return nil
	}
	if stdoutIsTerminal() {
		fmt.Fprintln(stdout, renderAuditTable(records))
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(stdout, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.Actor, r.Hostname, r.Template, resultWord(r.Success))
	}
	return nil
}

// AuditShow handles the audit show command.
func AuditShow(ctx context.Context, opts Options, timestamp, host, actor string) error {
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q (want RFC3339): %w", timestamp, err)
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.svc.AuditDetail(ctx, ts, host, actor)
	if err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(stdout, d)
	}
	fmt.Fprintf(stdout, "Timestamp: %s\n", d.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(stdout, "Actor:     %s\n", d.Actor)
	fmt.Fprintf(stdout, "Host:      %s\n", d.Hostname)
	fmt.Fprintf(stdout, "Template:  %s\n", d.Template)
	fmt.Fprintf(stdout, "Result:    %s\n", resultWord(d.Success))
	fmt.Fprintf(stdout, "Log file:  %s\n\n", d.LogFile)
	fmt.Fprintln(stdout, d.Output)
	return nil
}

func parseAuditRange(from, to string, now time.Time) (audit.Range, error) {
	today := now.Format(auditDateLayout)
	if from == "" {
		from = today
	}
	if to == "" {
		to = today
	}
	start, err := time.ParseInLocation(auditDateLayout, from, time.Local)
	if err != nil {
		return audit.Range{}, fmt.Errorf("invalid --from date %q: %w", from, err)
	}
	end, err := time.ParseInLocation(auditDateLayout, to, time.Local)
	if err != nil {
		return audit.Range{}, fmt.Errorf("invalid --to date %q: %w", to, err)
	}
	if end.Before(start) {
		return audit.Range{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return audit.Range{From: start, To: audit.Day(end).To}, nil
}

func renderAuditTable(records []audit.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Actor,
			r.Hostname,
			r.Template,
			resultWord(r.Success),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("TIME", "ACTOR", "HOST", "TEMPLATE", "RESULT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return auditHeader
			}
			if col == 4 && row >= 0 && row < len(records) {
				if records[row].Success {
					return auditOK.Padding(0, 1)
				}
				return auditFailed.Padding(0, 1)
			}
			return auditCell
		})
	return t.Render()
}

func resultWord(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
