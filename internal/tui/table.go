package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// RenderRules renders the forwarding rules as a fixed-width table
func RenderRules(list []rules.Rule) string {
	if len(list) == 0 {
		return "No forwarding rules configured.\n"
	}

	t := newTable("Index", "listen", "remote", "remark")
	for _, r := range list {
		t.Row(fmt.Sprintf("%d", r.Index), orDash(r.Listen), orDash(r.Remote), r.Remark)
	}
	return t.Render() + "\n"
}

// RenderEvents renders event log entries as a table
func RenderEvents(events []audit.Event) string {
	if len(events) == 0 {
		return "No events recorded.\n"
	}

	t := newTable("time", "type", "subject", "details")
	for _, e := range events {
		t.Row(e.Timestamp.Local().Format("2006-01-02 15:04:05"), string(e.Type), e.Subject, truncate(e.Details, 60))
	}
	return t.Render() + "\n"
}

// RenderChecks renders health check results followed by the overall status
func RenderChecks(result *health.CheckResult) string {
	t := newTable("check", "result", "details")
	for _, c := range result.Checks {
		t.Row(c.Name, checkMark(c.Level), c.Detail)
	}
	return t.Render() + "\nstatus: " + string(result.Status) + "\n"
}

func checkMark(l health.Level) string {
	switch l {
	case health.LevelOK:
		return runningStyle.Render("ok")
	case health.LevelWarn:
		return stoppedStyle.Render("warn")
	}
	return errorStyle.Render("fail")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
