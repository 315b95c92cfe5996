package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
)

// Action represents the action chosen in the menu
type Action int

const (
	ActionNone Action = iota
	ActionInstall
	ActionUninstall
	ActionStart
	ActionStop
	ActionRestart
	ActionStatus
	ActionCheck
	ActionListRules
	ActionAddRule
	ActionDeleteRule
	ActionLogs
	ActionQuit
)

// actionItem implements list.Item for a menu entry
type actionItem struct {
	action Action
	key    string
	title  string
	desc   string
}

func (i actionItem) Title() string       { return fmt.Sprintf("%s. %s", i.key, i.title) }
func (i actionItem) Description() string { return i.desc }
func (i actionItem) FilterValue() string { return i.title }

var menuItems = []actionItem{
	{ActionInstall, "1", "Install realm", "download the latest release and install the OpenRC service"},
	{ActionUninstall, "2", "Uninstall realm", "stop the service and remove the binary and init script"},
	{ActionStart, "3", "Start service", "rc-service realm start"},
	{ActionStop, "4", "Stop service", "rc-service realm stop"},
	{ActionRestart, "5", "Restart service", "rc-service realm restart"},
	{ActionStatus, "6", "Service status", "show whether realm is running"},
	{ActionCheck, "c", "Health check", "verify the binary, init script, service and rules"},
	{ActionListRules, "7", "List forwarding rules", "show every [[endpoints]] block"},
	{ActionAddRule, "8", "Add forwarding rule", "append a rule and restart the service"},
	{ActionDeleteRule, "9", "Delete forwarding rule", "remove a rule by index and restart the service"},
	{ActionLogs, "l", "Event log", "warnings and failures recorded by realm-ctl"},
	{ActionQuit, "0", "Quit", ""},
}

// MenuHeader is the state summary shown above the menu
type MenuHeader struct {
	Installed bool
	Status    service.Status
	Version   string
	RuleCount int
}

func (h MenuHeader) String() string {
	if !h.Installed {
		return stoppedStyle.Render("realm is not installed")
	}
	status := stoppedStyle.Render(string(h.Status))
	if h.Status == service.StatusRunning {
		status = runningStyle.Render(string(h.Status))
	}
	parts := []string{"service: " + status, fmt.Sprintf("rules: %d", h.RuleCount)}
	if h.Version != "" {
		parts = append(parts, "version: "+h.Version)
	}
	return strings.Join(parts, wizardDimStyle.Render(" | "))
}

// MenuModel is the bubbletea model for the main menu
type MenuModel struct {
	list     list.Model
	header   MenuHeader
	message  string
	result   Action
	quitting bool
}

// NewMenu creates the main menu. message is shown once under the header,
// typically the outcome of the previous action.
func NewMenu(header MenuHeader, message string) MenuModel {
	items := make([]list.Item, len(menuItems))
	for i, it := range menuItems {
		items[i] = it
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 80, 26)
	l.Title = "realm-ctl"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	return MenuModel{list: l, header: header, message: message}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(actionItem); ok {
				return m.choose(item.action)
			}
		case "q", "esc", "ctrl+c":
			return m.choose(ActionQuit)
		default:
			for _, it := range menuItems {
				if msg.String() == it.key {
					return m.choose(it.action)
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) choose(a Action) (tea.Model, tea.Cmd) {
	m.result = a
	m.quitting = true
	return m, tea.Quit
}

func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header.String())
	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[enter] Select  [0-9,c,l] Shortcut  [q] Quit"))
	return b.String()
}

// Result returns the chosen action
func (m MenuModel) Result() Action {
	return m.result
}

// RunMenu shows the menu once and returns the chosen action.
// It renders inline so output from the previous action stays visible.
func RunMenu(header MenuHeader, message string) (Action, error) {
	p := tea.NewProgram(NewMenu(header, message))

	finalModel, err := p.Run()
	if err != nil {
		return ActionNone, err
	}

	return finalModel.(MenuModel).Result(), nil
}
