package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
)

// indexPrompt asks for the index of the rule to delete.
type indexPrompt struct {
	input textinput.Model
	table string
	count int

	index    int
	err      string
	done     bool
	canceled bool
}

func newIndexPrompt(list []rules.Rule) indexPrompt {
	ti := textinput.New()
	ti.Placeholder = "index"
	ti.Focus()
	ti.CharLimit = 10
	ti.Width = 10

	return indexPrompt{
		input: ti,
		table: RenderRules(list),
		count: len(list),
	}
}

func (m indexPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (m indexPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				m.canceled = true
				m.done = true
				return m, tea.Quit
			}
			idx, err := rules.ParseIndex(value, m.count)
			if err != nil {
				m.err = err.Error()
				m.input.SetValue("")
				return m, nil
			}
			m.index = idx
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m indexPrompt) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Delete Forwarding Rule"))
	b.WriteString("\n")
	b.WriteString(m.table)
	b.WriteString("\n")
	b.WriteString(wizardLabelStyle.Render("Index to delete:"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render("✗ " + m.err))
		b.WriteString("\n")
	}
	b.WriteString(wizardDimStyle.Render("Enter to delete, empty or Esc to cancel."))
	return b.String()
}

// RunDeletePrompt asks for a valid 1-based rule index.
// ok is false when the user cancelled.
func RunDeletePrompt(list []rules.Rule) (index int, ok bool, err error) {
	p := tea.NewProgram(newIndexPrompt(list))

	finalModel, err := p.Run()
	if err != nil {
		return 0, false, err
	}
	m := finalModel.(indexPrompt)
	if m.canceled {
		return 0, false, nil
	}
	return m.index, true, nil
}
