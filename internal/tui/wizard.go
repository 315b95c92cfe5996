package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
)

// wizardStep identifies the current step.
type wizardStep int

const (
	stepListen wizardStep = iota
	stepRemoteHost
	stepRemotePort
	stepRemark
	stepConfirm
)

// ruleWizard drives the multi-step add-rule wizard.
type ruleWizard struct {
	step wizardStep

	// listen addresses already in use, by config.ListenKey
	taken map[string]int

	listenInput textinput.Model
	hostInput   textinput.Model
	portInput   textinput.Model
	remarkInput textinput.Model

	// err is the validation message of the current step
	err string
}

func newRuleWizard(existing []rules.Rule) ruleWizard {
	suggested := 10000
	if p, err := port.Free(existing, 10000, 65535); err == nil {
		suggested = p
	}

	li := textinput.New()
	li.Placeholder = fmt.Sprintf("0.0.0.0:%d or [::]:%d", suggested, suggested)
	li.Focus()
	li.CharLimit = 128
	li.Width = 50

	hi := textinput.New()
	hi.Placeholder = "example.com, 1.2.3.4 or 2001:db8::1"
	hi.CharLimit = 255
	hi.Width = 50

	pi := textinput.New()
	pi.Placeholder = "443"
	pi.CharLimit = 5
	pi.Width = 10

	ri := textinput.New()
	ri.Placeholder = "optional"
	ri.CharLimit = 256
	ri.Width = 50

	taken := make(map[string]int, len(existing))
	for _, r := range existing {
		if r.Listen != "" {
			taken[config.ListenKey(r.Listen)] = r.Index
		}
	}

	return ruleWizard{
		step:        stepListen,
		taken:       taken,
		listenInput: li,
		hostInput:   hi,
		portInput:   pi,
		remarkInput: ri,
	}
}

func (w *ruleWizard) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes a message and returns (done, rule, cmd).
// done=true with a non-nil rule means the wizard completed successfully.
// done=true with a nil rule means it was cancelled.
func (w *ruleWizard) Update(msg tea.Msg) (bool, *rules.NewRule, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			return true, nil, nil
		case tea.KeyEsc:
			return w.handleBack()
		}
	}

	if w.step == stepConfirm {
		return w.updateConfirm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		return w.submit()
	}

	input := w.activeInput()
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	return false, nil, cmd
}

func (w *ruleWizard) activeInput() *textinput.Model {
	switch w.step {
	case stepRemoteHost:
		return &w.hostInput
	case stepRemotePort:
		return &w.portInput
	case stepRemark:
		return &w.remarkInput
	}
	return &w.listenInput
}

// submit validates the current step and advances. On a validation error the
// wizard stays on the step and shows the message.
func (w *ruleWizard) submit() (bool, *rules.NewRule, tea.Cmd) {
	value := strings.TrimSpace(w.activeInput().Value())

	var err error
	switch w.step {
	case stepListen:
		err = config.ValidateListen(value)
		if err == nil {
			if idx, ok := w.taken[config.ListenKey(value)]; ok {
				err = fmt.Errorf("listen address already used by rule %d", idx)
			}
		}
	case stepRemoteHost:
		err = config.ValidateRemoteHost(value)
	case stepRemotePort:
		err = config.ValidatePort(value)
	}
	if err != nil {
		w.err = err.Error()
		return false, nil, nil
	}

	w.err = ""
	w.activeInput().Blur()
	w.step++
	if w.step == stepConfirm {
		return false, nil, nil
	}
	w.activeInput().Focus()
	return false, nil, textinput.Blink
}

func (w *ruleWizard) handleBack() (bool, *rules.NewRule, tea.Cmd) {
	if w.step == stepListen {
		// Esc at first step cancels wizard
		return true, nil, nil
	}
	w.err = ""
	if w.step != stepConfirm {
		w.activeInput().Blur()
	}
	w.step--
	w.activeInput().Focus()
	return false, nil, textinput.Blink
}

func (w *ruleWizard) updateConfirm(msg tea.Msg) (bool, *rules.NewRule, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "y":
			r := w.rule()
			return true, &r, nil
		case "n":
			// Restart wizard
			w.step = stepListen
			for _, in := range []*textinput.Model{&w.listenInput, &w.hostInput, &w.portInput, &w.remarkInput} {
				in.SetValue("")
				in.Blur()
			}
			w.listenInput.Focus()
			return false, nil, textinput.Blink
		}
	}
	return false, nil, nil
}

func (w *ruleWizard) rule() rules.NewRule {
	return rules.NewRule{
		Listen:     strings.TrimSpace(w.listenInput.Value()),
		RemoteHost: strings.TrimSpace(w.hostInput.Value()),
		RemotePort: strings.TrimSpace(w.portInput.Value()),
		Remark:     strings.TrimSpace(w.remarkInput.Value()),
	}
}

func (w *ruleWizard) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Add Forwarding Rule"))
	b.WriteString("\n")
	b.WriteString(w.progressBar())
	b.WriteString("\n\n")

	switch w.step {
	case stepListen:
		b.WriteString(wizardLabelStyle.Render("Listen address:"))
		b.WriteString("\n")
		b.WriteString(w.listenInput.View())
	case stepRemoteHost:
		b.WriteString(wizardLabelStyle.Render("Remote host:"))
		b.WriteString("\n")
		b.WriteString(w.hostInput.View())
	case stepRemotePort:
		b.WriteString(wizardLabelStyle.Render("Remote port:"))
		b.WriteString("\n")
		b.WriteString(w.portInput.View())
	case stepRemark:
		b.WriteString(wizardLabelStyle.Render("Remark:"))
		b.WriteString("\n")
		b.WriteString(w.remarkInput.View())
	case stepConfirm:
		r := w.rule()
		b.WriteString(wizardLabelStyle.Render("Confirm:"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Listen: %s\n", wizardValueStyle.Render(r.Listen)))
		b.WriteString(fmt.Sprintf("  Remote: %s\n", wizardValueStyle.Render(config.JoinRemote(r.RemoteHost, r.RemotePort))))
		if r.Remark != "" {
			b.WriteString(fmt.Sprintf("  Remark: %s\n", wizardValueStyle.Render(r.Remark)))
		}
		b.WriteString("\n")
		b.WriteString(wizardDimStyle.Render("Enter to add, n to restart, Esc to go back."))
		return b.String()
	}

	b.WriteString("\n\n")
	if w.err != "" {
		b.WriteString(errorStyle.Render("✗ " + w.err))
		b.WriteString("\n")
	}
	b.WriteString(wizardDimStyle.Render("Enter to continue, Esc to go back."))
	return b.String()
}

func (w *ruleWizard) progressBar() string {
	names := []string{"Listen", "Host", "Port", "Remark", "Confirm"}

	var parts []string
	for i, name := range names {
		label := fmt.Sprintf("%d. %s", i+1, name)
		if wizardStep(i) == w.step {
			parts = append(parts, wizardActiveStepStyle.Render(label))
		} else {
			parts = append(parts, wizardStepStyle.Render(label))
		}
	}

	return strings.Join(parts, wizardDimStyle.Render(" > "))
}

// wizardProgram adapts ruleWizard to tea.Model.
type wizardProgram struct {
	wizard *ruleWizard
	result *rules.NewRule
	done   bool
}

func (p wizardProgram) Init() tea.Cmd {
	return p.wizard.Init()
}

func (p wizardProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	done, r, cmd := p.wizard.Update(msg)
	if done {
		p.done = true
		p.result = r
		return p, tea.Quit
	}
	return p, cmd
}

func (p wizardProgram) View() string {
	if p.done {
		return ""
	}
	return p.wizard.View()
}

// RunAddRule runs the add-rule wizard. It returns nil when cancelled.
func RunAddRule(existing []rules.Rule) (*rules.NewRule, error) {
	w := newRuleWizard(existing)
	p := tea.NewProgram(wizardProgram{wizard: &w})

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(wizardProgram).result, nil
}
