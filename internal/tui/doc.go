// Package tui provides terminal user interface components for realm-ctl.
//
// This package uses the Bubble Tea framework for the interactive menu that
// runs when realm-ctl is started without a subcommand.
//
// # Main Menu
//
// The menu shows the service state and returns one action per run; the
// caller performs it and shows the menu again until the user quits:
//
//	for {
//	    action, err := tui.RunMenu(header, lastMessage)
//	    switch action {
//	    case tui.ActionAddRule:
//	        rule, _ := tui.RunAddRule(existing)
//	    case tui.ActionDeleteRule:
//	        index, ok, _ := tui.RunDeletePrompt(existing)
//	    case tui.ActionQuit:
//	        return nil
//	    }
//	}
//
// # Add-Rule Wizard
//
// Listen address, remote host, remote port, remark, confirm. Each step is
// validated inline; a validation error keeps the user on the step.
//
// # Tables
//
// RenderRules and RenderEvents render lipgloss tables for the terminal.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling and tables
package tui
