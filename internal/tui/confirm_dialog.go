/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kube-config-updater/cli/pkg/styles"
)

// Model for the confirmation dialog
type confirmDialog struct {
	ctx           context.Context
	title         string
	body          string
	question      string
	defaultChoice bool // Answer used when the user just presses enter.
	choice        bool
	quitting      bool
}

func newConfirmDialog(ctx context.Context, title string, body string, question string, defaultChoice bool) confirmDialog {
	return confirmDialog{
		ctx:           ctx,
		title:         title,
		body:          body,
		question:      question,
		defaultChoice: defaultChoice,
	}
}

func (m confirmDialog) Init() tea.Cmd {
	return nil
}

func (m confirmDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			m.choice = true
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.choice = m.defaultChoice
			m.quitting = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.choice = false
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmDialog) View() string {
	content := ""
	if m.title != "" {
		content += "\n" + styles.RenderTitle(m.title) + "\n"
	}
	if m.body != "" {
		content += "\n" + m.body + "\n\n"
	}

	// Show question until answered
	if !m.quitting {
		hint := " [y/N]"
		if m.defaultChoice {
			hint = " [Y/n]"
		}
		content += m.question + styles.RenderPrompt(hint) + "\n"
	}

	return content
}

// DoConfirmDialog shows the user a confirm dialog and waits for a yes/no
// answer. Pressing enter picks defaultChoice.
func DoConfirmDialog(ctx context.Context, title string, body string, question string, defaultChoice bool) (bool, error) {
	p := tea.NewProgram(newConfirmDialog(ctx, title, body, question, defaultChoice), tea.WithContext(ctx))
	m, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("failed to run confirmation dialog: %v", err)
	}

	return m.(confirmDialog).choice, nil
}
