/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kube-config-updater/cli/pkg/styles"
)

// ErrInputCancelled is returned when the user aborts a prompt.
var ErrInputCancelled = errors.New("input cancelled")

type passwordInput struct {
	prompt    string
	input     textinput.Model
	submitted bool
	cancelled bool
}

func newPasswordInput(prompt string) passwordInput {
	input := textinput.New()
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.Placeholder = "password"
	input.Focus()
	return passwordInput{prompt: prompt, input: input}
}

func (m passwordInput) Init() tea.Cmd {
	return textinput.Blink
}

func (m passwordInput) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			if m.input.Value() == "" {
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m passwordInput) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return fmt.Sprintf("\n%s\n%s\n%s\n", styles.RenderTitle(m.prompt), m.input.View(), styles.RenderMuted("(enter to confirm, esc to cancel)"))
}

// ReadPassword prompts for a secret without echoing it.
func ReadPassword(ctx context.Context, prompt string) (string, error) {
	if !isInteractiveMode {
		return "", fmt.Errorf("cannot prompt for a password in a non-interactive session")
	}

	p := tea.NewProgram(newPasswordInput(prompt), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	model := final.(passwordInput)
	if model.cancelled {
		return "", ErrInputCancelled
	}
	return model.input.Value(), nil
}
