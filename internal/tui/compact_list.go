/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kube-config-updater/cli/pkg/styles"
)

// ErrNothingSelected is returned when the user leaves a list without choosing.
var ErrNothingSelected = errors.New("nothing was selected")

// Item in our compact list.
type compactListItem struct {
	index       int
	name        string
	description string
}

func (item compactListItem) Title() string {
	return fmt.Sprintf("%s %s", item.name, styles.RenderMuted(item.description))
}

func (item compactListItem) FilterValue() string { return item.name }

// compactListDelegate renders one item per line.
type compactListDelegate struct{}

func (d compactListDelegate) Height() int                               { return 1 }
func (d compactListDelegate) Spacing() int                              { return 0 }
func (d compactListDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d compactListDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(compactListItem)
	if !ok {
		return
	}

	if index == m.Index() {
		fmt.Fprint(w, lipgloss.NewStyle().Foreground(styles.ColorOrange).Render("▸ "+item.Title()))
	} else {
		fmt.Fprint(w, "  "+item.Title())
	}
}

type compactListModel struct {
	title    string
	model    list.Model
	selected *compactListItem
	quitting bool
}

func (m compactListModel) Init() tea.Cmd {
	return nil
}

func (m compactListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.model.SelectedItem().(compactListItem); ok {
				m.selected = &item
				m.quitting = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.model, cmd = m.model.Update(msg)
	return m, cmd
}

func (m compactListModel) View() string {
	content := "\n" + styles.RenderTitle(m.title) + "\n\n"
	if !m.quitting {
		content += styles.ListStyle.Render(m.model.View())
	}
	return content
}

func chooseFromList(title string, items []list.Item) (int, error) {
	height := len(items) + 2
	if height > 20 {
		height = 20
	}
	model := list.New(items, compactListDelegate{}, 80, height)
	model.SetShowTitle(false)
	model.SetFilteringEnabled(false)
	model.SetShowStatusBar(false)
	model.SetShowHelp(false)

	final, err := tea.NewProgram(compactListModel{title: title, model: model}).Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run selection: %w", err)
	}
	selected := final.(compactListModel).selected
	if selected == nil {
		return -1, ErrNothingSelected
	}
	return selected.index, nil
}
