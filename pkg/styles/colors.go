/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package styles

import "github.com/charmbracelet/lipgloss"

var (
	ColorNeutral   = lipgloss.Color("#737373")
	ColorOrange    = lipgloss.Color("#ff7a00")
	ColorGreen     = lipgloss.Color("#28a745")
	ColorDarkGreen = lipgloss.Color("#3f6730")
	ColorBlue      = lipgloss.Color("#2d90dc")
	ColorRed       = lipgloss.Color("#ef4444")
	ColorYellow    = lipgloss.Color("#ffff55")

	StyleTitle     = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	StyleBright    = lipgloss.NewStyle().Bold(true)
	StyleSuccess   = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleError     = lipgloss.NewStyle().Foreground(ColorRed)
	StyleWarning   = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleTechnical = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleMuted     = lipgloss.NewStyle().Foreground(ColorNeutral)
	StylePrompt    = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
	StyleComment   = lipgloss.NewStyle().Foreground(ColorDarkGreen)

	// Column styles of the status table.
	StyleTableHeader = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	StyleTableCell   = lipgloss.NewStyle().PaddingRight(2)

	ListStyle = lipgloss.NewStyle().Width(70)
)
