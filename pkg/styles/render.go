/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func RenderBright(str string) string    { return StyleBright.Render(str) }
func RenderTitle(str string) string     { return StyleTitle.Render(str) }
func RenderError(str string) string     { return StyleError.Render(str) }
func RenderWarning(str string) string   { return StyleWarning.Render(str) }
func RenderTechnical(str string) string { return StyleTechnical.Render(str) }
func RenderAttention(str string) string { return StyleWarning.Render(str) }
func RenderSuccess(str string) string   { return StyleSuccess.Render(str) }
func RenderMuted(str string) string     { return StyleMuted.Render(str) }
func RenderPrompt(str string) string    { return StylePrompt.Render(str) }
func RenderComment(str string) string   { return StyleComment.Render(str) }

func RenderListTechnical(list []string) string {
	elements := make([]string, 0, len(list))
	for _, str := range list {
		elements = append(elements, RenderTechnical(str))
	}
	return strings.Join(elements, ", ")
}

// RenderRunStatus colors a persisted run status: green when fetched, muted
// when skipped, yellow when a credential is missing, red on failures.
func RenderRunStatus(status string) string {
	var color lipgloss.Color
	switch status {
	case "Fetched":
		color = ColorGreen
	case "Skipped":
		color = ColorNeutral
	case "NoCredential":
		color = ColorYellow
	case "AuthRejected", "Failed":
		color = ColorRed
	default:
		return status
	}
	return lipgloss.NewStyle().Foreground(color).Render(status)
}
