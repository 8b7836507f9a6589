/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// Is the UI library in interactive mode?
var isInteractiveMode = true

func IsInteractiveMode() bool {
	return isInteractiveMode
}

// Set the interactive mode of the UI library.
func SetInteractiveMode(isInteractive bool) {
	isInteractiveMode = isInteractive
}

// DetectInteractiveMode reports whether both stdin and stdout are terminals,
// so prompts can be answered and progress redrawn.
func DetectInteractiveMode() bool {
	isTerminal := func(fd uintptr) bool {
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}
