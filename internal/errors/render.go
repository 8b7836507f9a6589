/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package errors

import (
	"fmt"
	"io"

	"github.com/kube-config-updater/cli/pkg/styles"
)

// Render writes err for the user: the message, then the dimmed cause, the
// details as bullet points and the suggestion. Plain errors get one line.
func Render(w io.Writer, err error) {
	cliErr, ok := AsCLIError(err)
	if !ok {
		fmt.Fprintf(w, "%s %v\n", styles.RenderError("Error:"), err)
		return
	}

	fmt.Fprintf(w, "%s %s\n", styles.RenderError("Error:"), cliErr.Message)
	if cliErr.Cause != nil && !cliErr.causeInDetails && cliErr.Cause.Error() != cliErr.Message {
		fmt.Fprintf(w, "  %s\n", styles.RenderMuted(cliErr.Cause.Error()))
	}
	for _, detail := range cliErr.Details {
		fmt.Fprintf(w, "  - %s\n", detail)
	}
	if cliErr.Suggestion != "" {
		fmt.Fprintf(w, "\n%s %s\n", styles.RenderAttention("Hint:"), cliErr.Suggestion)
	}
}
