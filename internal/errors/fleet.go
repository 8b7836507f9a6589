/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package errors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ConfigNotFound reports a missing fleet config file as a usage error.
func ConfigNotFound(path string, cause error) *CLIError {
	return WrapUsageError(cause, fmt.Sprintf("No fleet config found at %s", path)).
		WithSuggestion("Create the file with a [[server]] table per server, or pass its location with --config.")
}

// ConfigInvalid reports a fleet config that failed validation. Every problem
// collected in a multierror becomes one detail line; the problems stay
// reachable through errors.As.
func ConfigInvalid(path string, cause error) *CLIError {
	cliErr := WrapUsageError(cause, fmt.Sprintf("The fleet config at %s is invalid", path))
	var merr *multierror.Error
	if errors.As(cause, &merr) && len(merr.Errors) > 0 {
		for _, problem := range merr.Errors {
			cliErr.Details = append(cliErr.Details, problem.Error())
		}
		cliErr.causeInDetails = true
	}
	return cliErr.WithSuggestion("Fix the listed entries and run the command again.")
}

// CredentialUnavailable reports that no credential store could be read.
func CredentialUnavailable(cause error) *CLIError {
	return Wrap(cause, "Cannot read the server credential").
		WithSuggestion("Store the credential with 'kube-config-updater credential set' after the keyring becomes available.")
}
