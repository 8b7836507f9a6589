/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package fleet

import (
	"errors"
	"strings"

	"github.com/kube-config-updater/cli/pkg/remote"
)

// Error text fragments meaning the remote side rejected our credentials,
// either during the SSH handshake or when sudo checked the password.
var authRejectedSignatures = []string{
	"authentication failed",
	"auth rejected",
	"unable to authenticate",
	"permission denied (publickey",
	"incorrect password",
	"sorry, try again",
}

// Classify decides whether a job error is an authentication rejection.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureGeneric
	}
	if errors.Is(err, remote.ErrAuthenticationFailed) {
		return FailureAuthRejected
	}
	message := strings.ToLower(err.Error())
	for _, signature := range authRejectedSignatures {
		if strings.Contains(message, signature) {
			return FailureAuthRejected
		}
	}
	return FailureGeneric
}
