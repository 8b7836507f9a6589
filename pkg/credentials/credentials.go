/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package credentials resolves the SSH passwords used to fetch remote
// kubeconfigs. Secrets live in the OS keyring, or in a permission-restricted
// file when no keyring daemon is reachable.
package credentials

import (
	"fmt"
	"strings"
)

const (
	// Service is the keyring service all entries are stored under.
	Service = "kube_config_updater"
	// DefaultAccount holds the credential used for servers without their own entry.
	DefaultAccount = "_default"
)

// ResultKind tells which variant a Result holds.
type ResultKind int

const (
	ResultNotFound ResultKind = iota
	ResultFound
	ResultUnavailable
)

// Result of a credential lookup: Found(secret), NotFound or Unavailable(reason).
// Formatting a Result never reveals the secret.
type Result struct {
	kind   ResultKind
	secret string
	reason string
}

func Found(secret string) Result {
	return Result{kind: ResultFound, secret: secret}
}

func NotFound() Result {
	return Result{kind: ResultNotFound}
}

func Unavailable(reason string) Result {
	return Result{kind: ResultUnavailable, reason: reason}
}

func (r Result) Kind() ResultKind { return r.kind }

// Secret returns the credential. Empty unless Kind() is ResultFound.
func (r Result) Secret() string { return r.secret }

// Reason describes why the backend could not be reached.
func (r Result) Reason() string { return r.reason }

func (r Result) String() string {
	switch r.kind {
	case ResultFound:
		return "Found(<redacted>)"
	case ResultUnavailable:
		return fmt.Sprintf("Unavailable(%s)", r.reason)
	default:
		return "NotFound"
	}
}

func (r Result) GoString() string {
	return "credentials." + r.String()
}

// Backend is a secret store addressed by account name.
type Backend interface {
	Get(account string) Result
	Set(account string, secret string) error
	Delete(account string) error
}

// Signatures of errors meaning no keyring daemon is running, as opposed to a
// missing entry or a permission problem.
var unavailableSignatures = []string{
	"platform secure storage",
	"dbus",
	"org.freedesktop.secrets",
	"no storage access",
	"secret service",
}

// IsUnavailableError reports whether a keyring error message indicates that
// the secret service itself is unreachable.
func IsUnavailableError(message string) bool {
	lower := strings.ToLower(message)
	for _, signature := range unavailableSignatures {
		if strings.Contains(lower, signature) {
			return true
		}
	}
	return false
}
