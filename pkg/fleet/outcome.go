/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package fleet

import (
	"fmt"
	"time"

	"github.com/kube-config-updater/cli/pkg/runstate"
)

// OutcomeKind is the terminal state of one server job.
type OutcomeKind int

const (
	OutcomeFetched OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

// SkipReason says why a job ended without fetching.
type SkipReason int

const (
	SkipCertStillValid SkipReason = iota
	SkipKeyringUnavailable
)

func (r SkipReason) String() string {
	switch r {
	case SkipKeyringUnavailable:
		return "keyring unavailable"
	default:
		return "certificate still valid"
	}
}

// FailureClass separates rejected credentials from every other failure.
type FailureClass int

const (
	FailureGeneric FailureClass = iota
	FailureAuthRejected
)

func (c FailureClass) String() string {
	if c == FailureAuthRejected {
		return "authentication rejected"
	}
	return "failed"
}

// Outcome of one server job. SkipReason is meaningful only for
// OutcomeSkipped; Failure and Err only for OutcomeFailed.
type Outcome struct {
	Server     string
	Kind       OutcomeKind
	SkipReason SkipReason
	Failure    FailureClass
	Err        error
	ExpiresAt  time.Time // Certificate expiry, zero when unknown.
	DryRun     bool
	At         time.Time // When the job finished.
}

func fetchedOutcome(server string, expiresAt time.Time, dryRun bool, at time.Time) Outcome {
	return Outcome{Server: server, Kind: OutcomeFetched, ExpiresAt: expiresAt, DryRun: dryRun, At: at}
}

func skippedOutcome(server string, reason SkipReason, expiresAt time.Time, at time.Time) Outcome {
	return Outcome{Server: server, Kind: OutcomeSkipped, SkipReason: reason, ExpiresAt: expiresAt, At: at}
}

func failedOutcome(server string, err error, at time.Time) Outcome {
	return Outcome{Server: server, Kind: OutcomeFailed, Failure: Classify(err), Err: err, At: at}
}

// RunState converts the outcome to its persisted form.
func (o Outcome) RunState() runstate.ServerRunState {
	switch o.Kind {
	case OutcomeFetched:
		return runstate.Fetched(o.At)
	case OutcomeSkipped:
		if o.SkipReason == SkipKeyringUnavailable {
			return runstate.NoCredential(o.At)
		}
		return runstate.Skipped(o.At)
	default:
		if o.Failure == FailureAuthRejected {
			return runstate.AuthRejected(o.At, o.Err)
		}
		return runstate.Failed(o.At, o.Err)
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFetched:
		if o.DryRun {
			return "fetched (dry-run)"
		}
		return "fetched"
	case OutcomeSkipped:
		return fmt.Sprintf("skipped: %s", o.SkipReason)
	default:
		return fmt.Sprintf("%s: %v", o.Failure, o.Err)
	}
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Outcomes            []Outcome
	Fetched             int
	SkippedCertValid    int
	SkippedNoCredential int
	Failed              int
	StateErr            error // Set when the run state could not be saved.
}

func summarize(outcomes []Outcome) Summary {
	summary := Summary{Outcomes: outcomes}
	for _, outcome := range outcomes {
		switch {
		case outcome.Kind == OutcomeFetched:
			summary.Fetched++
		case outcome.Kind == OutcomeSkipped && outcome.SkipReason == SkipKeyringUnavailable:
			summary.SkippedNoCredential++
		case outcome.Kind == OutcomeSkipped:
			summary.SkippedCertValid++
		default:
			summary.Failed++
		}
	}
	return summary
}

// Notable is false when every server was skipped with a valid certificate,
// so unattended runs stay quiet.
func (s Summary) Notable() bool {
	return s.Fetched > 0 || s.Failed > 0 || s.SkippedNoCredential > 0
}

func (s Summary) String() string {
	return fmt.Sprintf("fetched=%d skipped_cert_valid=%d skipped_no_cred=%d failed=%d", s.Fetched, s.SkippedCertValid, s.SkippedNoCredential, s.Failed)
}
