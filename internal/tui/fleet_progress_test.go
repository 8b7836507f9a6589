/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kube-config-updater/cli/pkg/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonInteractive(t *testing.T) {
	t.Helper()
	previous := IsInteractiveMode()
	SetInteractiveMode(false)
	t.Cleanup(func() { SetInteractiveMode(previous) })
}

func TestDescribeOutcome(t *testing.T) {
	expiry := time.Date(2031, 5, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		outcome    fleet.Outcome
		wantStatus ServerStatus
		wantDetail string
	}{
		{
			name:       "fetched",
			outcome:    fleet.Outcome{Kind: fleet.OutcomeFetched, ExpiresAt: expiry},
			wantStatus: ServerFetched,
			wantDetail: "updated, certificate valid until 2031-05-04",
		},
		{
			name:       "dry-run",
			outcome:    fleet.Outcome{Kind: fleet.OutcomeFetched, DryRun: true},
			wantStatus: ServerFetched,
			wantDetail: "would update (dry-run)",
		},
		{
			name:       "certificate still valid",
			outcome:    fleet.Outcome{Kind: fleet.OutcomeSkipped, SkipReason: fleet.SkipCertStillValid, ExpiresAt: expiry},
			wantStatus: ServerSkipped,
			wantDetail: "skipped, certificate valid until 2031-05-04",
		},
		{
			name:       "no credential store",
			outcome:    fleet.Outcome{Kind: fleet.OutcomeSkipped, SkipReason: fleet.SkipKeyringUnavailable},
			wantStatus: ServerSkipped,
			wantDetail: "skipped, no credential store available",
		},
		{
			name:       "failed",
			outcome:    fleet.Outcome{Kind: fleet.OutcomeFailed, Failure: fleet.FailureGeneric, Err: errors.New("connection refused")},
			wantStatus: ServerFailed,
			wantDetail: "failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := describeOutcome(tt.outcome)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestFleetProgressNonInteractiveRun(t *testing.T) {
	nonInteractive(t)

	progress := NewFleetProgress([]string{"edge-1", "edge-2"})
	ran := false
	err := progress.Run(func() {
		ran = true
		var wg sync.WaitGroup
		for _, name := range []string{"edge-1", "edge-2"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				progress.ServerStarted(name)
				progress.ServerFinished(fleet.Outcome{Server: name, Kind: fleet.OutcomeFetched})
			}()
		}
		wg.Wait()
	})
	require.NoError(t, err)
	assert.True(t, ran)

	view := progress.view()
	assert.Contains(t, view, "(2/2)")
	assert.Equal(t, 2, strings.Count(view, "✓"))
}

func TestFleetProgressIgnoresUnknownServers(t *testing.T) {
	nonInteractive(t)

	progress := NewFleetProgress([]string{"edge-1"})
	progress.ServerStarted("other")
	progress.ServerFinished(fleet.Outcome{Server: "other", Kind: fleet.OutcomeFailed, Err: errors.New("x")})

	view := progress.view()
	assert.Contains(t, view, "(0/1)")
	assert.Contains(t, view, "○")
	assert.NotContains(t, view, "other")
}
