/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLocalExpiryAt(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	withExpiry := func(name string, expiresAt string) string {
		config := NewSkeleton()
		config.Preferences.Set(PrefCertExpiresAt, expiresAt)
		data, err := Marshal(config)
		require.NoError(t, err)
		return writeFile(t, dir, name, data)
	}

	tests := []struct {
		name string
		path string
		want ExpiryState
	}{
		{"missing file", filepath.Join(dir, "does-not-exist"), ExpiryUnknown},
		{"unparseable yaml", writeFile(t, dir, "garbage", []byte("clusters: [unterminated")), ExpiryUnknown},
		{"no expiry preference", writeFile(t, dir, "bare", []byte("apiVersion: v1\nkind: Config\npreferences: {}\n")), ExpiryUnknown},
		{"unparseable timestamp", withExpiry("bad-ts", "next tuesday"), ExpiryUnknown},
		{"future expiry", withExpiry("future", "2027-01-01T00:00:00Z"), ExpiryValid},
		{"past expiry", withExpiry("past", "2025-01-01T00:00:00Z"), ExpiryExpired},
		{"expires exactly now", withExpiry("now", "2026-06-01T00:00:00Z"), ExpiryExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := CheckLocalExpiryAt(tt.path, now)
			assert.Equal(t, tt.want, status.State)
			assert.Equal(t, tt.want != ExpiryValid, status.NeedsFetch())
			if tt.want == ExpiryUnknown {
				assert.True(t, status.ExpiresAt.IsZero())
			}
		})
	}
}

func TestCheckLocalExpiryOfRewrittenDocument(t *testing.T) {
	dir := t.TempDir()
	notAfter := time.Now().Add(90 * 24 * time.Hour).Truncate(time.Second).UTC()
	raw := k3sDocument(t, notAfter)

	config, err := Parse(raw)
	require.NoError(t, err)
	require.NoError(t, Rewrite(config, RewriteOptions{TargetIP: "10.0.0.5", SourceHash: SourceHash(raw), ServerName: "edge-1"}))
	data, err := Marshal(config)
	require.NoError(t, err)
	path := writeFile(t, dir, "edge-1", data)

	status := CheckLocalExpiry(path)
	assert.Equal(t, ExpiryValid, status.State)
	assert.True(t, notAfter.Equal(status.ExpiresAt))
	assert.False(t, status.NeedsFetch())
}

func TestParseExpiryFromBytes(t *testing.T) {
	notAfter := time.Date(2030, 2, 3, 4, 5, 6, 0, time.UTC)

	expiresAt, ok := ParseExpiryFromBytes(k3sDocument(t, notAfter))
	require.True(t, ok)
	assert.Equal(t, notAfter, expiresAt)

	_, ok = ParseExpiryFromBytes([]byte("not: [valid"))
	assert.False(t, ok)

	_, ok = ParseExpiryFromBytes([]byte(`apiVersion: v1
kind: Config
current-context: missing
contexts: []
users: []
`))
	assert.False(t, ok)
}

func TestExpiryStateString(t *testing.T) {
	assert.Equal(t, "unknown", ExpiryUnknown.String())
	assert.Equal(t, "valid", ExpiryValid.String())
	assert.Equal(t, "expired", ExpiryExpired.String())
}
