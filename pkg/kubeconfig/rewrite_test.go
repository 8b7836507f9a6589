/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteK3sDocumentForEdgeServer(t *testing.T) {
	notAfter := time.Date(2031, 5, 4, 12, 0, 0, 0, time.UTC)
	raw := k3sDocument(t, notAfter)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	config, err := Parse(raw)
	require.NoError(t, err)

	err = Rewrite(config, RewriteOptions{
		TargetIP:   "10.0.0.5",
		SourceHash: SourceHash(raw),
		ServerName: "edge-1",
		Now:        now,
	})
	require.NoError(t, err)

	assert.Equal(t, "edge-1", config.CurrentContext)
	require.Len(t, config.Clusters, 1)
	assert.Equal(t, "https://10.0.0.5:6443", config.Clusters[0].Cluster.Server)
	assert.Equal(t, "Q0EtREFUQQ==", config.Clusters[0].Cluster.CertificateAuthorityData)

	hash, ok := config.Preferences.Get(PrefSourceHash)
	require.True(t, ok)
	assert.Equal(t, SourceHash(raw), hash)
	assert.Len(t, hash, 64)

	updated, ok := config.Preferences.Get(PrefLastUpdated)
	require.True(t, ok)
	assert.Equal(t, "2026-01-02T03:04:05Z", updated)

	expires, ok := config.Preferences.Get(PrefCertExpiresAt)
	require.True(t, ok)
	assert.Equal(t, "2031-05-04T12:00:00Z", expires)
}

func TestRewriteUniqueNames(t *testing.T) {
	tests := []struct {
		name        string
		contextName string
		serverName  string
		want        string
	}{
		{"explicit context name", "prod-eu", "node-3", "prod-eu"},
		{"falls back to server name", "", "node-3", "node-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := k3sDocument(t, time.Now().Add(time.Hour))
			config, err := Parse(raw)
			require.NoError(t, err)

			require.NoError(t, Rewrite(config, RewriteOptions{
				TargetIP:    "192.168.1.10",
				SourceHash:  SourceHash(raw),
				ContextName: tt.contextName,
				ServerName:  tt.serverName,
			}))

			assert.Equal(t, tt.want, config.CurrentContext)
			require.Len(t, config.Clusters, 1)
			require.Len(t, config.Contexts, 1)
			require.Len(t, config.Users, 1)
			assert.Equal(t, tt.want, config.Clusters[0].Name)
			assert.Equal(t, tt.want, config.Users[0].Name)
			assert.Equal(t, tt.want, config.Contexts[0].Name)
			assert.Equal(t, tt.want, config.Contexts[0].Context.Cluster)
			assert.Equal(t, tt.want, config.Contexts[0].Context.User)
		})
	}
}

func TestRewriteSurvivesSerialization(t *testing.T) {
	config := rewrittenDocument(t, "edge-2", "10.1.1.1")

	data, err := Marshal(config)
	require.NoError(t, err)
	reparsed, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "edge-2", reparsed.CurrentContext)
	assert.Equal(t, "https://10.1.1.1:6443", reparsed.Clusters[0].Cluster.Server)
	assert.Equal(t, []string{PrefSourceHash, PrefLastUpdated, PrefCertExpiresAt}, reparsed.Preferences.Keys())
}

func TestRewriteIPv6TargetIsBracketed(t *testing.T) {
	raw := k3sDocument(t, time.Now().Add(time.Hour))
	config, err := Parse(raw)
	require.NoError(t, err)

	require.NoError(t, Rewrite(config, RewriteOptions{TargetIP: "fd00::5", ServerName: "v6"}))
	assert.Equal(t, "https://[fd00::5]:6443", config.Clusters[0].Cluster.Server)
}

func TestRewriteStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name: "no clusters",
			doc: `apiVersion: v1
kind: Config
current-context: default
clusters: []
contexts:
- name: default
  context: {cluster: default, user: default}
users:
- name: default
  user: {}
`,
			wantErr: ErrNoClusters,
		},
		{
			name: "no contexts",
			doc: `apiVersion: v1
kind: Config
clusters:
- name: default
  cluster: {server: "https://127.0.0.1:6443"}
users:
- name: default
  user: {}
`,
			wantErr: ErrNoContexts,
		},
		{
			name: "no users",
			doc: `apiVersion: v1
kind: Config
clusters:
- name: default
  cluster: {server: "https://127.0.0.1:6443"}
contexts:
- name: default
  context: {cluster: default, user: default}
`,
			wantErr: ErrNoUsers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Parse([]byte(tt.doc))
			require.NoError(t, err)

			err = Rewrite(config, RewriteOptions{TargetIP: "10.0.0.1", ServerName: "s"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRewriteInvalidCertificateIsNotFatal(t *testing.T) {
	raw := []byte(`apiVersion: v1
kind: Config
current-context: default
clusters:
- name: default
  cluster: {server: "https://127.0.0.1:6443", certificate-authority-data: FAKECERT}
contexts:
- name: default
  context: {cluster: default, user: default}
users:
- name: default
  user: {client-certificate-data: aGVsbG8gd29ybGQ=, client-key-data: FAKEKEY}
`)
	config, err := Parse(raw)
	require.NoError(t, err)

	require.NoError(t, Rewrite(config, RewriteOptions{TargetIP: "10.0.0.9", SourceHash: SourceHash(raw), ServerName: "broken-cert"}))

	assert.Equal(t, "broken-cert", config.CurrentContext)
	_, hasExpiry := config.Preferences.Get(PrefCertExpiresAt)
	assert.False(t, hasExpiry)
	_, hasHash := config.Preferences.Get(PrefSourceHash)
	assert.True(t, hasHash)
}

func TestRewriteRepointsSecondaryContexts(t *testing.T) {
	raw := []byte(`apiVersion: v1
kind: Config
current-context: default
clusters:
- name: default
  cluster: {server: "https://127.0.0.1:6443"}
contexts:
- name: default
  context: {cluster: default, user: default}
- name: default-kube-system
  context: {cluster: default, user: default, namespace: kube-system}
users:
- name: default
  user: {token: abc}
`)
	config, err := Parse(raw)
	require.NoError(t, err)

	require.NoError(t, Rewrite(config, RewriteOptions{TargetIP: "10.0.0.2", ServerName: "edge-3"}))

	secondary := config.FindContext("default-kube-system")
	require.NotNil(t, secondary)
	assert.Equal(t, "edge-3", secondary.Context.Cluster)
	assert.Equal(t, "edge-3", secondary.Context.User)
	assert.Equal(t, "kube-system", secondary.Context.Namespace)
	assert.Equal(t, "abc", config.Users[0].User.Extra["token"])
}

func TestDetectDrift(t *testing.T) {
	dir := t.TempDir()
	cached := rewrittenDocument(t, "edge-1", "10.0.0.5")
	data, err := Marshal(cached)
	require.NoError(t, err)
	path := writeFile(t, dir, "edge-1", data)
	oldHash, _ := cached.Preferences.Get(PrefSourceHash)

	previous, drifted := DetectDrift(path, oldHash)
	assert.False(t, drifted)
	assert.Equal(t, oldHash, previous)

	previous, drifted = DetectDrift(path, SourceHash([]byte("something else")))
	assert.True(t, drifted)
	assert.Equal(t, oldHash, previous)

	_, drifted = DetectDrift(dir+"/missing", oldHash)
	assert.False(t, drifted)
}
