/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kube-config-updater/cli/pkg/config"
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/kube-config-updater/cli/pkg/kubeconfig"
	"github.com/kube-config-updater/cli/pkg/remote"
)

// ErrCredentialUnavailable is returned by Probe when no credential store can be reached.
var ErrCredentialUnavailable = errors.New("no credential store available")

// ProbeResult describes the kubeconfig currently on a server.
type ProbeResult struct {
	Server     string
	ExpiresAt  time.Time // Zero when the certificate could not be read.
	SourceHash string
	CachedHash string // Source hash of the local cache, empty when not cached.
}

// HasExpiry reports whether the remote certificate expiry is known.
func (p ProbeResult) HasExpiry() bool {
	return !p.ExpiresAt.IsZero()
}

// Changed reports whether the remote file differs from the one last fetched.
func (p ProbeResult) Changed() bool {
	return p.CachedHash != "" && p.CachedHash != p.SourceHash
}

// Probe fetches the remote kubeconfig of server without writing anything and
// reports its certificate expiry.
func (r *Runner) Probe(ctx context.Context, server config.ServerSpec) (ProbeResult, error) {
	user, err := r.Config.User(server)
	if err != nil {
		return ProbeResult{}, err
	}
	remotePath, err := r.Config.RemoteFilePath(server)
	if err != nil {
		return ProbeResult{}, err
	}

	credential := r.Credentials.Resolve(server.Name)
	if credential.Kind() == credentials.ResultUnavailable {
		return ProbeResult{}, fmt.Errorf("%w: %s", ErrCredentialUnavailable, credential.Reason())
	}

	data, err := r.Fetcher.Fetch(ctx, remote.Request{
		ServerName:   server.Name,
		Host:         server.Address,
		User:         user,
		RemotePath:   remotePath,
		IdentityFile: r.Config.IdentityFile(server),
		Password:     credential.Secret(),
	})
	if err != nil {
		return ProbeResult{}, err
	}

	result := ProbeResult{Server: server.Name, SourceHash: kubeconfig.SourceHash(data)}
	if expiresAt, ok := kubeconfig.ParseExpiryFromBytes(data); ok {
		result.ExpiresAt = expiresAt
	}
	if cached, err := kubeconfig.Load(r.Config.LocalPath(server)); err == nil {
		result.CachedHash, _ = cached.Preferences.Get(kubeconfig.PrefSourceHash)
	}
	return result, nil
}
