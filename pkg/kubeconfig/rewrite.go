/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrNoClusters = errors.New("no clusters found in the kubeconfig")
	ErrNoContexts = errors.New("no contexts found in the kubeconfig")
	ErrNoUsers    = errors.New("no users found in the kubeconfig")
)

// APIServerPort is the port of the rewritten cluster API server URL.
const APIServerPort = "6443"

// RewriteOptions controls how a fetched kubeconfig is made unique.
type RewriteOptions struct {
	TargetIP    string    // Address the cluster API server is reachable at.
	SourceHash  string    // SHA-256 of the raw fetched bytes.
	ContextName string    // Explicit name for the cluster/context/user, optional.
	ServerName  string    // Name of the server the document was fetched from.
	Now         time.Time // Timestamp recorded as script-last-updated. Defaults to time.Now().
}

// UniqueName is the name given to the cluster, context and user.
func (o RewriteOptions) UniqueName() string {
	if o.ContextName != "" {
		return o.ContextName
	}
	return o.ServerName
}

// Rewrite injects provenance metadata into config, points its first cluster to
// the target IP, and renames the first cluster, context and user to a name that
// is unique across the fleet. Remote k3s configs name everything "default", so
// without the rename the merged entries of two servers would clobber each other.
func Rewrite(config *KubeConfig, opts RewriteOptions) error {
	if len(config.Clusters) == 0 {
		return ErrNoClusters
	}
	if len(config.Contexts) == 0 {
		return ErrNoContexts
	}
	if len(config.Users) == 0 {
		return ErrNoUsers
	}

	addMetadata(config, opts)

	uniqueName := opts.UniqueName()
	renameEntries(config, uniqueName, opts.TargetIP)
	return nil
}

func addMetadata(config *KubeConfig, opts RewriteOptions) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	config.Preferences.Set(PrefSourceHash, opts.SourceHash)
	config.Preferences.Set(PrefLastUpdated, now.UTC().Format(time.RFC3339))

	// Certificate expiry is best-effort: the rest of the rewrite proceeds without it.
	expiresAt, err := ActiveCertificateExpiry(config)
	if err != nil {
		log.Warn().Str("server", opts.ServerName).Msgf("Could not determine certificate expiry: %v", err)
		return
	}
	log.Debug().Str("server", opts.ServerName).Msgf("Client certificate expires at %s", expiresAt.Format(time.RFC3339))
	config.Preferences.Set(PrefCertExpiresAt, expiresAt.Format(time.RFC3339))
}

func renameEntries(config *KubeConfig, uniqueName string, targetIP string) {
	cluster := &config.Clusters[0]
	user := &config.Users[0]
	oldClusterName := cluster.Name
	oldUserName := user.Name

	serverURL := fmt.Sprintf("https://%s", net.JoinHostPort(targetIP, APIServerPort))
	log.Debug().Msgf("Updating cluster '%s' server from '%s' to '%s'", cluster.Name, cluster.Cluster.Server, serverURL)
	cluster.Cluster.Server = serverURL
	cluster.Name = uniqueName
	user.Name = uniqueName

	for ndx := range config.Contexts {
		context := &config.Contexts[ndx]
		if ndx == 0 {
			log.Debug().Msgf("Updating context name from '%s' to '%s'", context.Name, uniqueName)
			context.Name = uniqueName
			context.Context.Cluster = uniqueName
			context.Context.User = uniqueName
			continue
		}
		// Keep secondary contexts pointing at the renamed entries.
		if context.Context.Cluster == oldClusterName {
			context.Context.Cluster = uniqueName
		}
		if context.Context.User == oldUserName {
			context.Context.User = uniqueName
		}
	}

	config.CurrentContext = uniqueName
}

// DetectDrift compares the source hash recorded in the cached kubeconfig at
// path with newHash. It returns the previous hash and whether they differ; a
// missing cache or missing hash is not drift.
func DetectDrift(path string, newHash string) (string, bool) {
	previous, err := Load(path)
	if err != nil {
		return "", false
	}
	oldHash, ok := previous.Preferences.Get(PrefSourceHash)
	if !ok || oldHash == "" {
		return "", false
	}
	return oldHash, oldHash != newHash
}
