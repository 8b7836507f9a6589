/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package fleet runs the fetch, rewrite and merge pipeline for every server
// of the fleet in parallel.
package fleet

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/kube-config-updater/cli/pkg/atomicfile"
	"github.com/kube-config-updater/cli/pkg/config"
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/kube-config-updater/cli/pkg/kubeconfig"
	"github.com/kube-config-updater/cli/pkg/remote"
	"github.com/kube-config-updater/cli/pkg/runstate"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CredentialResolver returns the credential to use for a server.
type CredentialResolver interface {
	Resolve(serverName string) credentials.Result
}

// Observer receives progress events. Calls may come from several goroutines.
type Observer interface {
	ServerStarted(server string)
	ServerFinished(outcome Outcome)
}

// RunOptions modify a run.
type RunOptions struct {
	Force  bool // Fetch even when the cached certificate is still valid.
	DryRun bool // Log every write instead of performing it.
}

// Runner wires the pipeline stages together. Config, Credentials, Fetcher,
// Merger and State are required.
type Runner struct {
	Config      *config.FleetConfig
	Credentials CredentialResolver
	Fetcher     remote.Fetcher
	Merger      *kubeconfig.Merger
	State       runstate.Store
	Observer    Observer         // Optional.
	Workers     int              // Parallel jobs. Defaults to the number of CPUs.
	Now         func() time.Time // Defaults to time.Now.
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

// RunAll runs a job for every server and records the outcomes in the run
// state once all jobs are done. A failing job never stops the others.
func (r *Runner) RunAll(ctx context.Context, servers []config.ServerSpec, opts RunOptions) Summary {
	outcomes := make([]Outcome, len(servers))

	var group errgroup.Group
	group.SetLimit(r.workers())
	for ndx, server := range servers {
		group.Go(func() error {
			if r.Observer != nil {
				r.Observer.ServerStarted(server.Name)
			}
			outcomes[ndx] = r.runGuarded(ctx, server, opts)
			if r.Observer != nil {
				r.Observer.ServerFinished(outcomes[ndx])
			}
			return nil
		})
	}
	_ = group.Wait()

	summary := summarize(outcomes)

	if opts.DryRun {
		log.Info().Msg("DRY-RUN: Would update the run state")
	} else {
		states := make(map[string]runstate.ServerRunState, len(outcomes))
		for _, outcome := range outcomes {
			states[outcome.Server] = outcome.RunState()
		}
		if err := r.State.Update(states); err != nil {
			log.Error().Msgf("Failed to save run state: %v", err)
			summary.StateErr = err
		}
	}

	if summary.Notable() {
		log.Info().Msgf("Run complete: %s", summary)
	}
	return summary
}

// runGuarded turns a panicking job into a failed outcome.
func (r *Runner) runGuarded(ctx context.Context, server config.ServerSpec, opts RunOptions) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error().Str("server", server.Name).Msgf("Job panicked: %v", recovered)
			outcome = failedOutcome(server.Name, fmt.Errorf("internal error: %v", recovered), r.now())
		}
	}()
	return r.RunServer(ctx, server, opts)
}

// RunServer runs the job of a single server. Errors never escape: they are
// reported as a failed Outcome.
func (r *Runner) RunServer(ctx context.Context, server config.ServerSpec, opts RunOptions) Outcome {
	logger := log.With().Str("server", server.Name).Logger()
	localPath := r.Config.LocalPath(server)

	user, err := r.Config.User(server)
	if err != nil {
		logger.Error().Msgf("%v", err)
		return failedOutcome(server.Name, err, r.now())
	}
	remotePath, err := r.Config.RemoteFilePath(server)
	if err != nil {
		logger.Error().Msgf("%v", err)
		return failedOutcome(server.Name, err, r.now())
	}

	if opts.Force {
		logger.Debug().Msg("Forced run, ignoring cached certificate")
	} else {
		status := kubeconfig.CheckLocalExpiryAt(localPath, r.now())
		if !status.NeedsFetch() {
			logger.Debug().Msgf("Certificate valid until %s, skipping", status.ExpiresAt.Format(time.RFC3339))
			return skippedOutcome(server.Name, SkipCertStillValid, status.ExpiresAt, r.now())
		}
		logger.Debug().Msgf("Cached certificate is %s, fetching", status.State)
	}

	credential := r.Credentials.Resolve(server.Name)
	var password string
	switch credential.Kind() {
	case credentials.ResultUnavailable:
		logger.Warn().Msgf("No credential store available (%s), skipping", credential.Reason())
		return skippedOutcome(server.Name, SkipKeyringUnavailable, time.Time{}, r.now())
	case credentials.ResultFound:
		password = credential.Secret()
	}

	data, err := r.Fetcher.Fetch(ctx, remote.Request{
		ServerName:   server.Name,
		Host:         server.Address,
		User:         user,
		RemotePath:   remotePath,
		IdentityFile: r.Config.IdentityFile(server),
		Password:     password,
	})
	if err != nil {
		logger.Error().Msgf("Failed to fetch kubeconfig: %v", err)
		return failedOutcome(server.Name, err, r.now())
	}

	expiresAt, err := r.transformAndMerge(server, localPath, data, opts)
	if err != nil {
		logger.Error().Msgf("%v", err)
		return failedOutcome(server.Name, err, r.now())
	}

	logger.Debug().Msg("Kubeconfig updated")
	return fetchedOutcome(server.Name, expiresAt, opts.DryRun, r.now())
}

func (r *Runner) transformAndMerge(server config.ServerSpec, localPath string, data []byte, opts RunOptions) (time.Time, error) {
	logger := log.With().Str("server", server.Name).Logger()
	sourceHash := kubeconfig.SourceHash(data)

	doc, err := kubeconfig.Parse(data)
	if err != nil {
		return time.Time{}, err
	}
	if err := kubeconfig.Rewrite(doc, kubeconfig.RewriteOptions{
		TargetIP:    server.TargetClusterIP,
		SourceHash:  sourceHash,
		ContextName: server.ContextName,
		ServerName:  server.Name,
		Now:         r.now(),
	}); err != nil {
		return time.Time{}, err
	}
	expiresAt, _ := kubeconfig.ActiveCertificateExpiry(doc)

	if previous, drifted := kubeconfig.DetectDrift(localPath, sourceHash); drifted {
		logger.Warn().Msgf("Remote kubeconfig changed since last fetch (sha256 %s -> %s)", shortHash(previous), shortHash(sourceHash))
	}

	output, err := kubeconfig.Marshal(doc)
	if err != nil {
		return time.Time{}, err
	}

	if opts.DryRun {
		logger.Info().Msgf("DRY-RUN: Would write %d bytes to %s", len(output), localPath)
		if _, err := r.Merger.Plan(doc); err != nil {
			return time.Time{}, err
		}
		return expiresAt, nil
	}

	if err := atomicfile.WriteFile(localPath, output, 0600, 0700); err != nil {
		return time.Time{}, fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	logger.Debug().Msgf("Wrote %s", localPath)

	stats, err := r.Merger.Merge(doc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to merge into %s: %w", r.Merger.Path, err)
	}
	logger.Debug().Msgf("Merged %d cluster(s), %d context(s), %d user(s) into %s", stats.Clusters, stats.Contexts, stats.Users, r.Merger.Path)
	return expiresAt, nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
