/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"fmt"

	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/internal/tui"
	"github.com/kube-config-updater/cli/pkg/fleet"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Fetch, rewrite and merge the kubeconfigs of the fleet.
type RunOpts struct {
	flagServers []string
	flagDryRun  bool
	flagForce   bool
	flagWorkers int
}

func init() {
	o := RunOpts{}

	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Update the local kubeconfig from every server in the fleet",
		Run:   runCommand(&o),
		Long: renderLong(&o, `
			Fetch the kubeconfig of each server over SSH, rewrite it so the cluster,
			context and user are named after the server, and merge it into the shared
			kubeconfig.

			Servers whose cached client certificate has not expired are skipped unless
			--force is given. Servers whose credential store is unreachable are skipped
			too. A failing server never stops the others; the outcome of every server is
			written to the run state file and shown by 'kube-config-updater status'.

			When every server is skipped because its certificate is still valid, nothing
			is printed, so the command can run from cron.
		`),
		Example: renderExample(`
			# Update all servers whose certificates have expired.
			kube-config-updater run

			# Refetch two servers regardless of certificate expiry.
			kube-config-updater run --servers edge-1,edge-2 --force

			# Show what would change without writing anything.
			kube-config-updater run --dry-run --verbose
		`),
	}

	rootCmd.AddCommand(cmd)

	flags := cmd.Flags()
	flags.StringSliceVar(&o.flagServers, "servers", nil, "Only update these servers (comma-separated names)")
	flags.BoolVar(&o.flagDryRun, "dry-run", false, "Log every write instead of performing it")
	flags.BoolVar(&o.flagForce, "force", false, "Fetch even when the cached certificate is still valid")
	flags.IntVar(&o.flagWorkers, "workers", 0, "Number of servers processed in parallel (default: number of CPUs)")
}

func (o *RunOpts) Prepare(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments %v, use --servers to select servers", args)
	}
	if o.flagWorkers < 0 {
		return fmt.Errorf("--workers must be positive, got %d", o.flagWorkers)
	}
	return nil
}

func (o *RunOpts) Run(cmd *cobra.Command) error {
	cfg, err := loadFleetConfig()
	if err != nil {
		return err
	}

	servers := cfg.FilterServers(o.flagServers)
	if len(servers) == 0 {
		if len(o.flagServers) > 0 {
			return clierrors.Newf("None of the servers %v are in the fleet config", o.flagServers).
				WithSuggestion("Run 'kube-config-updater status' to list the configured servers.")
		}
		log.Info().Msgf("No servers configured in %s", configPath())
		return nil
	}

	names := make([]string, len(servers))
	for ndx, server := range servers {
		names[ndx] = server.Name
	}

	progress := tui.NewFleetProgress(names)
	runner := newRunner(cfg, progress)
	runner.Workers = o.flagWorkers

	opts := fleet.RunOptions{Force: o.flagForce, DryRun: o.flagDryRun}
	var summary fleet.Summary
	err = progress.Run(func() {
		summary = runner.RunAll(cmd.Context(), servers, opts)
	})
	if err != nil {
		return err
	}

	// Logging was muted while the progress view was shown.
	if tui.IsInteractiveMode() {
		if summary.StateErr != nil {
			log.Error().Msgf("Failed to save run state: %v", summary.StateErr)
		}
		if summary.Notable() {
			log.Info().Msg("")
			log.Info().Msgf("Run complete: %s", summary)
		}
	}

	if summary.Fetched > 0 && !o.flagDryRun {
		log.Info().Msgf(styles.RenderSuccess("✅ Merged %d kubeconfig(s) into %s"), summary.Fetched, sharedKubeconfigPath())
	}
	if summary.SkippedNoCredential > 0 {
		log.Info().Msgf("%d server(s) were skipped because no credential store was reachable; see 'kube-config-updater credential set --help'", summary.SkippedNoCredential)
	}
	return nil
}
