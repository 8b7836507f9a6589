/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/internal/tui"
	"github.com/kube-config-updater/cli/pkg/config"
	"github.com/kube-config-updater/cli/pkg/fleet"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Read the certificate expiry of a server's remote kubeconfig.
type ProbeOpts struct {
	UsePositionalArgs

	argServer string
}

func init() {
	o := ProbeOpts{}

	args := o.Arguments()
	args.AddStringArgumentOpt(&o.argServer, "SERVER", "Name of the server in the fleet config, eg, 'edge-1'.")

	cmd := &cobra.Command{
		Use:   "probe [SERVER] [flags]",
		Short: "Show the certificate expiry of a server's remote kubeconfig",
		Run:   runCommand(&o),
		Long: renderLong(&o, `
			Fetch the kubeconfig of a server and report when its client certificate
			expires, without writing any file.

			The remote file is also compared with the local cache: if the server has
			rotated its certificates since the last fetch, the next 'run --force'
			picks up the new file.

			When SERVER is omitted, the server is selected interactively.

			{Arguments}
		`),
		Example: renderExample(`
			# Check the certificate of the server 'edge-1'.
			kube-config-updater probe edge-1
		`),
	}

	rootCmd.AddCommand(cmd)
}

func (o *ProbeOpts) Prepare(cmd *cobra.Command, args []string) error {
	if o.argServer == "" && !tui.IsInteractiveMode() {
		return clierrors.NewUsageError("Missing SERVER argument").
			WithSuggestion("A server name is required in non-interactive mode, eg, 'kube-config-updater probe edge-1'.")
	}
	return nil
}

func (o *ProbeOpts) Run(cmd *cobra.Command) error {
	cfg, err := loadFleetConfig()
	if err != nil {
		return err
	}

	server, err := o.resolveServer(cfg)
	if err != nil {
		return err
	}

	runner := newRunner(cfg, nil)
	log.Info().Msgf("Probing %s (%s)...", styles.RenderTechnical(server.Name), server.Address)
	result, err := runner.Probe(cmd.Context(), server)
	if errors.Is(err, fleet.ErrCredentialUnavailable) {
		return clierrors.CredentialUnavailable(err)
	}
	if err != nil {
		return clierrors.Wrapf(err, "Failed to probe %s", server.Name)
	}

	log.Info().Msg("")
	if result.HasExpiry() {
		expiry := result.ExpiresAt.Local().Format(time.RFC1123)
		if result.ExpiresAt.After(time.Now()) {
			log.Info().Msgf("Certificate expires:  %s (%s)", expiry, humanize.Time(result.ExpiresAt))
		} else {
			log.Info().Msgf("Certificate expired:  %s", styles.RenderError(expiry+" ("+humanize.Time(result.ExpiresAt)+")"))
		}
	} else {
		log.Info().Msgf("Certificate expires:  %s", styles.RenderWarning("unknown"))
	}
	log.Info().Msgf("Remote source hash:   %s", styles.RenderTechnical(result.SourceHash))

	switch {
	case result.CachedHash == "":
		log.Info().Msgf("Local cache:          %s", styles.RenderMuted("not fetched yet"))
	case result.Changed():
		log.Info().Msgf("Local cache:          %s", styles.RenderAttention("outdated, the remote file has changed"))
	default:
		log.Info().Msgf("Local cache:          %s", styles.RenderSuccess("up to date"))
	}
	return nil
}

func (o *ProbeOpts) resolveServer(cfg *config.FleetConfig) (config.ServerSpec, error) {
	if o.argServer == "" {
		return tui.ChooseServer(cfg.Servers)
	}
	server, ok := cfg.Server(o.argServer)
	if !ok {
		return config.ServerSpec{}, clierrors.NewUsageErrorf("Server '%s' is not in the fleet config", o.argServer).
			WithDetails(cfg.ServerNames()...)
	}
	return server, nil
}
