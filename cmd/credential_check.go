/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type CheckCredentialOpts struct{}

func init() {
	o := CheckCredentialOpts{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show which servers have a password available",
		Run:   runCommand(&o),
		Long: renderLong(&o, `
			Resolve the password of every server in the fleet config the same way 'run'
			does: the server's own password first, then the default password. Passwords
			are never printed.
		`),
	}

	credentialCmd.AddCommand(cmd)
}

func (o *CheckCredentialOpts) Prepare(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *CheckCredentialOpts) Run(cmd *cobra.Command) error {
	cfg, err := loadFleetConfig()
	if err != nil {
		return err
	}

	entries := credentials.NewDefaultStore().Check(cfg.ServerNames())

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Name, renderCredentialResult(entry.Result)})
	}
	log.Info().Msg("")
	log.Info().Msg(renderTable([]string{"SERVER", "PASSWORD"}, rows))
	return nil
}

func renderCredentialResult(result credentials.Result) string {
	switch result.Kind() {
	case credentials.ResultFound:
		return styles.RenderSuccess("available")
	case credentials.ResultNotFound:
		return styles.RenderMuted("none (key or agent auth)")
	default:
		return styles.RenderWarning("store unavailable: " + result.Reason())
	}
}
