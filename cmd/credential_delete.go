/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type DeleteCredentialOpts struct {
	UsePositionalArgs

	argServer   string
	flagDefault bool
}

func init() {
	o := DeleteCredentialOpts{}

	args := o.Arguments()
	args.AddStringArgumentOpt(&o.argServer, "SERVER", "Name of the server whose password to delete, eg, 'edge-1'.")

	cmd := &cobra.Command{
		Use:   "delete [SERVER] [flags]",
		Short: "Delete the stored SSH password of a server",
		Run:   runCommand(&o),
		Long: renderLong(&o, `
			Delete the stored password of a server from both the OS keyring and the
			file store. Deleting a password that does not exist is not an error.

			{Arguments}
		`),
		Example: renderExample(`
			# Delete the password of the server 'edge-1'.
			kube-config-updater credential delete edge-1

			# Delete the default password.
			kube-config-updater credential delete --default
		`),
	}

	credentialCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&o.flagDefault, "default", false, "Delete the default password instead of a server's")
}

func (o *DeleteCredentialOpts) Prepare(cmd *cobra.Command, args []string) error {
	if o.flagDefault == (o.argServer != "") {
		return clierrors.NewUsageError("Specify exactly one of SERVER or --default")
	}
	return nil
}

func (o *DeleteCredentialOpts) Run(cmd *cobra.Command) error {
	account := credentialAccount(o.argServer, o.flagDefault)
	if err := credentials.NewDefaultStore().Delete(account); err != nil {
		return clierrors.Wrap(err, "Failed to delete the password")
	}
	log.Info().Msgf("Password for %s deleted", describeAccount(account))
	return nil
}
