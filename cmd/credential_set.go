/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/internal/tui"
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type SetCredentialOpts struct {
	UsePositionalArgs

	argServer         string
	flagDefault       bool
	flagYes           bool
	flagPasswordStdin bool
}

func init() {
	o := SetCredentialOpts{}

	args := o.Arguments()
	args.AddStringArgumentOpt(&o.argServer, "SERVER", "Name of the server the password is for, eg, 'edge-1'.")

	cmd := &cobra.Command{
		Use:   "set [SERVER] [flags]",
		Short: "Store the SSH password of a server",
		Run:   runCommand(&o),
		Long: renderLong(&o, `
			Store the SSH password used to log in to a server and to read its kubeconfig
			with sudo. With --default, the password is used for every server that has no
			password of its own.

			Passwords are stored in the OS keyring. When no keyring is reachable (eg, on
			a headless machine without a Secret Service daemon) the password can be stored
			in a file readable only by you, after you confirm it.

			{Arguments}

			Related commands:
			- 'kube-config-updater credential check' to see which servers have a password.
			- 'kube-config-updater credential delete SERVER' to remove a password.
		`),
		Example: renderExample(`
			# Store the password of the server 'edge-1'.
			kube-config-updater credential set edge-1

			# Store the password used by all servers without their own.
			kube-config-updater credential set --default

			# Store a password from a script, allowing the file store.
			echo "$PASSWORD" | kube-config-updater credential set edge-1 --password-stdin --yes
		`),
	}

	credentialCmd.AddCommand(cmd)

	flags := cmd.Flags()
	flags.BoolVar(&o.flagDefault, "default", false, "Store the default password used by servers without their own")
	flags.BoolVarP(&o.flagYes, "yes", "y", false, "Allow storing the password in a file when no keyring is available")
	flags.BoolVar(&o.flagPasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")
}

func (o *SetCredentialOpts) Prepare(cmd *cobra.Command, args []string) error {
	if o.flagDefault && o.argServer != "" {
		return clierrors.NewUsageError("Specify either SERVER or --default, not both")
	}
	if !o.flagDefault && o.argServer == "" {
		return clierrors.NewUsageError("Missing SERVER argument").
			WithSuggestion("Use --default to set the password shared by all servers.")
	}
	if !o.flagPasswordStdin && !tui.IsInteractiveMode() {
		return clierrors.NewUsageError("Cannot prompt for the password in a non-interactive session").
			WithSuggestion("Pipe the password in and use --password-stdin.")
	}
	return nil
}

func (o *SetCredentialOpts) Run(cmd *cobra.Command) error {
	account := credentialAccount(o.argServer, o.flagDefault)

	password, err := o.readPassword(cmd, account)
	if err != nil {
		return err
	}
	if password == "" {
		return clierrors.New("The password is empty, nothing was stored")
	}

	store := credentials.NewDefaultStore()
	consent := func(location string) (bool, error) {
		return tui.ConfirmFileCredentialStore(cmd.Context(), location, o.flagYes)
	}
	location, err := store.Set(account, password, consent)
	if errors.Is(err, credentials.ErrConsentDeclined) {
		return clierrors.Wrap(err, "The password was not stored")
	}
	if err != nil {
		return clierrors.Wrap(err, "Failed to store the password")
	}

	log.Info().Msgf(styles.RenderSuccess("✅ Password for %s stored in %s"), describeAccount(account), location)
	return nil
}

func (o *SetCredentialOpts) readPassword(cmd *cobra.Command, account string) (string, error) {
	if o.flagPasswordStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", clierrors.Wrap(err, "Failed to read the password from stdin")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	password, err := tui.ReadPassword(cmd.Context(), fmt.Sprintf("SSH password for %s:", describeAccount(account)))
	if errors.Is(err, tui.ErrInputCancelled) {
		return "", clierrors.New("Cancelled, nothing was stored")
	}
	return password, err
}

func describeAccount(account string) string {
	if account == credentials.DefaultAccount {
		return "all servers (default)"
	}
	return fmt.Sprintf("server '%s'", account)
}
