/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/spf13/cobra"
)

// credential is a group of commands to manage the SSH passwords of servers.
var credentialCmd = &cobra.Command{
	Use:     "credential",
	Aliases: []string{"credentials"},
	Short:   "Manage the SSH passwords used to reach servers",
}

func init() {
	rootCmd.AddCommand(credentialCmd)
}

// credentialAccount returns the keyring account for a server argument, or
// the shared default account when useDefault is set.
func credentialAccount(server string, useDefault bool) string {
	if useDefault {
		return credentials.DefaultAccount
	}
	return server
}
