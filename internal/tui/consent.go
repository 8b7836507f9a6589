/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"context"
	"fmt"

	"github.com/kube-config-updater/cli/pkg/styles"
)

// ConfirmFileCredentialStore asks whether credentials may be stored in a
// plain file because no OS keyring is reachable. Non-interactive sessions
// only proceed when assumeYes is set.
func ConfirmFileCredentialStore(ctx context.Context, location string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !isInteractiveMode {
		return false, fmt.Errorf("no OS keyring is available; rerun with --yes to store the credential in %s", location)
	}

	body := fmt.Sprintf(
		"No OS keyring (Secret Service) is reachable on this machine.\n"+
			"The credential can be stored in %s instead.\n"+
			"The file is readable only by you (mode 0600), the same protection ~/.kube/config gets.",
		styles.RenderTechnical(location))
	return DoConfirmDialog(ctx, "Keyring Unavailable", body, "Store the credential in this file?", false)
}
