/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/kube-config-updater/cli/pkg/config"
)

// ChooseServer lets the user pick one of the configured servers.
func ChooseServer(servers []config.ServerSpec) (config.ServerSpec, error) {
	if len(servers) == 0 {
		return config.ServerSpec{}, fmt.Errorf("no servers configured")
	}
	if !isInteractiveMode {
		return config.ServerSpec{}, fmt.Errorf("a server name is required in non-interactive mode")
	}

	items := make([]list.Item, len(servers))
	for ndx, server := range servers {
		items[ndx] = compactListItem{
			index:       ndx,
			name:        server.Name,
			description: fmt.Sprintf("[%s]", server.Address),
		}
	}

	selected, err := chooseFromList("Select server:", items)
	if err != nil {
		return config.ServerSpec{}, err
	}
	return servers[selected], nil
}
