/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/pkg/config"
	"github.com/kube-config-updater/cli/pkg/kubeconfig"
	"github.com/kube-config-updater/cli/pkg/runstate"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"k8s.io/client-go/tools/clientcmd"
)

// Show the outcome of the last run for every server.
type StatusOpts struct {
	flagFormat string
}

// serverStatus is one row of the status output.
type serverStatus struct {
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Status        string     `json:"status,omitempty"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
	CertExpiresAt *time.Time `json:"certExpiresAt,omitempty"`
	InKubeconfig  bool       `json:"inKubeconfig"`
	Error         string     `json:"error,omitempty"`
}

func init() {
	o := StatusOpts{}

	cmd := &cobra.Command{
		Use:   "status [flags]",
		Short: "Show the result of the last run for every server",
		Run:   runCommand(&o),
		Long: renderLong(&o, `
			Show, for every server in the fleet config, the outcome of the last run, when
			its kubeconfig was last fetched, when the cached client certificate expires and
			whether its context is present in the shared kubeconfig.
		`),
		Example: renderExample(`
			# Show the fleet status as a table.
			kube-config-updater status

			# Show the fleet status as JSON.
			kube-config-updater status --format json
		`),
	}

	rootCmd.AddCommand(cmd)

	flags := cmd.Flags()
	flags.StringVar(&o.flagFormat, "format", "text", "Output format. Valid values are 'text' or 'json'")
}

func (o *StatusOpts) Prepare(cmd *cobra.Command, args []string) error {
	if o.flagFormat != "text" && o.flagFormat != "json" {
		return fmt.Errorf("invalid format %q, must be either 'text' or 'json'", o.flagFormat)
	}
	return nil
}

func (o *StatusOpts) Run(cmd *cobra.Command) error {
	cfg, err := loadFleetConfig()
	if err != nil {
		return err
	}

	states, err := runstate.NewFileStore(runstate.DefaultPath()).Read()
	if err != nil {
		return clierrors.Wrap(err, "Failed to read the run state")
	}

	contexts, err := sharedContextNames(sharedKubeconfigPath())
	if err != nil {
		return clierrors.Wrapf(err, "Failed to read the shared kubeconfig %s", sharedKubeconfigPath())
	}

	rows := collectServerStatus(cfg, states, contexts)

	if o.flagFormat == "json" {
		statusJSON, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		log.Info().Msg(string(statusJSON))
		return nil
	}

	if len(rows) == 0 {
		log.Info().Msgf("No servers configured in %s", configPath())
		return nil
	}

	table := [][]string{}
	for _, row := range rows {
		table = append(table, []string{
			row.Name,
			renderStatusCell(row.Status),
			renderTimeCell(row.LastUpdated, false),
			renderTimeCell(row.CertExpiresAt, true),
			renderBoolCell(row.InKubeconfig),
		})
	}
	log.Info().Msg("")
	log.Info().Msg(renderTable([]string{"SERVER", "STATUS", "LAST UPDATED", "CERT EXPIRES", "IN KUBECONFIG"}, table))

	for _, row := range rows {
		if row.Error != "" {
			log.Info().Msgf("%s %s", styles.RenderError(row.Name+":"), row.Error)
		}
	}
	return nil
}

// sharedContextNames returns the context names of the shared kubeconfig, or
// an empty set when the file does not exist.
func sharedContextNames(path string) (map[string]bool, error) {
	shared, err := clientcmd.LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(shared.Contexts))
	for name := range shared.Contexts {
		names[name] = true
	}
	return names, nil
}

func collectServerStatus(cfg *config.FleetConfig, states map[string]runstate.ServerRunState, contexts map[string]bool) []serverStatus {
	rows := make([]serverStatus, 0, len(cfg.Servers))
	for _, server := range cfg.Servers {
		row := serverStatus{Name: server.Name, Address: server.Address}

		if state, ok := states[server.Name]; ok {
			row.Status = string(state.Status)
			row.LastUpdated = state.LastUpdated
			if state.Error != nil {
				row.Error = *state.Error
			}
		}
		if expiresAt, ok := kubeconfig.CachedExpiry(cfg.LocalPath(server)); ok {
			row.CertExpiresAt = &expiresAt
		}

		contextName := server.ContextName
		if contextName == "" {
			contextName = server.Name
		}
		row.InKubeconfig = contexts[contextName]

		rows = append(rows, row)
	}
	return rows
}

func renderStatusCell(status string) string {
	if status == "" {
		return styles.RenderMuted("never run")
	}
	return styles.RenderRunStatus(status)
}

func renderTimeCell(ts *time.Time, isExpiry bool) string {
	if ts == nil {
		return styles.RenderMuted("-")
	}
	text := humanize.Time(*ts)
	if isExpiry && !ts.After(time.Now()) {
		return styles.RenderError(text)
	}
	return text
}

func renderBoolCell(value bool) string {
	if value {
		return styles.RenderSuccess("yes")
	}
	return styles.RenderMuted("no")
}

// renderTable lays out styled cells in columns padded to the widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for col, header := range headers {
		widths[col] = lipgloss.Width(header)
	}
	for _, row := range rows {
		for col, cell := range row {
			widths[col] = max(widths[col], lipgloss.Width(cell))
		}
	}

	var lines []string
	cells := make([]string, len(headers))
	for col, header := range headers {
		cells[col] = styles.StyleTableHeader.Width(widths[col] + 2).Render(header)
	}
	lines = append(lines, strings.Join(cells, ""))
	for _, row := range rows {
		for col, cell := range row {
			cells[col] = styles.StyleTableCell.Width(widths[col] + 2).Render(cell)
		}
		lines = append(lines, strings.Join(cells, ""))
	}
	return strings.Join(lines, "\n")
}
