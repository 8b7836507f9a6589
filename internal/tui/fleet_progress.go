/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kube-config-updater/cli/pkg/fleet"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServerStatus is the progress state of one server in the view.
type ServerStatus int

const (
	ServerPending ServerStatus = iota
	ServerRunning
	ServerFetched
	ServerSkipped
	ServerFailed
)

// Spinner frames for the running state
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type serverRow struct {
	name      string
	status    ServerStatus
	detail    string
	startTime time.Time
	elapsed   time.Duration
}

// FleetProgress shows one line per server while a fleet run executes. It
// implements fleet.Observer.
type FleetProgress struct {
	mu         sync.Mutex
	rows       []*serverRow
	byName     map[string]*serverRow
	frameIndex int
	program    *tea.Program
}

// tickMsg is sent when the spinner should advance one frame
type tickMsg struct{}

// doneMsg is sent when the run has completed
type doneMsg struct{}

func NewFleetProgress(serverNames []string) *FleetProgress {
	p := &FleetProgress{byName: make(map[string]*serverRow, len(serverNames))}
	for _, name := range serverNames {
		row := &serverRow{name: name, status: ServerPending}
		p.rows = append(p.rows, row)
		p.byName[name] = row
	}
	return p
}

func (p *FleetProgress) ServerStarted(server string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if row, ok := p.byName[server]; ok {
		row.status = ServerRunning
		row.startTime = time.Now()
	}
}

func (p *FleetProgress) ServerFinished(outcome fleet.Outcome) {
	p.mu.Lock()
	row, ok := p.byName[outcome.Server]
	if ok {
		row.elapsed = time.Since(row.startTime)
		row.status, row.detail = describeOutcome(outcome)
	}
	p.mu.Unlock()

	if !ok || isInteractiveMode {
		return
	}
	// Unattended runs stay quiet when a server had nothing to do.
	if outcome.Kind == fleet.OutcomeSkipped && outcome.SkipReason == fleet.SkipCertStillValid {
		log.Debug().Msg(p.renderRow(row, ""))
	} else {
		log.Info().Msg(p.renderRow(row, ""))
	}
}

func describeOutcome(outcome fleet.Outcome) (ServerStatus, string) {
	switch outcome.Kind {
	case fleet.OutcomeFetched:
		detail := "updated"
		if outcome.DryRun {
			detail = "would update (dry-run)"
		}
		if !outcome.ExpiresAt.IsZero() {
			detail += fmt.Sprintf(", certificate valid until %s", outcome.ExpiresAt.Format("2006-01-02"))
		}
		return ServerFetched, detail
	case fleet.OutcomeSkipped:
		if outcome.SkipReason == fleet.SkipKeyringUnavailable {
			return ServerSkipped, "skipped, no credential store available"
		}
		return ServerSkipped, fmt.Sprintf("skipped, certificate valid until %s", outcome.ExpiresAt.Format("2006-01-02"))
	default:
		return ServerFailed, outcome.String()
	}
}

// Run executes work while rendering progress. In interactive mode logging
// is silenced for the duration so it does not tear the view; the final frame
// stays on screen.
func (p *FleetProgress) Run(work func()) error {
	if !isInteractiveMode {
		work()
		return nil
	}

	saved := log.Logger
	log.Logger = saved.Level(zerolog.Disabled)
	defer func() { log.Logger = saved }()

	p.program = tea.NewProgram(progressModel{progress: p})
	done := make(chan struct{})
	go func() {
		defer close(done)
		work()
		p.program.Send(doneMsg{})
	}()

	_, err := p.program.Run()
	<-done
	if err != nil {
		return fmt.Errorf("failed to render progress: %w", err)
	}
	return nil
}

func rowStyle(status ServerStatus) lipgloss.Style {
	switch status {
	case ServerRunning:
		return lipgloss.NewStyle().Foreground(styles.ColorBlue)
	case ServerFetched:
		return lipgloss.NewStyle().Foreground(styles.ColorGreen)
	case ServerSkipped:
		return lipgloss.NewStyle().Foreground(styles.ColorNeutral)
	case ServerFailed:
		return lipgloss.NewStyle().Foreground(styles.ColorRed)
	default:
		return lipgloss.NewStyle().Foreground(styles.ColorNeutral)
	}
}

func statusSymbol(status ServerStatus, spinnerFrame string) string {
	switch status {
	case ServerPending:
		return "○"
	case ServerRunning:
		return spinnerFrame
	case ServerFetched:
		return "✓"
	case ServerSkipped:
		return "–"
	case ServerFailed:
		return "✗"
	default:
		return "?"
	}
}

// renderRow must be called with the row's fields stable (under p.mu or after the run).
func (p *FleetProgress) renderRow(row *serverRow, spinnerFrame string) string {
	symbol := rowStyle(row.status).Render(statusSymbol(row.status, spinnerFrame))
	line := fmt.Sprintf(" %s %s", symbol, row.name)
	switch row.status {
	case ServerRunning:
		line += " " + humanizeElapsed(time.Since(row.startTime))
	case ServerFetched, ServerSkipped:
		line += " " + styles.RenderMuted(row.detail) + " " + humanizeElapsed(row.elapsed)
	case ServerFailed:
		line += " " + styles.RenderError(row.detail) + " " + humanizeElapsed(row.elapsed)
	}
	return line
}

// humanizeElapsed formats a duration as seconds with one decimal place
func humanizeElapsed(d time.Duration) string {
	return styles.RenderMuted(fmt.Sprintf("[%.1fs]", d.Seconds()))
}

func (p *FleetProgress) view() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	finished := 0
	for _, row := range p.rows {
		if row.status >= ServerFetched {
			finished++
		}
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(styles.RenderTitle(fmt.Sprintf("Updating kubeconfigs (%d/%d)", finished, len(p.rows))))
	sb.WriteString("\n\n")
	frame := spinnerFrames[p.frameIndex]
	for _, row := range p.rows {
		sb.WriteString(p.renderRow(row, frame))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (p *FleetProgress) advanceSpinner() {
	p.mu.Lock()
	p.frameIndex = (p.frameIndex + 1) % len(spinnerFrames)
	p.mu.Unlock()
}

// progressModel adapts FleetProgress to tea.Model.
type progressModel struct {
	progress *FleetProgress
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m progressModel) Init() tea.Cmd {
	return tick()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Jobs keep running until their SSH timeouts; only the view stops.
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tickMsg:
		m.progress.advanceSpinner()
		return m, tick()
	case doneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	return m.progress.view()
}
