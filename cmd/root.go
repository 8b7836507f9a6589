/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Name of the log file written into --log-dir.
const logFileName = "kube-config-updater.log"

// Value of the --config (or -c).
var flagConfigPath string

// Value of the --kubeconfig.
var flagKubeconfigPath string

// Value of the --log-dir.
var flagLogDir string

// Open log file when --log-dir is used, closed on exit.
var logFile *os.File

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kube-config-updater",
	Short: "Keep ~/.kube/config in sync with the kubeconfigs of a fleet of k3s servers",
	Long: `Fetches the kubeconfig of every server listed in the fleet config over SSH,
rewrites it so that clusters from different servers can coexist, and merges the
result into your local kubeconfig. Servers whose cached client certificate is still
valid are skipped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize zerolog
		isVerbose, _ := cmd.Flags().GetBool("verbose")
		if err := initLogger(isVerbose, flagLogDir); err != nil {
			return err
		}

		// Prompts and progress views need a terminal on both ends.
		tui.SetInteractiveMode(flagLogDir == "" && tui.DetectInteractiveMode())
		return nil
	},
}

// ExecuteContext runs the root command with ctx and exits with a non-zero code
// on failure. This is called by main.main().
func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		renderError(err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		os.Exit(clierrors.GetExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "Path to the fleet config file (default ~/.kube_config_updater/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagKubeconfigPath, "kubeconfig", "", "Path to the shared kubeconfig to merge into (default ~/.kube/config)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Write JSON logs to kube-config-updater.log in this directory instead of the console")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.WrapUsageError(err, err.Error())
	})
	initColoredHelpTemplates(rootCmd)
}

// renderError prints err to stderr.
func renderError(err error) {
	// The console loggers write to stdout; only the log file needs a copy.
	if logFile != nil {
		log.Error().Err(err).Msg("Command failed")
	}

	clierrors.Render(os.Stderr, err)
	if clierrors.IsUsageError(err) {
		fmt.Fprintf(os.Stderr, "\nRun '%s --help' for usage.\n", rootCmd.Name())
	}
}

// Customer version of zerolog's ConsoleWriter that writes out the full
// line with a color dependent on the log level. Intended for the default
// CLI non-decorated output mode.
type coloredLineConsoleWriter struct {
	Out       *os.File
	UseColors bool
}

func (w *coloredLineConsoleWriter) Write(p []byte) (n int, err error) {
	var event map[string]interface{}
	if err := json.Unmarshal(p, &event); err != nil {
		return 0, err
	}

	// Extract fields
	level, _ := event["level"].(string)
	message, _ := event["message"].(string)
	server, _ := event["server"].(string)

	// Determine color based on level
	var color string
	switch level {
	case "trace":
		color = "\033[95m" // Bright Magenta
	case "debug":
		color = "\033[94m" // Bright Blue
	case "info":
		color = "" // Default color
	case "warn":
		color = "\033[93m" // Bright Yellow
	case "error":
		color = "\033[91m" // Bright Red
	case "fatal":
		color = "\033[35m" // Magenta
	case "panic":
		color = "\033[31;1m" // Bold Red
	default:
		color = "\033[37m" // Bright White (default)
	}

	// Build the line
	var buf bytes.Buffer
	if w.UseColors {
		buf.WriteString(color)
	}
	if server != "" {
		buf.WriteString("[" + server + "] ")
	}
	buf.WriteString(message)
	if w.UseColors {
		buf.WriteString("\033[0m") // Reset color
	}
	buf.WriteString("\n")

	// Write to the output
	if _, err := w.Out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Initialize zerolog:
// With a log directory, everything at debug level goes to a JSON file there.
// In verbose mode, the output includes timestamps and log levels. Colors are
// always enabled.
// In non-verbose mode, the output is plain-text only, so its compatible with
// piping to `jq` and other tools. Colors are auto-detected based on the TTY used.
func initLogger(isVerbose bool, logDir string) error {
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
		file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = file

		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = zerolog.New(file).With().Timestamp().Logger()
		return nil
	}

	if isVerbose {
		// Verbose logging: Debug level with timestamps and log level included
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zerolog.TimeFieldFormat = "2006-01-02 15:04:05.000"
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05.000",
		}).With().
			Timestamp().
			Logger()
	} else {
		// Determine if colors can be used
		useColors := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

		// Custom console writer with colored lines
		writer := &coloredLineConsoleWriter{
			Out:       os.Stdout,
			UseColors: useColors,
		}

		// Non-verbose logging: Info level with no decorations
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(writer).With().Logger()
	}
	return nil
}
