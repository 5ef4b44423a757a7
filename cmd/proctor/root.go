package main

import (
	"fmt"
	"os"

	"proctorfeed/internal/config"
	"proctorfeed/internal/logger"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "proctor",
	Short: "Stream a webcam to the proctoring server and follow its alerts",
	Long: `proctor captures frames from a local camera, streams them to the
proctoring server over a websocket and keeps a local dashboard of the
server's verdicts, cheating notifications and snapshot timeline.

Quick Start:
  proctor run --device 0        # stream camera 0, dashboard on :8080
  proctor history               # list flagged snapshots
  proctor delete <id>           # delete a flagged snapshot
  proctor devices               # list cameras`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Proctoring server URL (overrides SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warning or error (overrides LOG_LEVEL)")
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// quietLogger is used by one-shot commands that print their own output.
func quietLogger() *logger.Logger {
	return logger.NewDiscard()
}
