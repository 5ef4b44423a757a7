package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proctorfeed/internal/app"
	"proctorfeed/internal/logger"

	"github.com/spf13/cobra"
)

var (
	runDevice string
	runStatic string
	runPort   int
	runQuiet  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent and the local dashboard",
	Long: `Run connects to the proctoring server, serves the dashboard on
localhost and, with --device, starts streaming immediately. Capture can
also be started and stopped from the dashboard. Stops on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runPort > 0 {
			cfg.DashboardPort = runPort
		}

		log := logger.NewLogger(cfg)
		defer log.Close()

		application, err := app.NewApp(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := app.Options{Device: runDevice, StaticDir: runStatic}
		if !runQuiet {
			opts.StatusInterval = time.Second
		}
		return application.Run(ctx, opts)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runDevice, "device", "d", "", "Camera index or stream URL to start capturing right away")
	runCmd.Flags().StringVar(&runStatic, "static", "static", "Directory with dashboard pages")
	runCmd.Flags().IntVarP(&runPort, "port", "p", 0, "Dashboard port (overrides PORT)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print the status line")
	rootCmd.AddCommand(runCmd)
}
