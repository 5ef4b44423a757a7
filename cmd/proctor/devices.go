package main

import (
	"fmt"

	"proctorfeed/internal/service/camera"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List cameras that can be opened",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		found := camera.NewOpener(cfg.FrameWidth, cfg.FrameHeight, quietLogger()).Probe()
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cameras found")
			return nil
		}
		for _, id := range found {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
