package main

import (
	"encoding/json"
	"fmt"

	"proctorfeed/internal/render"
	"proctorfeed/internal/service/history"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the flagged snapshots stored on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		alerts, err := history.NewClient(cfg, nil).List(cmd.Context())
		if err != nil {
			return err
		}

		if historyJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(alerts)
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.History(alerts))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a flagged snapshot on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := history.NewClient(cfg, nil).Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(deleteCmd)
}
