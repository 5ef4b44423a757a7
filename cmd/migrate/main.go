package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"proctorfeed/internal/config"
	"proctorfeed/internal/repository/sqlite"
	"proctorfeed/internal/service/cache"

	"github.com/spf13/cobra"
)

var (
	dbPath    string
	namespace string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <export.json>",
	Short: "Import a browser session-storage export into the local cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		st, err := parseLegacy(f, time.Local)
		if err != nil {
			return err
		}
		if len(st.Notifications) == 0 && len(st.Points) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate")
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		c := cache.New(namespace,
			sqlite.NewNotificationRepository(db),
			sqlite.NewTimelineRepository(db),
			sqlite.NewSeenRepository(db),
			sqlite.NewStateRepository(db))
		if err := c.Replace(st); err != nil {
			return fmt.Errorf("failed to write cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Migrated %d notifications, %d timeline points into %s (namespace %q)\n",
			len(st.Notifications), len(st.Points), dbPath, namespace)
		return nil
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	migrateCmd.Flags().StringVar(&dbPath, "db", cfg.CacheDatabase, "Cache database path")
	migrateCmd.Flags().StringVar(&namespace, "namespace", cfg.CacheNamespace, "Cache namespace")

	if err := migrateCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
