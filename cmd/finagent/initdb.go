package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inverlab/finagent/retrieval"
	"github.com/inverlab/finagent/session"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the SQLite database and schemas",
	Long: `init-db creates the session history and document index tables in the
configured database file. Running it against an existing database is safe;
existing tables are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := session.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return fmt.Errorf("session schema: %w", err)
		}
		defer store.Close()

		backend, err := retrieval.NewSQLiteBackend(cfg.Storage.DatabasePath)
		if err != nil {
			return fmt.Errorf("document schema: %w", err)
		}
		defer backend.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", cfg.Storage.DatabasePath)
		return nil
	},
}
