package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var dbTimeout time.Duration

func init() {
	dbHealthCmd.Flags().DurationVar(&dbTimeout, "timeout", 2*time.Second, "ping timeout")
	dbCmd.AddCommand(dbHealthCmd)
	dbCmd.AddCommand(dbResetCmd)
	rootCmd.AddCommand(dbCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Ping the configured database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.db.HealthCheck(cmd.Context(), dbTimeout, e.logger); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		docs, err := e.store.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s, %d documents)\n", e.db.Driver, len(docs))
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored document and candidate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.DeleteAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "all documents removed")
		return nil
	},
}
