package main

import (
	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := requireString(dsnKey)
		if err != nil {
			return err
		}

		if err := database.Migrate(dsn); err != nil {
			return err
		}
		newLogger().Println("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := requireString(dsnKey)
		if err != nil {
			return err
		}

		if err := database.MigrateDown(dsn); err != nil {
			return err
		}
		newLogger().Println("migrations rolled back")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
