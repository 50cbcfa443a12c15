package main

import (
	"context"
	"fmt"
	"time"

	"github.com/npezzotti/wakuwork/internal/circle"
	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/spf13/cobra"
)

var purgeHorizon time.Duration

var purgeStampsCmd = &cobra.Command{
	Use:   "purge-stamps",
	Short: "Delete stamp events older than the horizon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := requireString(dsnKey)
		if err != nil {
			return err
		}

		db, err := database.NewPgWakuworkRepository(dsn)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		logger := newLogger()
		svc := circle.NewService(logger, db, stats.NopStats{})
		n, err := svc.PurgeStamps(ctx, time.Now().Add(-purgeHorizon))
		if err != nil {
			return err
		}

		logger.Printf("purged %d stamps", n)
		return nil
	},
}

func init() {
	purgeStampsCmd.Flags().DurationVar(&purgeHorizon, "older-than", circle.StampRetention, "delete stamps older than this")
	rootCmd.AddCommand(purgeStampsCmd)
}
