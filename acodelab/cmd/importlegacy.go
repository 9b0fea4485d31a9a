package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acodelab/backend/acodelab/migration"
)

var (
	importBatchSize int
	importDryRun    bool
	importMongoURI  string
	importMongoDB   string
)

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy",
	Short: "Import gamification data from the legacy MongoDB",
	Long: `Copies users, points history, streaks, achievements, badges and
referrals out of the legacy MongoDB. Safe to re-run: rows that already
exist are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Hour)
		defer cancel()
		if err := setup(ctx); err != nil {
			return err
		}
		defer teardown(ctx)

		uri := importMongoURI
		if uri == "" {
			uri = app.Cfg.Mongo.URI
		}
		dbName := importMongoDB
		if dbName == "" {
			dbName = app.Cfg.Mongo.Database
		}
		if uri == "" || dbName == "" {
			return fmt.Errorf("legacy mongo uri and database are required, via flags or the [mongo] config section")
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return fmt.Errorf("connecting to legacy mongo: %w", err)
		}
		defer client.Disconnect(ctx)

		migrator := migration.NewMigrator(app.DB.BunDB(), client, dbName)
		migrator.SetBatchSize(importBatchSize)
		migrator.SetDryRun(importDryRun)

		if err := migrator.MigrateAll(ctx); err != nil {
			return err
		}

		stats := migrator.Stats()
		for name, ts := range stats.Tables {
			fmt.Printf("%-18s read=%d inserted=%d skipped=%d failed=%d\n",
				name, ts.Read, ts.Inserted, ts.Skipped, ts.Failed)
		}
		return nil
	},
}

func init() {
	importLegacyCmd.Flags().IntVar(&importBatchSize, "batch-size", 1000, "insert batch size")
	importLegacyCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "read and convert without writing")
	importLegacyCmd.Flags().StringVar(&importMongoURI, "mongo-uri", "", "legacy mongo connection string")
	importLegacyCmd.Flags().StringVar(&importMongoDB, "mongo-db", "", "legacy mongo database name")
	rootCmd.AddCommand(importLegacyCmd)
}
