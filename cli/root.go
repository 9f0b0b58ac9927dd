// Package cli implements worldcupctl, the maintenance command line.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/Dosada05/worldcup/db"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var databaseURL string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worldcupctl",
		Short: "Maintenance tool for the worldcup service",
		Long: `worldcupctl runs one-off maintenance against the worldcup database:
schema migration, stats reset, token purge and bracket size lookup.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newResetStatsCmd())
	cmd.AddCommand(newPurgeTokensCmd())
	cmd.AddCommand(newRoundsCmd())
	return cmd
}

func Execute() error {
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func openDB() (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is not set (use --database-url or DATABASE_URL)")
	}
	conn, err := db.Connect(databaseURL, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := db.CreateSchema(ctx, conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}
