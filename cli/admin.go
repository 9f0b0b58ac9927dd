package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/services"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func newAdminService() (services.AdminService, func(), error) {
	conn, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	admin := services.NewAdminService(
		repositories.NewPostgresWorldcupRepository(conn),
		repositories.NewPostgresCandidateRepository(conn),
		repositories.NewPostgresMatchResultRepository(conn),
		logger,
	)
	return admin, func() { conn.Close() }, nil
}

func newResetStatsCmd() *cobra.Command {
	var (
		worldcupID int
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset-stats",
		Short: "Zero every counter of a worldcup's candidates",
		Long: `Reset show, win, victory and run counters (including demographic
buckets) of every candidate in a worldcup. Candidates and images stay.

Example:
  worldcupctl reset-stats --worldcup 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if worldcupID <= 0 {
				return fmt.Errorf("invalid worldcup id: %d", worldcupID)
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Reset all stats of worldcup %d", worldcupID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			admin, closeFn, err := newAdminService()
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := admin.ResetStats(context.Background(), worldcupID)
			if err != nil {
				if errors.Is(err, services.ErrWorldcupNotFound) {
					return fmt.Errorf("worldcup not found: %d", worldcupID)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset stats of %d candidates.\n", n)
			return nil
		},
	}

	cmd.Flags().IntVarP(&worldcupID, "worldcup", "w", 0, "worldcup id (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	cmd.MarkFlagRequired("worldcup")
	return cmd
}

func newPurgeTokensCmd() *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge-tokens",
		Short: "Forget match idempotency tokens older than the retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, closeFn, err := newAdminService()
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := admin.PurgeMatchTokens(context.Background(), retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d tokens.\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 7*24*time.Hour, "keep tokens younger than this")
	return cmd
}

func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			os.Exit(0)
		}
		return false, err
	}
	return true, nil
}
