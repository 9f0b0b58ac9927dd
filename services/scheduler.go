package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	purgeInterval = time.Hour
	purgeTimeout  = 5 * time.Minute
)

// MaintenanceScheduler runs periodic housekeeping jobs.
type MaintenanceScheduler struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

func StartMaintenanceScheduler(admin AdminService, retention time.Duration, logger *slog.Logger) (*MaintenanceScheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(purgeInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
			defer cancel()
			if _, err := admin.PurgeMatchTokens(ctx, retention); err != nil {
				logger.Error("[Scheduler] failed to purge match tokens", slog.Any("error", err))
			}
		}),
		gocron.WithName("purge-match-tokens"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule purge job: %w", err)
	}

	sched.Start()
	return &MaintenanceScheduler{sched: sched, logger: logger}, nil
}

func (m *MaintenanceScheduler) Shutdown() {
	if err := m.sched.Shutdown(); err != nil {
		m.logger.Error("scheduler shutdown failed", slog.Any("error", err))
	}
}
