// Package events publishes domain events about finished bracket runs.
package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	StreamName         = "WORLDCUP_RUNS"
	SubjectRunFinished = "worldcup.runs.finished"
)

// RunFinishedEvent archives one completed run.
type RunFinishedEvent struct {
	RunID          string    `json:"run_id"`
	WorldcupID     int       `json:"worldcup_id"`
	ChampionID     int       `json:"champion_id"`
	RunnerUpID     int       `json:"runner_up_id"`
	ParticipantIDs []int     `json:"participant_ids"`
	Demographic    string    `json:"demographic,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

type Publisher interface {
	PublishRunFinished(ctx context.Context, event RunFinishedEvent) error
	Close()
}

type noopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher is used when NATS is not configured.
func NewNoopPublisher(logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &noopPublisher{logger: logger}
}

func (p *noopPublisher) PublishRunFinished(_ context.Context, event RunFinishedEvent) error {
	p.logger.Debug("run finished", slog.String("run_id", event.RunID), slog.Int("worldcup_id", event.WorldcupID))
	return nil
}

func (p *noopPublisher) Close() {}
