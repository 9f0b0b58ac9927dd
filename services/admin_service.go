package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/worldcup/repositories"
)

// AdminService holds maintenance operations used by the CLI and the scheduler.
type AdminService interface {
	ResetStats(ctx context.Context, worldcupID int) (int64, error)
	PurgeMatchTokens(ctx context.Context, retention time.Duration) (int64, error)
}

type adminService struct {
	worldcupRepo  repositories.WorldcupRepository
	candidateRepo repositories.CandidateRepository
	matchRepo     repositories.MatchResultRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewAdminService(
	worldcupRepo repositories.WorldcupRepository,
	candidateRepo repositories.CandidateRepository,
	matchRepo repositories.MatchResultRepository,
	logger *slog.Logger,
) AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &adminService{
		worldcupRepo:  worldcupRepo,
		candidateRepo: candidateRepo,
		matchRepo:     matchRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// ResetStats zeroes every counter of the worldcup's candidates.
func (s *adminService) ResetStats(ctx context.Context, worldcupID int) (int64, error) {
	if _, err := s.worldcupRepo.GetByID(ctx, worldcupID); err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return 0, ErrWorldcupNotFound
		}
		return 0, fmt.Errorf("failed to get worldcup %d: %w", worldcupID, err)
	}
	n, err := s.candidateRepo.ResetStats(ctx, nil, worldcupID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stats: %w", err)
	}
	s.logger.InfoContext(ctx, "worldcup stats reset", slog.Int("worldcup_id", worldcupID), slog.Int64("candidates", n))
	return n, nil
}

// PurgeMatchTokens forgets idempotency tokens older than retention.
// A retry arriving after that would be counted again.
func (s *adminService) PurgeMatchTokens(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("%w: retention must be positive", ErrValidationFailed)
	}
	cutoff := s.now().Add(-retention)
	n, err := s.matchRepo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "purged match tokens", slog.Int64("count", n), slog.Time("cutoff", cutoff))
	}
	return n, nil
}
