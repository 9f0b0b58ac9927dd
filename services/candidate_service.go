package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/storage"
	"golang.org/x/sync/errgroup"
)

type CandidateService interface {
	Add(ctx context.Context, userID int, input AddCandidatesInput) ([]models.Candidate, error)
	Update(ctx context.Context, userID int, key string, input UpdateCandidateInput) (*models.Candidate, error)
	Delete(ctx context.Context, userID int, key string) error
}

type AddCandidatesInput struct {
	WorldcupID int              `json:"worldcup_id"`
	Candidates []CandidateInput `json:"candidates"`
}

// UpdateCandidateInput renames a candidate and/or points it to a new image.
type UpdateCandidateInput struct {
	Name *string `json:"name,omitempty"`
	Key  *string `json:"key,omitempty"`
}

type candidateService struct {
	tx            TxRunner
	worldcupRepo  repositories.WorldcupRepository
	candidateRepo repositories.CandidateRepository
	images        storage.ImageStore
	logger        *slog.Logger
}

func NewCandidateService(
	tx TxRunner,
	worldcupRepo repositories.WorldcupRepository,
	candidateRepo repositories.CandidateRepository,
	images storage.ImageStore,
	logger *slog.Logger,
) CandidateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &candidateService{
		tx:            tx,
		worldcupRepo:  worldcupRepo,
		candidateRepo: candidateRepo,
		images:        images,
		logger:        logger,
	}
}

func (s *candidateService) authorize(ctx context.Context, userID, worldcupID int) error {
	worldcup, err := s.worldcupRepo.GetByID(ctx, worldcupID)
	if err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return ErrWorldcupNotFound
		}
		return fmt.Errorf("failed to get worldcup %d: %w", worldcupID, err)
	}
	if worldcup.AuthorID != userID {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *candidateService) getByKey(ctx context.Context, key string) (*models.Candidate, error) {
	candidate, err := s.candidateRepo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to get candidate %q: %w", key, err)
	}
	return candidate, nil
}

func (s *candidateService) Add(ctx context.Context, userID int, input AddCandidatesInput) ([]models.Candidate, error) {
	if len(input.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates given", ErrValidationFailed)
	}
	if err := validateCandidateInputs(input.Candidates); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, input.WorldcupID); err != nil {
		return nil, err
	}

	created := make([]*models.Candidate, len(input.Candidates))
	for i, in := range input.Candidates {
		created[i] = &models.Candidate{
			WorldcupID: input.WorldcupID,
			Name:       strings.TrimSpace(in.Name),
			ImageKey:   in.Key,
		}
	}

	err := s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.candidateRepo.CreateBatch(ctx, exec, created)
	})
	if err != nil {
		if mapped := mapCandidateRepoError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to add candidates: %w", err)
	}

	out := make([]models.Candidate, len(created))
	for i, c := range created {
		out[i] = *c
	}
	populateCandidateURLs(out, s.images)
	return out, nil
}

func (s *candidateService) Update(ctx context.Context, userID int, key string, input UpdateCandidateInput) (*models.Candidate, error) {
	if input.Name == nil && input.Key == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}
	candidate, err := s.getByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, candidate.WorldcupID); err != nil {
		return nil, err
	}

	oldKey := candidate.ImageKey
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidationFailed)
		}
		candidate.Name = name
	}
	if input.Key != nil {
		newKey := strings.TrimSpace(*input.Key)
		if newKey == "" {
			return nil, fmt.Errorf("%w: key must not be empty", ErrValidationFailed)
		}
		candidate.ImageKey = newKey
	}

	if err := s.candidateRepo.Update(ctx, nil, candidate); err != nil {
		if mapped := mapCandidateRepoError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update candidate %d: %w", candidate.ID, err)
	}

	if candidate.ImageKey != oldKey && s.images != nil {
		if err := s.images.Delete(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete replaced image", slog.String("key", oldKey), slog.Any("error", err))
		}
	}

	populateCandidateURL(candidate, s.images)
	return candidate, nil
}

// Delete removes the row and the bucket object concurrently.
func (s *candidateService) Delete(ctx context.Context, userID int, key string) error {
	candidate, err := s.getByKey(ctx, key)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, userID, candidate.WorldcupID); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.candidateRepo.DeleteByKey(gCtx, nil, key); err != nil {
			if errors.Is(err, repositories.ErrCandidateNotFound) {
				return ErrCandidateNotFound
			}
			return fmt.Errorf("failed to delete candidate %q: %w", key, err)
		}
		return nil
	})
	if s.images != nil {
		g.Go(func() error {
			if err := s.images.Delete(gCtx, key); err != nil {
				return fmt.Errorf("failed to delete image %q: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}
