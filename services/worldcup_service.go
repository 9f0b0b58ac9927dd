package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/storage"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorldcupPageSize = 20
	maxWorldcupPageSize     = 100
	maxKeywords             = 10
)

type WorldcupService interface {
	List(ctx context.Context, input ListWorldcupsInput) ([]models.Worldcup, error)
	Keywords(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id int) (*models.Worldcup, error)
	AllowedRounds(ctx context.Context, id int) ([]int, error)
	ListMine(ctx context.Context, authorID int) ([]models.Worldcup, error)
	Create(ctx context.Context, authorID int, input CreateWorldcupInput) (*models.Worldcup, error)
	Delete(ctx context.Context, userID, id int) error
}

type ListWorldcupsInput struct {
	Keyword string
	Offset  int
	Limit   int
}

type CandidateInput struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type CreateWorldcupInput struct {
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Keywords    []string         `json:"keywords"`
	IsPublic    *bool            `json:"is_public,omitempty"`
	Candidates  []CandidateInput `json:"candidates"`
}

type worldcupService struct {
	tx            TxRunner
	worldcupRepo  repositories.WorldcupRepository
	candidateRepo repositories.CandidateRepository
	images        storage.ImageStore
	logger        *slog.Logger
}

func NewWorldcupService(
	tx TxRunner,
	worldcupRepo repositories.WorldcupRepository,
	candidateRepo repositories.CandidateRepository,
	images storage.ImageStore,
	logger *slog.Logger,
) WorldcupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &worldcupService{
		tx:            tx,
		worldcupRepo:  worldcupRepo,
		candidateRepo: candidateRepo,
		images:        images,
		logger:        logger,
	}
}

func (s *worldcupService) List(ctx context.Context, input ListWorldcupsInput) ([]models.Worldcup, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultWorldcupPageSize
	}
	if limit > maxWorldcupPageSize {
		limit = maxWorldcupPageSize
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	worldcups, err := s.worldcupRepo.List(ctx, repositories.ListWorldcupsFilter{
		Keyword: strings.TrimSpace(input.Keyword),
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list worldcups: %w", err)
	}
	for i := range worldcups {
		populateWorldcupThumbnail(&worldcups[i], s.images)
	}
	return worldcups, nil
}

func (s *worldcupService) Keywords(ctx context.Context) ([]string, error) {
	keywords, err := s.worldcupRepo.ListKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywords, nil
}

// GetByID loads the worldcup and its candidates concurrently.
func (s *worldcupService) GetByID(ctx context.Context, id int) (*models.Worldcup, error) {
	var (
		worldcup   *models.Worldcup
		candidates []models.Candidate
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := s.worldcupRepo.GetByID(gCtx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrWorldcupNotFound) {
				return ErrWorldcupNotFound
			}
			return fmt.Errorf("failed to get worldcup %d: %w", id, err)
		}
		worldcup = w
		return nil
	})
	g.Go(func() error {
		list, err := s.candidateRepo.ListByWorldcup(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list candidates of worldcup %d: %w", id, err)
		}
		candidates = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	populateCandidateURLs(candidates, s.images)
	populateWorldcupThumbnail(worldcup, s.images)
	worldcup.Candidates = candidates
	worldcup.CandidateCount = len(candidates)
	return worldcup, nil
}

func (s *worldcupService) AllowedRounds(ctx context.Context, id int) ([]int, error) {
	worldcup, err := s.worldcupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return nil, ErrWorldcupNotFound
		}
		return nil, fmt.Errorf("failed to get worldcup %d: %w", id, err)
	}
	return brackets.AllowedRoundSizes(worldcup.CandidateCount), nil
}

func (s *worldcupService) ListMine(ctx context.Context, authorID int) ([]models.Worldcup, error) {
	worldcups, err := s.worldcupRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worldcups of user %d: %w", authorID, err)
	}
	for i := range worldcups {
		populateWorldcupThumbnail(&worldcups[i], s.images)
	}
	return worldcups, nil
}

func (s *worldcupService) Create(ctx context.Context, authorID int, input CreateWorldcupInput) (*models.Worldcup, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	keywords := normalizeKeywords(input.Keywords)
	if len(keywords) > maxKeywords {
		return nil, fmt.Errorf("%w: at most %d keywords are allowed", ErrValidationFailed, maxKeywords)
	}
	if err := validateCandidateInputs(input.Candidates); err != nil {
		return nil, err
	}

	worldcup := &models.Worldcup{
		Title:       title,
		Slug:        slug.Make(title),
		Description: trimmedOrNil(input.Description),
		Keywords:    keywords,
		AuthorID:    authorID,
		IsPublic:    input.IsPublic == nil || *input.IsPublic,
	}

	candidates := make([]*models.Candidate, len(input.Candidates))
	err := s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.worldcupRepo.Create(ctx, exec, worldcup); err != nil {
			return err
		}
		for i, in := range input.Candidates {
			candidates[i] = &models.Candidate{
				WorldcupID: worldcup.ID,
				Name:       strings.TrimSpace(in.Name),
				ImageKey:   in.Key,
			}
		}
		return s.candidateRepo.CreateBatch(ctx, exec, candidates)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrWorldcupAuthorInvalid) {
			return nil, ErrUserNotFound
		}
		if mapped := mapCandidateRepoError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create worldcup: %w", err)
	}

	worldcup.Candidates = make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		worldcup.Candidates[i] = *c
	}
	worldcup.CandidateCount = len(candidates)
	populateCandidateURLs(worldcup.Candidates, s.images)
	if len(candidates) > 0 {
		worldcup.ThumbnailKey = candidates[0].ImageKey
		populateWorldcupThumbnail(worldcup, s.images)
	}

	s.logger.InfoContext(ctx, "worldcup created",
		slog.Int("worldcup_id", worldcup.ID),
		slog.Int("author_id", authorID),
		slog.Int("candidates", len(candidates)))
	return worldcup, nil
}

// Delete removes the worldcup (its rows cascade) and then its images.
// Image deletion failures are logged; the bucket can be swept later.
func (s *worldcupService) Delete(ctx context.Context, userID, id int) error {
	worldcup, err := s.worldcupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return ErrWorldcupNotFound
		}
		return fmt.Errorf("failed to get worldcup %d: %w", id, err)
	}
	if worldcup.AuthorID != userID {
		return ErrForbiddenOperation
	}

	candidates, err := s.candidateRepo.ListByWorldcup(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list candidates of worldcup %d: %w", id, err)
	}

	if err := s.worldcupRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return ErrWorldcupNotFound
		}
		return fmt.Errorf("failed to delete worldcup %d: %w", id, err)
	}

	if s.images == nil {
		return nil
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, c := range candidates {
		key := c.ImageKey
		g.Go(func() error {
			if err := s.images.Delete(gCtx, key); err != nil {
				s.logger.WarnContext(gCtx, "failed to delete candidate image", slog.String("key", key), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
