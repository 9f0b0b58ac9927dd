package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/ranking"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/storage"
)

const maxRankingPageSize = 100

type RankingService interface {
	Rank(ctx context.Context, worldcupID int, query RankingQuery) (*RankingPage, error)
	Detail(ctx context.Context, candidateID int) (*CandidateDetail, error)
}

// RankingQuery pages are 1-based; Limit 0 returns the whole ranking.
type RankingQuery struct {
	Search string
	Page   int
	Limit  int
}

type RankingPage struct {
	Items []ranking.Summary `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Pages int               `json:"pages"`
}

type CandidateDetail struct {
	ranking.Summary
	ShowCount    int               `json:"show_cnt"`
	WinCount     int               `json:"win_cnt"`
	VictoryCount int               `json:"victory_cnt"`
	RunCount     int               `json:"total"`
	Breakdown    ranking.Breakdown `json:"breakdown"`
}

type rankingService struct {
	worldcupRepo  repositories.WorldcupRepository
	candidateRepo repositories.CandidateRepository
	images        storage.ImageStore
}

func NewRankingService(worldcupRepo repositories.WorldcupRepository, candidateRepo repositories.CandidateRepository, images storage.ImageStore) RankingService {
	return &rankingService{
		worldcupRepo:  worldcupRepo,
		candidateRepo: candidateRepo,
		images:        images,
	}
}

func (s *rankingService) Rank(ctx context.Context, worldcupID int, query RankingQuery) (*RankingPage, error) {
	if query.Limit < 0 || query.Page < 0 {
		return nil, fmt.Errorf("%w: page and limit must not be negative", ErrValidationFailed)
	}
	if query.Limit > maxRankingPageSize {
		query.Limit = maxRankingPageSize
	}
	if query.Page == 0 {
		query.Page = 1
	}

	if _, err := s.worldcupRepo.GetByID(ctx, worldcupID); err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return nil, ErrWorldcupNotFound
		}
		return nil, storeError("failed to get worldcup", err)
	}

	stats, err := s.candidateRepo.ListStatsByWorldcup(ctx, worldcupID)
	if err != nil {
		return nil, storeError("failed to load ranking", err)
	}
	for i := range stats {
		populateCandidateURL(&stats[i].Candidate, s.images)
	}

	items, total := ranking.Rank(stats, query.Search, ranking.Page{Number: query.Page, Limit: query.Limit})

	pages := 1
	if query.Limit > 0 {
		pages = (total + query.Limit - 1) / query.Limit
	}
	return &RankingPage{
		Items: items,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
		Pages: pages,
	}, nil
}

func (s *rankingService) Detail(ctx context.Context, candidateID int) (*CandidateDetail, error) {
	stats, err := s.candidateRepo.GetStats(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, storeError("failed to load candidate stats", err)
	}
	populateCandidateURL(&stats.Candidate, s.images)
	return newCandidateDetail(*stats), nil
}

func newCandidateDetail(stats models.CandidateStats) *CandidateDetail {
	return &CandidateDetail{
		Summary:      ranking.Summarize(stats),
		ShowCount:    stats.ShowCount,
		WinCount:     stats.WinCount,
		VictoryCount: stats.VictoryCount,
		RunCount:     stats.RunCount,
		Breakdown:    ranking.AccumulateOne(stats),
	}
}
