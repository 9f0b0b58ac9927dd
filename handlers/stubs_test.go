package handlers

import (
	"context"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/services"
	"github.com/Dosada05/worldcup/storage"
)

type stubGameService struct {
	startRun    func(ctx context.Context, worldcupID, roundSize int) (*services.RunView, error)
	pick        func(ctx context.Context, voterID int, input services.PickInput) (*services.PickResult, error)
	matchResult func(ctx context.Context, voterID int, input services.MatchResultInput) (*services.ResultReceipt, error)
	finalResult func(ctx context.Context, voterID int, input services.FinalResultInput) (*services.ResultReceipt, error)
}

func (s *stubGameService) StartRun(ctx context.Context, worldcupID, roundSize int) (*services.RunView, error) {
	return s.startRun(ctx, worldcupID, roundSize)
}

func (s *stubGameService) Pick(ctx context.Context, voterID int, input services.PickInput) (*services.PickResult, error) {
	return s.pick(ctx, voterID, input)
}

func (s *stubGameService) ApplyMatchResult(ctx context.Context, voterID int, input services.MatchResultInput) (*services.ResultReceipt, error) {
	return s.matchResult(ctx, voterID, input)
}

func (s *stubGameService) ApplyFinalResult(ctx context.Context, voterID int, input services.FinalResultInput) (*services.ResultReceipt, error) {
	return s.finalResult(ctx, voterID, input)
}

type stubRankingService struct {
	rank   func(ctx context.Context, worldcupID int, query services.RankingQuery) (*services.RankingPage, error)
	detail func(ctx context.Context, candidateID int) (*services.CandidateDetail, error)
}

func (s *stubRankingService) Rank(ctx context.Context, worldcupID int, query services.RankingQuery) (*services.RankingPage, error) {
	return s.rank(ctx, worldcupID, query)
}

func (s *stubRankingService) Detail(ctx context.Context, candidateID int) (*services.CandidateDetail, error) {
	return s.detail(ctx, candidateID)
}

type stubAuthService struct {
	users map[string]*models.User
}

func (s *stubAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	if _, ok := s.users[input.Email]; ok {
		return nil, services.ErrUserEmailConflict
	}
	u := &models.User{ID: len(s.users) + 1, Email: input.Email, Nickname: input.Nickname}
	s.users[input.Email] = u
	return u, nil
}

func (s *stubAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	u, ok := s.users[input.Email]
	if !ok || input.Password != "secret-password" {
		return nil, services.ErrInvalidCredentials
	}
	return u, nil
}

func (s *stubAuthService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

type stubBucketService struct {
	got []string
}

func (s *stubBucketService) PresignUploads(ctx context.Context, contentTypes []string) ([]storage.PresignedUpload, error) {
	s.got = contentTypes
	if len(contentTypes) > 2 {
		return nil, services.ErrValidationFailed
	}
	return []storage.PresignedUpload{{Key: "k.png", URL: "https://upload.test/k.png", ContentType: "image/png"}}, nil
}
