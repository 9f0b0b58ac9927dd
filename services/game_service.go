package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/events"
	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/ranking"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/sessions"
	"github.com/Dosada05/worldcup/storage"
	"github.com/google/uuid"
)

// RunSealer turns a run into the opaque token the client carries between picks.
type RunSealer interface {
	Seal(run *brackets.Run) (string, error)
	Open(token string) (*brackets.Run, error)
}

// RoomNotifier pushes messages to everyone watching a room.
type RoomNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

type GameService interface {
	StartRun(ctx context.Context, worldcupID, roundSize int) (*RunView, error)
	Pick(ctx context.Context, voterID int, input PickInput) (*PickResult, error)
	ApplyMatchResult(ctx context.Context, voterID int, input MatchResultInput) (*ResultReceipt, error)
	ApplyFinalResult(ctx context.Context, voterID int, input FinalResultInput) (*ResultReceipt, error)
}

type PickInput struct {
	RunToken    string `json:"run_token"`
	WinnerID    int    `json:"winner_id"`
	Demographic string `json:"demographic,omitempty"`
}

type MatchResultInput struct {
	WinID          int    `json:"win_id"`
	LoseID         int    `json:"lose_id"`
	Demographic    string `json:"demographic,omitempty"`
	IdempotencyKey string `json:"-"`
}

type FinalResultInput struct {
	WorldcupID     int    `json:"worldcup_id"`
	WinID          int    `json:"win_id"`
	LoseID         int    `json:"lose_id"`
	ParticipantIDs []int  `json:"participant_ids,omitempty"`
	Demographic    string `json:"demographic,omitempty"`
	IdempotencyKey string `json:"-"`
}

// RunView is what the client renders after every step of a run.
type RunView struct {
	RunToken string                   `json:"run_token"`
	Run      *brackets.Run            `json:"run"`
	Phase    brackets.Phase           `json:"phase"`
	Match    []models.Candidate       `json:"match,omitempty"`
	Champion *models.Candidate        `json:"champion,omitempty"`
	Bracket  []*brackets.BracketMatch `json:"bracket"`
}

type PickResult struct {
	RunView
	Outcome   *brackets.MatchOutcome `json:"outcome"`
	Duplicate bool                   `json:"duplicate"`
}

// ResultReceipt describes an applied (or replayed) result.
type ResultReceipt struct {
	Token    string                  `json:"token"`
	Kind     models.MatchKind        `json:"kind"`
	WinnerID int                     `json:"winner_id"`
	LoserID  int                     `json:"loser_id"`
	Bucket   models.Bucket           `json:"bucket,omitempty"`
	Intents  []ranking.CounterIntent `json:"intents,omitempty"`
}

type RankingUpdatedPayload struct {
	WorldcupID int    `json:"worldcup_id"`
	WinnerID   int    `json:"winner_id"`
	LoserID    int    `json:"loser_id"`
	Kind       string `json:"kind"`
}

type gameService struct {
	tx            TxRunner
	worldcupRepo  repositories.WorldcupRepository
	candidateRepo repositories.CandidateRepository
	matchRepo     repositories.MatchResultRepository
	userRepo      repositories.UserRepository
	sealer        RunSealer
	generator     brackets.BracketGenerator
	images        storage.ImageStore
	publisher     events.Publisher
	notifier      RoomNotifier
	logger        *slog.Logger
	runTTL        time.Duration

	now func() time.Time
	rng func() *rand.Rand
}

type GameServiceDeps struct {
	Tx            TxRunner
	WorldcupRepo  repositories.WorldcupRepository
	CandidateRepo repositories.CandidateRepository
	MatchRepo     repositories.MatchResultRepository
	UserRepo      repositories.UserRepository
	Sealer        RunSealer
	Images        storage.ImageStore
	Publisher     events.Publisher
	Notifier      RoomNotifier
	Logger        *slog.Logger
	// RunTTL bounds how long a sealed run can still be played. It must not
	// exceed the match token retention. Zero disables the check.
	RunTTL time.Duration
}

func NewGameService(deps GameServiceDeps) GameService {
	s := &gameService{
		tx:            deps.Tx,
		worldcupRepo:  deps.WorldcupRepo,
		candidateRepo: deps.CandidateRepo,
		matchRepo:     deps.MatchRepo,
		userRepo:      deps.UserRepo,
		sealer:        deps.Sealer,
		generator:     brackets.NewSingleEliminationGenerator(),
		images:        deps.Images,
		publisher:     deps.Publisher,
		notifier:      deps.Notifier,
		logger:        deps.Logger,
		runTTL:        deps.RunTTL,
		now:           time.Now,
		rng:           func() *rand.Rand { return nil },
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.publisher == nil {
		s.publisher = events.NewNoopPublisher(s.logger)
	}
	return s
}

func (s *gameService) StartRun(ctx context.Context, worldcupID, roundSize int) (*RunView, error) {
	if _, err := s.worldcupRepo.GetByID(ctx, worldcupID); err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return nil, ErrWorldcupNotFound
		}
		return nil, storeError("failed to get worldcup", err)
	}

	candidates, err := s.candidateRepo.ListByWorldcup(ctx, worldcupID)
	if err != nil {
		return nil, storeError("failed to list candidates", err)
	}
	allowed := brackets.AllowedRoundSizes(len(candidates))
	if len(allowed) == 0 {
		return nil, ErrNotEnoughCandidates
	}
	if roundSize == 0 {
		roundSize = allowed[len(allowed)-1]
	}

	populateCandidateURLs(candidates, s.images)
	run, err := brackets.SelectRun(worldcupID, candidates, roundSize, s.rng(), s.now())
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "run started",
		slog.String("run_id", run.ID),
		slog.Int("worldcup_id", worldcupID),
		slog.Int("round_size", roundSize))
	return s.view(ctx, run)
}

// Pick advances a sealed run. The new token is issued only after the store
// accepted the match, so a failed submission leaves the client on the same pick.
func (s *gameService) Pick(ctx context.Context, voterID int, input PickInput) (*PickResult, error) {
	run, err := s.sealer.Open(input.RunToken)
	if err != nil {
		if errors.Is(err, sessions.ErrInvalidToken) || errors.Is(err, sessions.ErrUnsupportedVersion) || errors.Is(err, brackets.ErrMalformedRun) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRunToken, err)
		}
		return nil, err
	}
	// Токены матчей старше срока хранения удаляются, повтор такого прохождения засчитался бы снова.
	if s.runTTL > 0 && s.now().Sub(run.StartedAt) > s.runTTL {
		return nil, fmt.Errorf("%w: run started at %s has expired", ErrInvalidRunToken, run.StartedAt.Format(time.RFC3339))
	}

	next, outcome, err := brackets.Advance(run, input.WinnerID, s.now())
	if err != nil {
		return nil, err
	}

	bucket, err := s.resolveDemographic(ctx, input.Demographic, voterID)
	if err != nil {
		return nil, err
	}
	intents, err := ranking.ResolveMatch(outcome.Winner, outcome.Loser, bucket)
	if err != nil {
		return nil, err
	}

	finished := outcome.Phase == brackets.PhaseFinished
	kind := models.MatchKindRound
	if finished {
		kind = models.MatchKindFinal
		intents = append(intents, ranking.ResolveChampion(outcome.Winner)...)
		intents = append(intents, ranking.ResolveParticipation(candidateIDs(run.Candidates))...)
	}

	receipt := &ResultReceipt{
		Token:    outcome.MatchKey(run.ID),
		Kind:     kind,
		WinnerID: outcome.Winner.ID,
		LoserID:  outcome.Loser.ID,
		Bucket:   bucket,
		Intents:  intents,
	}

	duplicate := false
	stored, err := s.apply(ctx, run.WorldcupID, receipt, finished)
	if err != nil {
		if !errors.Is(err, ErrDuplicateResult) {
			return nil, err
		}
		duplicate = true
		// The bracket follows the recorded decision, not the replayed one.
		if stored.WinnerID != outcome.Winner.ID {
			next, outcome, err = brackets.Advance(run, stored.WinnerID, s.now())
			if err != nil {
				return nil, fmt.Errorf("%w: recorded winner %d does not fit the run: %v", ErrInvalidRunToken, stored.WinnerID, err)
			}
		}
	}

	if !duplicate {
		s.notifyRanking(run.WorldcupID, receipt)
		if finished {
			s.publishFinished(ctx, run.ID, run.WorldcupID, outcome.Winner.ID, outcome.Loser.ID, candidateIDs(run.Candidates), bucket)
		}
	}

	view, err := s.view(ctx, next)
	if err != nil {
		return nil, err
	}
	return &PickResult{RunView: *view, Outcome: outcome, Duplicate: duplicate}, nil
}

func (s *gameService) ApplyMatchResult(ctx context.Context, voterID int, input MatchResultInput) (*ResultReceipt, error) {
	if input.WinID == input.LoseID {
		return nil, fmt.Errorf("%w: candidate %d", ranking.ErrSelfMatch, input.WinID)
	}

	winner, err := s.getCandidate(ctx, input.WinID)
	if err != nil {
		return nil, err
	}
	loser, err := s.getCandidate(ctx, input.LoseID)
	if err != nil {
		return nil, err
	}
	if winner.WorldcupID != loser.WorldcupID {
		return nil, ErrCandidateMismatch
	}

	bucket, err := s.resolveDemographic(ctx, input.Demographic, voterID)
	if err != nil {
		return nil, err
	}
	intents, err := ranking.ResolveMatch(*winner, *loser, bucket)
	if err != nil {
		return nil, err
	}

	receipt := &ResultReceipt{
		Token:    resultToken(models.MatchKindRound, input.IdempotencyKey),
		Kind:     models.MatchKindRound,
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Bucket:   bucket,
		Intents:  intents,
	}
	if stored, err := s.apply(ctx, winner.WorldcupID, receipt, false); err != nil {
		if errors.Is(err, ErrDuplicateResult) {
			return stored, err
		}
		return nil, err
	}

	s.notifyRanking(winner.WorldcupID, receipt)
	return receipt, nil
}

// ApplyFinalResult applies the final match together with the champion and
// participation increments of the whole run.
func (s *gameService) ApplyFinalResult(ctx context.Context, voterID int, input FinalResultInput) (*ResultReceipt, error) {
	if input.WinID == input.LoseID {
		return nil, fmt.Errorf("%w: candidate %d", ranking.ErrSelfMatch, input.WinID)
	}
	if _, err := s.worldcupRepo.GetByID(ctx, input.WorldcupID); err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return nil, ErrWorldcupNotFound
		}
		return nil, storeError("failed to get worldcup", err)
	}

	candidates, err := s.candidateRepo.ListByWorldcup(ctx, input.WorldcupID)
	if err != nil {
		return nil, storeError("failed to list candidates", err)
	}
	byID := make(map[int]models.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	winner, okW := byID[input.WinID]
	loser, okL := byID[input.LoseID]
	if !okW || !okL {
		return nil, fmt.Errorf("%w: finalists must belong to worldcup %d", ErrCandidateNotFound, input.WorldcupID)
	}

	participants := []int{winner.ID, loser.ID}
	for _, id := range input.ParticipantIDs {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: participant %d is not part of worldcup %d", ErrValidationFailed, id, input.WorldcupID)
		}
		participants = append(participants, id)
	}

	bucket, err := s.resolveDemographic(ctx, input.Demographic, voterID)
	if err != nil {
		return nil, err
	}
	intents, err := ranking.ResolveMatch(winner, loser, bucket)
	if err != nil {
		return nil, err
	}
	intents = append(intents, ranking.ResolveChampion(winner)...)
	intents = append(intents, ranking.ResolveParticipation(participants)...)

	receipt := &ResultReceipt{
		Token:    resultToken(models.MatchKindFinal, input.IdempotencyKey),
		Kind:     models.MatchKindFinal,
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Bucket:   bucket,
		Intents:  intents,
	}
	if stored, err := s.apply(ctx, input.WorldcupID, receipt, true); err != nil {
		if errors.Is(err, ErrDuplicateResult) {
			return stored, err
		}
		return nil, err
	}

	s.notifyRanking(input.WorldcupID, receipt)
	s.publishFinished(ctx, receipt.Token, input.WorldcupID, winner.ID, loser.ID, dedupIDs(participants), bucket)
	return receipt, nil
}

// apply records the receipt and its increments in one transaction.
// A token that was already recorded rolls everything back and yields
// ErrDuplicateResult together with the receipt stored under that token.
func (s *gameService) apply(ctx context.Context, worldcupID int, receipt *ResultReceipt, countPlay bool) (*ResultReceipt, error) {
	record := &models.MatchResult{
		Token:      receipt.Token,
		WorldcupID: &worldcupID,
		WinnerID:   receipt.WinnerID,
		LoserID:    receipt.LoserID,
		Kind:       receipt.Kind,
	}
	if receipt.Bucket != "" {
		b := receipt.Bucket
		record.Bucket = &b
	}

	err := s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.Record(ctx, exec, record); err != nil {
			return err
		}
		if err := s.candidateRepo.ApplyIntents(ctx, exec, receipt.Intents); err != nil {
			return err
		}
		if countPlay {
			return s.worldcupRepo.IncrementPlays(ctx, exec, worldcupID)
		}
		return nil
	})
	switch {
	case err == nil:
		return receipt, nil
	case errors.Is(err, repositories.ErrMatchTokenUsed):
		s.logger.InfoContext(ctx, "duplicate match result ignored", slog.String("token", receipt.Token))
		record, err := s.matchRepo.GetByToken(ctx, receipt.Token)
		if err != nil {
			return nil, storeError("failed to load recorded match result", err)
		}
		return receiptFromRecord(record), ErrDuplicateResult
	case errors.Is(err, repositories.ErrCandidateNotFound):
		return nil, ErrCandidateNotFound
	case errors.Is(err, repositories.ErrWorldcupNotFound):
		return nil, ErrWorldcupNotFound
	default:
		s.logger.ErrorContext(ctx, "failed to apply match result", slog.String("token", receipt.Token), slog.Any("error", err))
		return nil, storeError("failed to apply match result", err)
	}
}

// receiptFromRecord rebuilds the receipt of a recorded result. Intents are not
// persisted and stay empty.
func receiptFromRecord(record *models.MatchResult) *ResultReceipt {
	receipt := &ResultReceipt{
		Token:    record.Token,
		Kind:     record.Kind,
		WinnerID: record.WinnerID,
		LoserID:  record.LoserID,
	}
	if record.Bucket != nil {
		receipt.Bucket = *record.Bucket
	}
	return receipt
}

func (s *gameService) getCandidate(ctx context.Context, id int) (*models.Candidate, error) {
	c, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
		}
		return nil, storeError("failed to get candidate", err)
	}
	return c, nil
}

// resolveDemographic prefers the explicit bucket; otherwise the signed-in
// voter's profile decides. Anonymous voters get no bucket.
func (s *gameService) resolveDemographic(ctx context.Context, explicit string, voterID int) (models.Bucket, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		bucket, ok := models.ParseBucket(explicit)
		if !ok {
			return "", fmt.Errorf("%w: %q", ranking.ErrUnknownBucket, explicit)
		}
		return bucket, nil
	}
	if voterID <= 0 || s.userRepo == nil {
		return "", nil
	}
	voter, err := s.userRepo.GetByID(ctx, voterID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load voter profile", slog.Int("user_id", voterID), slog.Any("error", err))
		return "", nil
	}
	bucket, _ := voter.Demographic(s.now())
	return bucket, nil
}

func (s *gameService) view(ctx context.Context, run *brackets.Run) (*RunView, error) {
	token, err := s.sealer.Seal(run)
	if err != nil {
		return nil, fmt.Errorf("failed to seal run: %w", err)
	}
	bracket, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Run: run})
	if err != nil {
		return nil, fmt.Errorf("failed to render bracket: %w", err)
	}

	view := &RunView{
		RunToken: token,
		Run:      run,
		Phase:    run.Phase(),
		Bracket:  bracket,
	}
	if champion, ok := run.Champion(); ok {
		view.Champion = &champion
	} else {
		a, b, err := run.CurrentMatch()
		if err != nil {
			return nil, err
		}
		view.Match = []models.Candidate{a, b}
	}
	return view, nil
}

func (s *gameService) notifyRanking(worldcupID int, receipt *ResultReceipt) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastToRoom(brackets.RoomForWorldcup(worldcupID), brackets.WebSocketMessage{
		Type: brackets.MessageRankingUpdated,
		Payload: RankingUpdatedPayload{
			WorldcupID: worldcupID,
			WinnerID:   receipt.WinnerID,
			LoserID:    receipt.LoserID,
			Kind:       string(receipt.Kind),
		},
		RoomID: brackets.RoomForWorldcup(worldcupID),
	})
}

func (s *gameService) publishFinished(ctx context.Context, runID string, worldcupID, championID, runnerUpID int, participants []int, bucket models.Bucket) {
	event := events.RunFinishedEvent{
		RunID:          runID,
		WorldcupID:     worldcupID,
		ChampionID:     championID,
		RunnerUpID:     runnerUpID,
		ParticipantIDs: participants,
		Demographic:    string(bucket),
		FinishedAt:     s.now(),
	}
	if err := s.publisher.PublishRunFinished(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish run finished event", slog.String("run_id", runID), slog.Any("error", err))
	}
	if s.notifier != nil {
		s.notifier.BroadcastToRoom(brackets.RoomForWorldcup(worldcupID), brackets.WebSocketMessage{
			Type:    brackets.MessageRunFinished,
			Payload: event,
			RoomID:  brackets.RoomForWorldcup(worldcupID),
		})
	}
}

func resultToken(kind models.MatchKind, idempotencyKey string) string {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	return string(kind) + ":" + key
}

func candidateIDs(candidates []models.Candidate) []int {
	ids := make([]int, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}

func dedupIDs(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
