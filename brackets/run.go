package brackets

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/Dosada05/worldcup/models"
	"github.com/google/uuid"
)

// RunSchemaVersion is bumped whenever the serialized Run layout changes.
const RunSchemaVersion = 1

const minRoundSize = 4

var (
	ErrInvalidRoundSize = errors.New("round size must be a power of two between 4 and the number of candidates")
	ErrRunFinished      = errors.New("run already has a champion")
	ErrNotInMatch       = errors.New("winner is not a contender of the current match")
	ErrMalformedRun     = errors.New("run state is malformed")
)

type Phase string

const (
	PhaseAwaitingPick  Phase = "awaiting_pick"
	PhaseRoundComplete Phase = "round_complete"
	PhaseFinished      Phase = "finished"
)

// Selection is one decided match of a run.
type Selection struct {
	Round     int       `json:"round"`
	PairIndex int       `json:"pair_index"`
	WinnerID  int       `json:"winner_id"`
	LoserID   int       `json:"loser_id"`
	PickedAt  time.Time `json:"picked_at"`
}

// Run is one client's playthrough of a single-elimination bracket.
// It is a plain value: Advance returns a new Run and never mutates its input.
type Run struct {
	Version      int                `json:"v"`
	ID           string             `json:"id"`
	WorldcupID   int                `json:"worldcup_id"`
	RoundSize    int                `json:"round_size"`
	Candidates   []models.Candidate `json:"candidates"`
	CurrentRound int                `json:"current_round"`
	Contenders   []int              `json:"contenders"`
	PairIndex    int                `json:"pair_index"`
	Winners      []int              `json:"winners"`
	Selected     []Selection        `json:"selected"`
	ChampionID   *int               `json:"champion_id,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
}

// MatchOutcome describes what a single Advance call decided.
type MatchOutcome struct {
	Round     int              `json:"round"`
	PairIndex int              `json:"pair_index"`
	Winner    models.Candidate `json:"winner"`
	Loser     models.Candidate `json:"loser"`
	// Phase is PhaseRoundComplete when this pick closed a non-final round.
	Phase Phase `json:"phase"`
}

// MatchKey identifies the match in a way that is stable across retries.
func (o *MatchOutcome) MatchKey(runID string) string {
	return fmt.Sprintf("%s:r%d:m%d", runID, o.Round, o.PairIndex)
}

// AllowedRoundSizes lists the bracket sizes playable with n candidates.
func AllowedRoundSizes(n int) []int {
	sizes := make([]int, 0)
	for size := minRoundSize; size <= n; size <<= 1 {
		sizes = append(sizes, size)
	}
	return sizes
}

func IsAllowedRoundSize(roundSize, n int) bool {
	if roundSize < minRoundSize || roundSize > n {
		return false
	}
	return roundSize&(roundSize-1) == 0
}

// SelectRun draws roundSize candidates uniformly at random without replacement
// and lays them out as the first round (pair 2k vs 2k+1).
func SelectRun(worldcupID int, candidates []models.Candidate, roundSize int, rng *rand.Rand, now time.Time) (*Run, error) {
	if !IsAllowedRoundSize(roundSize, len(candidates)) {
		return nil, fmt.Errorf("%w: got %d for %d candidates", ErrInvalidRoundSize, roundSize, len(candidates))
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	perm := rng.Perm(len(candidates))[:roundSize]
	drawn := make([]models.Candidate, roundSize)
	contenders := make([]int, roundSize)
	for i, idx := range perm {
		drawn[i] = candidates[idx]
		contenders[i] = candidates[idx].ID
	}

	return &Run{
		Version:      RunSchemaVersion,
		ID:           uuid.NewString(),
		WorldcupID:   worldcupID,
		RoundSize:    roundSize,
		Candidates:   drawn,
		CurrentRound: 1,
		Contenders:   contenders,
		PairIndex:    0,
		Winners:      []int{},
		Selected:     []Selection{},
		StartedAt:    now,
	}, nil
}

func (r *Run) Phase() Phase {
	if r.ChampionID != nil {
		return PhaseFinished
	}
	return PhaseAwaitingPick
}

// TotalRounds is log2(RoundSize).
func (r *Run) TotalRounds() int {
	rounds := 0
	for size := r.RoundSize; size > 1; size >>= 1 {
		rounds++
	}
	return rounds
}

func (r *Run) Candidate(id int) (models.Candidate, bool) {
	for _, c := range r.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return models.Candidate{}, false
}

func (r *Run) Champion() (models.Candidate, bool) {
	if r.ChampionID == nil {
		return models.Candidate{}, false
	}
	return r.Candidate(*r.ChampionID)
}

// CurrentMatch returns the two contenders awaiting a pick.
func (r *Run) CurrentMatch() (models.Candidate, models.Candidate, error) {
	if r.Phase() == PhaseFinished {
		return models.Candidate{}, models.Candidate{}, ErrRunFinished
	}
	i := r.PairIndex * 2
	if i+1 >= len(r.Contenders) {
		return models.Candidate{}, models.Candidate{}, fmt.Errorf("%w: pair %d out of %d contenders", ErrMalformedRun, r.PairIndex, len(r.Contenders))
	}
	a, okA := r.Candidate(r.Contenders[i])
	b, okB := r.Candidate(r.Contenders[i+1])
	if !okA || !okB {
		return models.Candidate{}, models.Candidate{}, fmt.Errorf("%w: contender is not part of the run", ErrMalformedRun)
	}
	return a, b, nil
}

// Validate checks the structural invariants of a run decoded from the client.
func (r *Run) Validate() error {
	if !IsAllowedRoundSize(r.RoundSize, r.RoundSize) || len(r.Candidates) != r.RoundSize {
		return fmt.Errorf("%w: round size %d with %d candidates", ErrMalformedRun, r.RoundSize, len(r.Candidates))
	}
	if r.CurrentRound < 1 || r.CurrentRound > r.TotalRounds() {
		return fmt.Errorf("%w: round %d", ErrMalformedRun, r.CurrentRound)
	}
	if r.ChampionID != nil {
		if _, ok := r.Candidate(*r.ChampionID); !ok {
			return fmt.Errorf("%w: champion is not part of the run", ErrMalformedRun)
		}
		return nil
	}
	if want := r.RoundSize >> (r.CurrentRound - 1); len(r.Contenders) != want {
		return fmt.Errorf("%w: %d contenders in round %d", ErrMalformedRun, len(r.Contenders), r.CurrentRound)
	}
	if r.PairIndex < 0 || r.PairIndex*2 >= len(r.Contenders) || len(r.Winners) != r.PairIndex {
		return fmt.Errorf("%w: pair index %d", ErrMalformedRun, r.PairIndex)
	}
	return nil
}

func (r *Run) clone() *Run {
	next := *r
	next.Candidates = slices.Clone(r.Candidates)
	next.Contenders = slices.Clone(r.Contenders)
	next.Winners = slices.Clone(r.Winners)
	next.Selected = slices.Clone(r.Selected)
	if r.ChampionID != nil {
		id := *r.ChampionID
		next.ChampionID = &id
	}
	return &next
}

// Advance records winnerID for the current pairing. When the round is decided the
// winners, in the order they were picked, become the next round's contenders.
func Advance(run *Run, winnerID int, pickedAt time.Time) (*Run, *MatchOutcome, error) {
	a, b, err := run.CurrentMatch()
	if err != nil {
		return nil, nil, err
	}

	var winner, loser models.Candidate
	switch winnerID {
	case a.ID:
		winner, loser = a, b
	case b.ID:
		winner, loser = b, a
	default:
		return nil, nil, fmt.Errorf("%w: candidate %d (match is %d vs %d)", ErrNotInMatch, winnerID, a.ID, b.ID)
	}

	next := run.clone()
	outcome := &MatchOutcome{
		Round:     run.CurrentRound,
		PairIndex: run.PairIndex,
		Winner:    winner,
		Loser:     loser,
		Phase:     PhaseAwaitingPick,
	}

	next.Selected = append(next.Selected, Selection{
		Round:     run.CurrentRound,
		PairIndex: run.PairIndex,
		WinnerID:  winner.ID,
		LoserID:   loser.ID,
		PickedAt:  pickedAt,
	})
	next.Winners = append(next.Winners, winner.ID)
	next.PairIndex++

	if next.PairIndex*2 < len(next.Contenders) {
		return next, outcome, nil
	}

	if len(next.Winners) == 1 {
		championID := next.Winners[0]
		next.ChampionID = &championID
		outcome.Phase = PhaseFinished
		return next, outcome, nil
	}

	next.Contenders = next.Winners
	next.Winners = []int{}
	next.PairIndex = 0
	next.CurrentRound++
	outcome.Phase = PhaseRoundComplete
	return next, outcome, nil
}
