// Package ranking turns match decisions into counter increments and counters into rankings.
package ranking

import (
	"errors"
	"fmt"

	"github.com/Dosada05/worldcup/models"
)

var (
	ErrSelfMatch     = errors.New("winner and loser must be different candidates")
	ErrUnknownBucket = errors.New("unknown demographic bucket")
)

// Counter names one monotonic column of a candidate's stats.
type Counter string

const (
	CounterShow    Counter = "show"
	CounterWin     Counter = "win"
	CounterVictory Counter = "victory"
	CounterRuns    Counter = "runs"
	CounterBucket  Counter = "bucket"
)

// CounterIntent is an atomic increment the store must apply exactly once.
type CounterIntent struct {
	CandidateID int           `json:"candidate_id"`
	Counter     Counter       `json:"counter"`
	Bucket      models.Bucket `json:"bucket,omitempty"`
	Delta       int           `json:"delta"`
}

func increment(candidateID int, counter Counter) CounterIntent {
	return CounterIntent{CandidateID: candidateID, Counter: counter, Delta: 1}
}

// ResolveMatch emits the increments for one decided 1:1 match.
// demographic may be empty when the voter is unknown.
func ResolveMatch(winner, loser models.Candidate, demographic models.Bucket) ([]CounterIntent, error) {
	if winner.ID == loser.ID {
		return nil, fmt.Errorf("%w: candidate %d", ErrSelfMatch, winner.ID)
	}

	intents := []CounterIntent{
		increment(winner.ID, CounterShow),
		increment(winner.ID, CounterWin),
		increment(loser.ID, CounterShow),
	}

	if demographic != "" {
		bucket, ok := models.ParseBucket(string(demographic))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBucket, demographic)
		}
		intents = append(intents, CounterIntent{
			CandidateID: winner.ID,
			Counter:     CounterBucket,
			Bucket:      bucket,
			Delta:       1,
		})
	}
	return intents, nil
}

// ResolveChampion is applied once per completed run, for the final winner only.
func ResolveChampion(champion models.Candidate) []CounterIntent {
	return []CounterIntent{increment(champion.ID, CounterVictory)}
}

// ResolveParticipation counts one completed run for every distinct participant.
func ResolveParticipation(participantIDs []int) []CounterIntent {
	seen := make(map[int]struct{}, len(participantIDs))
	intents := make([]CounterIntent, 0, len(participantIDs))
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		intents = append(intents, increment(id, CounterRuns))
	}
	return intents
}
