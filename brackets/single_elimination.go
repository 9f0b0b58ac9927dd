package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// BracketMatch is one slot of the rendered bracket tree.
type BracketMatch struct {
	UID          string `json:"uid"`
	Round        int    `json:"round"`
	OrderInRound int    `json:"order_in_round"`

	Participant1ID *int `json:"participant1_id,omitempty"`
	Participant2ID *int `json:"participant2_id,omitempty"`

	SourceMatch1UID *string `json:"source_match1_uid,omitempty"`
	SourceMatch2UID *string `json:"source_match2_uid,omitempty"`

	WinnerID *int `json:"winner_id,omitempty"`

	IsPlaceholder bool `json:"is_placeholder"`
}

type node struct {
	participantID  *int
	sourceMatchUID *string
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket lays out every match of the run, filling in the picks made so far.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	run := params.Run
	if run == nil {
		return nil, errors.New("cannot generate bracket without a run")
	}
	if len(run.Candidates) != run.RoundSize || !IsAllowedRoundSize(run.RoundSize, run.RoundSize) {
		return nil, fmt.Errorf("%w: %d candidates for round size %d", ErrMalformedRun, len(run.Candidates), run.RoundSize)
	}

	winners := make(map[string]int, len(run.Selected))
	for _, sel := range run.Selected {
		winners[matchUID(sel.Round, sel.PairIndex+1)] = sel.WinnerID
	}

	currentRoundNodes := make([]*node, run.RoundSize)
	for i := range run.Candidates {
		pid := run.Candidates[i].ID
		currentRoundNodes[i] = &node{participantID: &pid}
	}

	numRounds := run.TotalRounds()
	allGeneratedMatches := make([]*BracketMatch, 0, run.RoundSize-1)

	for r := 1; r <= numRounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nextRoundNodes := make([]*node, 0, len(currentRoundNodes)/2)

		for i := 0; i < len(currentRoundNodes); i += 2 {
			node1 := currentRoundNodes[i]
			node2 := currentRoundNodes[i+1]
			order := i/2 + 1
			currentMatchUID := matchUID(r, order)

			bm := &BracketMatch{
				UID:             currentMatchUID,
				Round:           r,
				OrderInRound:    order,
				Participant1ID:  node1.participantID,
				Participant2ID:  node2.participantID,
				SourceMatch1UID: node1.sourceMatchUID,
				SourceMatch2UID: node2.sourceMatchUID,
				IsPlaceholder:   node1.participantID == nil || node2.participantID == nil,
			}

			next := &node{sourceMatchUID: &currentMatchUID}
			if winnerID, ok := winners[currentMatchUID]; ok {
				w := winnerID
				bm.WinnerID = &w
				next.participantID = &w
			}

			allGeneratedMatches = append(allGeneratedMatches, bm)
			nextRoundNodes = append(nextRoundNodes, next)
		}
		currentRoundNodes = nextRoundNodes
	}

	if len(currentRoundNodes) != 1 {
		return nil, fmt.Errorf("internal error: %d nodes left after %d rounds", len(currentRoundNodes), numRounds)
	}

	sort.Slice(allGeneratedMatches, func(i, j int) bool {
		if allGeneratedMatches[i].Round != allGeneratedMatches[j].Round {
			return allGeneratedMatches[i].Round < allGeneratedMatches[j].Round
		}
		return allGeneratedMatches[i].OrderInRound < allGeneratedMatches[j].OrderInRound
	})

	return allGeneratedMatches, nil
}

func matchUID(round, order int) string {
	return fmt.Sprintf("R%dM%d", round, order)
}
