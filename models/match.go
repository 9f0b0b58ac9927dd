package models

import "time"

type MatchKind string

const (
	MatchKindRound MatchKind = "round"
	MatchKindFinal MatchKind = "final"
)

// MatchResult is the persisted receipt of one applied match decision.
// Token is unique, so replaying the same decision is detected by the store.
type MatchResult struct {
	ID         int       `json:"id" db:"id"`
	Token      string    `json:"token" db:"token"`
	WorldcupID *int      `json:"worldcup_id,omitempty" db:"worldcup_id"`
	WinnerID   int       `json:"winner_id" db:"winner_id"`
	LoserID    int       `json:"loser_id" db:"loser_id"`
	Kind       MatchKind `json:"kind" db:"kind"`
	Bucket     *Bucket   `json:"bucket,omitempty" db:"bucket"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
