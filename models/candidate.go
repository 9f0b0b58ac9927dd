package models

import "time"

// Candidate is an image entry eligible for matchups inside a worldcup.
type Candidate struct {
	ID         int       `json:"id" db:"id"`
	WorldcupID int       `json:"worldcup_id" db:"worldcup_id"`
	Name       string    `json:"name" db:"name"`
	ImageKey   string    `json:"key" db:"image_key"`
	ImageURL   *string   `json:"url,omitempty" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CandidateStats holds the monotonic counters of a candidate.
// WinCount <= ShowCount and VictoryCount <= RunCount always hold.
type CandidateStats struct {
	Candidate

	ShowCount    int            `json:"show_cnt" db:"show_cnt"`
	WinCount     int            `json:"win_cnt" db:"win_cnt"`
	VictoryCount int            `json:"victory_cnt" db:"victory_cnt"`
	RunCount     int            `json:"total" db:"runs_cnt"`
	Buckets      map[Bucket]int `json:"buckets" db:"-"`
}
