package models

import "time"

// Worldcup представляет турнир-"кубок мира" с набором кандидатов.
type Worldcup struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	Keywords    []string  `json:"keywords" db:"keywords"`
	AuthorID    int       `json:"author_id" db:"author_id"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	TotalPlays  int       `json:"total_plays" db:"total_plays"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Заполняются сервисом
	CandidateCount int         `json:"candidate_count" db:"-"`
	ThumbnailKey   string      `json:"-" db:"-"`
	ThumbnailURL   *string     `json:"thumbnail_url,omitempty" db:"-"`
	Candidates     []Candidate `json:"candidates,omitempty" db:"-"`
}

type Comment struct {
	ID         int       `json:"id" db:"id"`
	WorldcupID int       `json:"worldcup_id" db:"worldcup_id"`
	UserID     int       `json:"user_id" db:"user_id"`
	Nickname   string    `json:"nickname" db:"-"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
