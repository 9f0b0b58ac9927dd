package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Gender       *Gender   `json:"gender,omitempty"`
	BirthYear    *int      `json:"birth_year,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Demographic returns the bucket used when the voter does not state one.
func (u *User) Demographic(now time.Time) (Bucket, bool) {
	if u == nil {
		return "", false
	}
	if u.BirthYear != nil {
		return AgeBucketFor(*u.BirthYear, now), true
	}
	if u.Gender != nil {
		return ParseBucket(string(*u.Gender))
	}
	return "", false
}
