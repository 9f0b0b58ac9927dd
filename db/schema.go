package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    nickname TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    gender TEXT CHECK (gender IN ('male', 'female')),
    birth_year INT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS worldcups (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL,
    description TEXT,
    keywords TEXT[] NOT NULL DEFAULT '{}',
    author_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    is_public BOOLEAN NOT NULL DEFAULT TRUE,
    total_plays INT NOT NULL DEFAULT 0 CHECK (total_plays >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_worldcups_keywords ON worldcups USING GIN (keywords);
CREATE INDEX IF NOT EXISTS idx_worldcups_author ON worldcups(author_id);

CREATE TABLE IF NOT EXISTS candidates (
    id SERIAL PRIMARY KEY,
    worldcup_id INT NOT NULL REFERENCES worldcups(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    image_key TEXT NOT NULL,
    show_cnt INT NOT NULL DEFAULT 0 CHECK (show_cnt >= 0),
    win_cnt INT NOT NULL DEFAULT 0 CHECK (win_cnt >= 0),
    victory_cnt INT NOT NULL DEFAULT 0 CHECK (victory_cnt >= 0),
    runs_cnt INT NOT NULL DEFAULT 0 CHECK (runs_cnt >= 0),
    male INT NOT NULL DEFAULT 0,
    female INT NOT NULL DEFAULT 0,
    teens INT NOT NULL DEFAULT 0,
    twenties INT NOT NULL DEFAULT 0,
    thirties INT NOT NULL DEFAULT 0,
    forties INT NOT NULL DEFAULT 0,
    etc INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT candidates_image_key_key UNIQUE (image_key)
);

CREATE INDEX IF NOT EXISTS idx_candidates_worldcup ON candidates(worldcup_id);

CREATE TABLE IF NOT EXISTS match_results (
    id SERIAL PRIMARY KEY,
    token TEXT NOT NULL,
    worldcup_id INT REFERENCES worldcups(id) ON DELETE CASCADE,
    winner_id INT NOT NULL,
    loser_id INT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('round', 'final')),
    bucket TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT match_results_token_key UNIQUE (token)
);

CREATE INDEX IF NOT EXISTS idx_match_results_created ON match_results(created_at);

CREATE TABLE IF NOT EXISTS comments (
    id SERIAL PRIMARY KEY,
    worldcup_id INT NOT NULL REFERENCES worldcups(id) ON DELETE CASCADE,
    user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    message TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_comments_worldcup ON comments(worldcup_id, created_at DESC);
`
