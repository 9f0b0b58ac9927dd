package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/worldcup/models"
)

var (
	// ErrMatchTokenUsed means a result with the same token was already recorded.
	ErrMatchTokenUsed      = errors.New("match token already recorded")
	ErrMatchResultNotFound = errors.New("match result not found")
)

type MatchResultRepository interface {
	Record(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error
	GetByToken(ctx context.Context, token string) (*models.MatchResult, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresMatchResultRepository struct {
	db *sql.DB
}

func NewPostgresMatchResultRepository(db *sql.DB) MatchResultRepository {
	return &postgresMatchResultRepository{db: db}
}

// Record inserts the receipt of a decided match. It must run in the same
// transaction as the counter increments it guards.
func (r *postgresMatchResultRepository) Record(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error {
	executor := getExecutor(r.db, exec)
	query := `
		INSERT INTO match_results (token, worldcup_id, winner_id, loser_id, kind, bucket)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token) DO NOTHING
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		result.Token,
		result.WorldcupID,
		result.WinnerID,
		result.LoserID,
		result.Kind,
		result.Bucket,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchTokenUsed
		}
		return fmt.Errorf("failed to record match result: %w", err)
	}
	return nil
}

func (r *postgresMatchResultRepository) GetByToken(ctx context.Context, token string) (*models.MatchResult, error) {
	query := `
		SELECT id, token, worldcup_id, winner_id, loser_id, kind, bucket, created_at
		FROM match_results
		WHERE token = $1`

	var result models.MatchResult
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&result.ID,
		&result.Token,
		&result.WorldcupID,
		&result.WinnerID,
		&result.LoserID,
		&result.Kind,
		&result.Bucket,
		&result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchResultNotFound
		}
		return nil, fmt.Errorf("failed to get match result by token: %w", err)
	}
	return &result, nil
}

func (r *postgresMatchResultRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM match_results WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge match results: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
