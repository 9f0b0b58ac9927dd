package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/ranking"
)

var (
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrCandidateKeyConflict  = errors.New("candidate image key already in use")
	ErrCandidateWorldcupGone = errors.New("candidate worldcup does not exist")
	ErrUnknownCounter        = errors.New("unknown counter")
)

type CandidateRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, candidates []*models.Candidate) error
	GetByID(ctx context.Context, id int) (*models.Candidate, error)
	GetByKey(ctx context.Context, key string) (*models.Candidate, error)
	ListByWorldcup(ctx context.Context, worldcupID int) ([]models.Candidate, error)
	ListStatsByWorldcup(ctx context.Context, worldcupID int) ([]models.CandidateStats, error)
	GetStats(ctx context.Context, id int) (*models.CandidateStats, error)
	Update(ctx context.Context, exec SQLExecutor, candidate *models.Candidate) error
	DeleteByKey(ctx context.Context, exec SQLExecutor, key string) error
	ApplyIntents(ctx context.Context, exec SQLExecutor, intents []ranking.CounterIntent) error
	ResetStats(ctx context.Context, exec SQLExecutor, worldcupID int) (int64, error)
}

type postgresCandidateRepository struct {
	db *sql.DB
}

func NewPostgresCandidateRepository(db *sql.DB) CandidateRepository {
	return &postgresCandidateRepository{db: db}
}

const candidateColumns = `id, worldcup_id, name, image_key, created_at`

var scalarCounterColumns = map[ranking.Counter]string{
	ranking.CounterShow:    "show_cnt",
	ranking.CounterWin:     "win_cnt",
	ranking.CounterVictory: "victory_cnt",
	ranking.CounterRuns:    "runs_cnt",
}

// Имена колонок берутся только из белого списка, пользовательский ввод в SQL не попадает.
func counterColumn(intent ranking.CounterIntent) (string, error) {
	if intent.Counter == ranking.CounterBucket {
		bucket, ok := models.ParseBucket(string(intent.Bucket))
		if !ok {
			return "", fmt.Errorf("%w: bucket %q", ErrUnknownCounter, intent.Bucket)
		}
		return string(bucket), nil
	}
	col, ok := scalarCounterColumns[intent.Counter]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCounter, intent.Counter)
	}
	return col, nil
}

func statsColumns() string {
	cols := []string{candidateColumns, "show_cnt", "win_cnt", "victory_cnt", "runs_cnt"}
	for _, b := range models.Buckets {
		cols = append(cols, string(b))
	}
	return strings.Join(cols, ", ")
}

func (r *postgresCandidateRepository) CreateBatch(ctx context.Context, exec SQLExecutor, candidates []*models.Candidate) error {
	executor := getExecutor(r.db, exec)
	query := `
		INSERT INTO candidates (worldcup_id, name, image_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	for _, c := range candidates {
		err := executor.QueryRowContext(ctx, query, c.WorldcupID, c.Name, c.ImageKey).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			return mapCandidateWriteError(err)
		}
	}
	return nil
}

func (r *postgresCandidateRepository) GetByID(ctx context.Context, id int) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	return scanCandidate(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCandidateRepository) GetByKey(ctx context.Context, key string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE image_key = $1`
	return scanCandidate(r.db.QueryRowContext(ctx, query, key))
}

func (r *postgresCandidateRepository) ListByWorldcup(ctx context.Context, worldcupID int) ([]models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE worldcup_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, worldcupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates of worldcup %d: %w", worldcupID, err)
	}
	defer rows.Close()

	candidates := make([]models.Candidate, 0)
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.WorldcupID, &c.Name, &c.ImageKey, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

// ListStatsByWorldcup returns counters in id order, which is the tie-break order of rankings.
func (r *postgresCandidateRepository) ListStatsByWorldcup(ctx context.Context, worldcupID int) ([]models.CandidateStats, error) {
	query := `SELECT ` + statsColumns() + ` FROM candidates WHERE worldcup_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, worldcupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats of worldcup %d: %w", worldcupID, err)
	}
	defer rows.Close()

	stats := make([]models.CandidateStats, 0)
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate stats: %w", err)
		}
		stats = append(stats, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate stats: %w", err)
	}
	return stats, nil
}

func (r *postgresCandidateRepository) GetStats(ctx context.Context, id int) (*models.CandidateStats, error) {
	query := `SELECT ` + statsColumns() + ` FROM candidates WHERE id = $1`
	s, err := scanStats(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to get stats of candidate %d: %w", id, err)
	}
	return s, nil
}

func (r *postgresCandidateRepository) Update(ctx context.Context, exec SQLExecutor, candidate *models.Candidate) error {
	executor := getExecutor(r.db, exec)
	query := `UPDATE candidates SET name = $1, image_key = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, candidate.Name, candidate.ImageKey, candidate.ID)
	if err != nil {
		return mapCandidateWriteError(err)
	}
	return checkAffectedRows(result, ErrCandidateNotFound)
}

func (r *postgresCandidateRepository) DeleteByKey(ctx context.Context, exec SQLExecutor, key string) error {
	executor := getExecutor(r.db, exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM candidates WHERE image_key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete candidate %q: %w", key, err)
	}
	return checkAffectedRows(result, ErrCandidateNotFound)
}

// ApplyIntents performs each increment as a single atomic UPDATE.
// Callers that need all-or-nothing semantics pass a *sql.Tx.
func (r *postgresCandidateRepository) ApplyIntents(ctx context.Context, exec SQLExecutor, intents []ranking.CounterIntent) error {
	executor := getExecutor(r.db, exec)
	for _, intent := range intents {
		col, err := counterColumn(intent)
		if err != nil {
			return err
		}
		query := fmt.Sprintf(`UPDATE candidates SET %[1]s = %[1]s + $1 WHERE id = $2`, col)
		result, err := executor.ExecContext(ctx, query, intent.Delta, intent.CandidateID)
		if err != nil {
			return fmt.Errorf("failed to increment %s of candidate %d: %w", col, intent.CandidateID, err)
		}
		if err := checkAffectedRows(result, ErrCandidateNotFound); err != nil {
			return fmt.Errorf("candidate %d: %w", intent.CandidateID, err)
		}
	}
	return nil
}

func (r *postgresCandidateRepository) ResetStats(ctx context.Context, exec SQLExecutor, worldcupID int) (int64, error) {
	executor := getExecutor(r.db, exec)
	sets := []string{"show_cnt = 0", "win_cnt = 0", "victory_cnt = 0", "runs_cnt = 0"}
	for _, b := range models.Buckets {
		sets = append(sets, string(b)+" = 0")
	}
	query := `UPDATE candidates SET ` + strings.Join(sets, ", ") + ` WHERE worldcup_id = $1`

	result, err := executor.ExecContext(ctx, query, worldcupID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stats of worldcup %d: %w", worldcupID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

func mapCandidateWriteError(err error) error {
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "candidates_image_key_key" {
		return ErrCandidateKeyConflict
	}
	if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
		return ErrCandidateWorldcupGone
	}
	return fmt.Errorf("failed to write candidate: %w", err)
}

func scanCandidate(row *sql.Row) (*models.Candidate, error) {
	var c models.Candidate
	if err := row.Scan(&c.ID, &c.WorldcupID, &c.Name, &c.ImageKey, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	return &c, nil
}

func scanStats(row rowScanner) (*models.CandidateStats, error) {
	var s models.CandidateStats
	bucketCounts := make([]int, len(models.Buckets))

	dest := []interface{}{
		&s.ID, &s.WorldcupID, &s.Name, &s.ImageKey, &s.CreatedAt,
		&s.ShowCount, &s.WinCount, &s.VictoryCount, &s.RunCount,
	}
	for i := range bucketCounts {
		dest = append(dest, &bucketCounts[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	s.Buckets = make(map[models.Bucket]int, len(models.Buckets))
	for i, b := range models.Buckets {
		s.Buckets[b] = bucketCounts[i]
	}
	return &s, nil
}
