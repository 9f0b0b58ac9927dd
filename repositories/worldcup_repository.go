package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/worldcup/models"
	"github.com/lib/pq"
)

var (
	ErrWorldcupNotFound      = errors.New("worldcup not found")
	ErrWorldcupAuthorInvalid = errors.New("worldcup author does not exist")
)

// ListWorldcupsFilter narrows the public catalogue.
type ListWorldcupsFilter struct {
	Keyword string
	Offset  int
	Limit   int
}

type WorldcupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, worldcup *models.Worldcup) error
	GetByID(ctx context.Context, id int) (*models.Worldcup, error)
	List(ctx context.Context, filter ListWorldcupsFilter) ([]models.Worldcup, error)
	ListByAuthor(ctx context.Context, authorID int) ([]models.Worldcup, error)
	ListKeywords(ctx context.Context) ([]string, error)
	IncrementPlays(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresWorldcupRepository struct {
	db *sql.DB
}

func NewPostgresWorldcupRepository(db *sql.DB) WorldcupRepository {
	return &postgresWorldcupRepository{db: db}
}

// Список дополнен количеством кандидатов и ключом первой картинки для превью.
const worldcupSelect = `
	SELECT w.id, w.title, w.slug, w.description, w.keywords, w.author_id, w.is_public, w.total_plays, w.created_at,
		(SELECT COUNT(*) FROM candidates c WHERE c.worldcup_id = w.id),
		(SELECT c.image_key FROM candidates c WHERE c.worldcup_id = w.id ORDER BY c.id LIMIT 1)
	FROM worldcups w`

func (r *postgresWorldcupRepository) Create(ctx context.Context, exec SQLExecutor, worldcup *models.Worldcup) error {
	executor := getExecutor(r.db, exec)
	query := `
		INSERT INTO worldcups (title, slug, description, keywords, author_id, is_public)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, total_plays, created_at`

	keywords := worldcup.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	err := executor.QueryRowContext(ctx, query,
		worldcup.Title,
		worldcup.Slug,
		worldcup.Description,
		pq.Array(keywords),
		worldcup.AuthorID,
		worldcup.IsPublic,
	).Scan(&worldcup.ID, &worldcup.TotalPlays, &worldcup.CreatedAt)
	if err != nil {
		if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return ErrWorldcupAuthorInvalid
		}
		return fmt.Errorf("failed to create worldcup: %w", err)
	}
	worldcup.Keywords = keywords
	return nil
}

func (r *postgresWorldcupRepository) GetByID(ctx context.Context, id int) (*models.Worldcup, error) {
	query := worldcupSelect + ` WHERE w.id = $1`
	worldcup, err := scanWorldcup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorldcupNotFound
		}
		return nil, fmt.Errorf("failed to get worldcup %d: %w", id, err)
	}
	return worldcup, nil
}

func (r *postgresWorldcupRepository) List(ctx context.Context, filter ListWorldcupsFilter) ([]models.Worldcup, error) {
	query := worldcupSelect + `
		WHERE w.is_public
		  AND ($1 = '' OR w.title ILIKE '%' || $1 || '%' OR $1 = ANY(w.keywords))
		ORDER BY w.total_plays DESC, w.id DESC
		OFFSET $2`
	args := []interface{}{filter.Keyword, filter.Offset}
	if filter.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list worldcups: %w", err)
	}
	defer rows.Close()
	return scanWorldcups(rows)
}

func (r *postgresWorldcupRepository) ListByAuthor(ctx context.Context, authorID int) ([]models.Worldcup, error) {
	query := worldcupSelect + ` WHERE w.author_id = $1 ORDER BY w.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worldcups of author %d: %w", authorID, err)
	}
	defer rows.Close()
	return scanWorldcups(rows)
}

func (r *postgresWorldcupRepository) ListKeywords(ctx context.Context) ([]string, error) {
	query := `
		SELECT kw FROM (
			SELECT unnest(keywords) AS kw, total_plays FROM worldcups WHERE is_public
		) k
		GROUP BY kw
		ORDER BY SUM(total_plays) DESC, kw`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	keywords := make([]string, 0)
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

func (r *postgresWorldcupRepository) IncrementPlays(ctx context.Context, exec SQLExecutor, id int) error {
	executor := getExecutor(r.db, exec)
	result, err := executor.ExecContext(ctx, `UPDATE worldcups SET total_plays = total_plays + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment plays of worldcup %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrWorldcupNotFound)
}

func (r *postgresWorldcupRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := getExecutor(r.db, exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM worldcups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete worldcup %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrWorldcupNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorldcup(row rowScanner) (*models.Worldcup, error) {
	var (
		w           models.Worldcup
		description sql.NullString
		thumbKey    sql.NullString
		keywords    pq.StringArray
	)
	err := row.Scan(&w.ID, &w.Title, &w.Slug, &description, &keywords, &w.AuthorID, &w.IsPublic,
		&w.TotalPlays, &w.CreatedAt, &w.CandidateCount, &thumbKey)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		w.Description = &description.String
	}
	if thumbKey.Valid {
		w.ThumbnailKey = thumbKey.String
	}
	w.Keywords = []string(keywords)
	if w.Keywords == nil {
		w.Keywords = []string{}
	}
	return &w, nil
}

func scanWorldcups(rows *sql.Rows) ([]models.Worldcup, error) {
	worldcups := make([]models.Worldcup, 0)
	for rows.Next() {
		w, err := scanWorldcup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worldcup: %w", err)
		}
		worldcups = append(worldcups, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worldcups: %w", err)
	}
	return worldcups, nil
}
