package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/worldcup/models"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentTarget   = errors.New("comment worldcup or user does not exist")
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	ListByWorldcup(ctx context.Context, worldcupID, offset, limit int) ([]models.Comment, error)
	Delete(ctx context.Context, id int) error
}

type postgresCommentRepository struct {
	db *sql.DB
}

func NewPostgresCommentRepository(db *sql.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

func (r *postgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		WITH inserted AS (
			INSERT INTO comments (worldcup_id, user_id, message)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, created_at
		)
		SELECT i.id, i.created_at, u.nickname
		FROM inserted i JOIN users u ON u.id = i.user_id`

	err := r.db.QueryRowContext(ctx, query, comment.WorldcupID, comment.UserID, comment.Message).
		Scan(&comment.ID, &comment.CreatedAt, &comment.Nickname)
	if err != nil {
		if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return ErrCommentTarget
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *postgresCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	query := `
		SELECT c.id, c.worldcup_id, c.user_id, u.nickname, c.message, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`

	var c models.Comment
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.WorldcupID, &c.UserID, &c.Nickname, &c.Message, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresCommentRepository) ListByWorldcup(ctx context.Context, worldcupID, offset, limit int) ([]models.Comment, error) {
	query := `
		SELECT c.id, c.worldcup_id, c.user_id, u.nickname, c.message, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.worldcup_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, worldcupID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of worldcup %d: %w", worldcupID, err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.WorldcupID, &c.UserID, &c.Nickname, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func (r *postgresCommentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCommentNotFound)
}
