package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/repositories"
)

const (
	maxCommentLength       = 500
	defaultCommentPageSize = 20
	maxCommentPageSize     = 100
)

type CommentService interface {
	List(ctx context.Context, worldcupID, offset, limit int) ([]models.Comment, error)
	Create(ctx context.Context, userID, worldcupID int, message string) (*models.Comment, error)
	Delete(ctx context.Context, userID, commentID int) error
}

type commentService struct {
	commentRepo  repositories.CommentRepository
	worldcupRepo repositories.WorldcupRepository
}

func NewCommentService(commentRepo repositories.CommentRepository, worldcupRepo repositories.WorldcupRepository) CommentService {
	return &commentService{commentRepo: commentRepo, worldcupRepo: worldcupRepo}
}

func (s *commentService) List(ctx context.Context, worldcupID, offset, limit int) ([]models.Comment, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultCommentPageSize
	}
	if limit > maxCommentPageSize {
		limit = maxCommentPageSize
	}
	if _, err := s.worldcupRepo.GetByID(ctx, worldcupID); err != nil {
		if errors.Is(err, repositories.ErrWorldcupNotFound) {
			return nil, ErrWorldcupNotFound
		}
		return nil, fmt.Errorf("failed to get worldcup %d: %w", worldcupID, err)
	}

	comments, err := s.commentRepo.ListByWorldcup(ctx, worldcupID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *commentService) Create(ctx context.Context, userID, worldcupID int, message string) (*models.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: comment must not be empty", ErrValidationFailed)
	}
	if utf8.RuneCountInString(message) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment is longer than %d characters", ErrValidationFailed, maxCommentLength)
	}

	comment := &models.Comment{WorldcupID: worldcupID, UserID: userID, Message: message}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrCommentTarget) {
			return nil, ErrWorldcupNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, userID, commentID int) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to get comment %d: %w", commentID, err)
	}
	if comment.UserID != userID {
		return ErrForbiddenOperation
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment %d: %w", commentID, err)
	}
	return nil
}
