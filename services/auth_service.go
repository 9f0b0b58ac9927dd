package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/repositories"
	"github.com/Dosada05/worldcup/utils"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	GetProfile(ctx context.Context, userID int) (*models.User, error)
}

type RegisterInput struct {
	Email     string  `json:"email"`
	Nickname  string  `json:"nickname"`
	Password  string  `json:"password"`
	Gender    *string `json:"gender,omitempty"`
	BirthYear *int    `json:"birth_year,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	nickname := strings.TrimSpace(input.Nickname)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidationFailed)
	}
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", ErrValidationFailed)
	}
	if len(input.Password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	user := &models.User{
		Email:     email,
		Nickname:  nickname,
		BirthYear: input.BirthYear,
	}
	if input.Gender != nil && *input.Gender != "" {
		g := models.Gender(*input.Gender)
		if g != models.GenderMale && g != models.GenderFemale {
			return nil, fmt.Errorf("%w: gender must be male or female", ErrValidationFailed)
		}
		user.Gender = &g
	}
	if input.BirthYear != nil {
		year := *input.BirthYear
		if year < 1900 || year > s.now().Year() {
			return nil, fmt.Errorf("%w: birth year %d is out of range", ErrValidationFailed, year)
		}
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	user.PasswordHash = hashedPassword

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	ok, err := utils.CheckPasswordHash(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}
