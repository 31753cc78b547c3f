package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"github.com/skilltrack/learning-service/internal/utils"
)

// AuthService verifies credentials and serves the caller's own profile.
// Lookup failures and password mismatches both surface as the same
// generic invalid-credentials error.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, actor authz.Principal, req UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, actor authz.Principal, req ChangePasswordRequest) error
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}

	user, err := s.repo.User().GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, actor authz.Principal, req UpdateProfileRequest) (*models.User, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthorized
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}

	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			taken, err := s.repo.User().ExistsByEmail(ctx, email, &user.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
			}
			if taken {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor authz.Principal, req ChangePasswordRequest) error {
	if actor.ID == 0 {
		return ErrUnauthorized
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return verrs
	}

	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", user.ID)
	return nil
}
