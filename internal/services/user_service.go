package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"github.com/skilltrack/learning-service/internal/utils"
)

// UserService is the admin-facing user management surface. Every
// operation requires an org-admin actor; listings never carry the
// credential hash.
type UserService interface {
	List(ctx context.Context, actor authz.Principal) ([]*models.User, error)
	Get(ctx context.Context, actor authz.Principal, id uint) (*models.User, error)
	Create(ctx context.Context, actor authz.Principal, req CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, actor authz.Principal, id uint, req UpdateUserRequest) (*models.User, error)
	// Delete removes the user. Enrollment records are kept unless the
	// caller explicitly asks for a cascade; the result reports how many
	// were removed.
	Delete(ctx context.Context, actor authz.Principal, id uint, cascade bool) (*UserDeleteResult, error)
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,user_role"`
	TeamID   *uint  `json:"team_id"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,user_role"`
	TeamID   *uint   `json:"team_id"`
	// ClearTeam detaches the user from their team; TeamID wins if both
	// are set.
	ClearTeam bool `json:"clear_team,omitempty"`
}

type UserDeleteResult struct {
	UserID             uint  `json:"user_id"`
	RemovedEnrollments int64 `json:"removed_enrollments"`
}

type userService struct {
	repo      repositories.Repository
	access    *authz.Evaluator
	logger    *slog.Logger
	validator *utils.Validator
}

func NewUserService(
	repo repositories.Repository,
	access *authz.Evaluator,
	logger *slog.Logger,
	validator *utils.Validator,
) UserService {
	return &userService{
		repo:      repo,
		access:    access,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) List(ctx context.Context, actor authz.Principal) ([]*models.User, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	users, err := s.repo.User().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, actor authz.Principal, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !s.access.CanViewUser(actor, user.ID, user.TeamID) {
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor authz.Principal, req CreateUserRequest) (*models.User, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}

	role := models.UserRole(req.Role)
	if s.access.Rank(role) < 0 {
		return nil, ErrInvalidRole
	}

	email := normalizeEmail(req.Email)
	taken, err := s.repo.User().ExistsByEmail(ctx, email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if req.TeamID != nil {
		if _, err := s.repo.Team().GetByID(ctx, *req.TeamID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		TeamID:       req.TeamID,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		// The unique index backs the optimistic check above.
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role, "created_by", actor.ID)
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor authz.Principal, id uint, req UpdateUserRequest) (*models.User, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}

	user, err := s.repo.User().GetByID(ctx, id)
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
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		if s.access.Rank(role) < 0 {
			return nil, ErrInvalidRole
		}
		user.Role = role
	}
	if req.TeamID != nil {
		if _, err := s.repo.Team().GetByID(ctx, *req.TeamID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
		user.TeamID = req.TeamID
	} else if req.ClearTeam {
		user.TeamID = nil
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Team = nil // force re-read of the association by callers that need it
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor authz.Principal, id uint, cascade bool) (*UserDeleteResult, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	result := &UserDeleteResult{UserID: user.ID}
	if cascade {
		removed, err := s.repo.Enrollment().DeleteByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete enrollments for user %d: %w", user.ID, err)
		}
		result.RemovedEnrollments = removed
	}

	if err := s.repo.User().Delete(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to delete user %d: %w", user.ID, err)
	}

	s.logger.Info("User deleted",
		"user_id", user.ID,
		"cascade", cascade,
		"removed_enrollments", result.RemovedEnrollments,
		"deleted_by", actor.ID)
	return result, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
