package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"github.com/skilltrack/learning-service/internal/utils"
)

type TeamService interface {
	List(ctx context.Context, actor authz.Principal) ([]*models.Team, error)
	Create(ctx context.Context, actor authz.Principal, req CreateTeamRequest) (*models.Team, error)
	Delete(ctx context.Context, actor authz.Principal, id uint) error
}

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type teamService struct {
	repo      repositories.Repository
	access    *authz.Evaluator
	logger    *slog.Logger
	validator *utils.Validator
}

func NewTeamService(
	repo repositories.Repository,
	access *authz.Evaluator,
	logger *slog.Logger,
	validator *utils.Validator,
) TeamService {
	return &teamService{
		repo:      repo,
		access:    access,
		logger:    logger,
		validator: validator,
	}
}

func (s *teamService) List(ctx context.Context, actor authz.Principal) ([]*models.Team, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthorized
	}
	teams, err := s.repo.Team().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) Create(ctx context.Context, actor authz.Principal, req CreateTeamRequest) (*models.Team, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}

	taken, err := s.repo.Team().ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}
	if taken {
		return nil, ErrTeamNameTaken
	}

	team := &models.Team{Name: req.Name}
	if err := s.repo.Team().Create(ctx, team); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrTeamNameTaken
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.logger.Info("Team created", "team_id", team.ID, "name", team.Name, "created_by", actor.ID)
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, actor authz.Principal, id uint) error {
	if !s.access.CanAdministerOrg(actor) {
		return ErrForbidden
	}

	if _, err := s.repo.Team().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team: %w", err)
	}

	// Members must be reassigned first so no user is left pointing at a
	// missing team.
	members, err := s.repo.User().CountByTeam(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count team members: %w", err)
	}
	if members > 0 {
		return ErrTeamNotEmpty
	}

	if err := s.repo.Team().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}

	s.logger.Info("Team deleted", "team_id", id, "deleted_by", actor.ID)
	return nil
}
