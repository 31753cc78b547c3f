package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
)

// KpiService reads KPI snapshot history and computes new snapshots. The
// scheduler calls SnapshotAll; the read paths back the KPI endpoints.
type KpiService interface {
	OrgHistory(ctx context.Context, actor authz.Principal) ([]*models.Kpi, error)
	TeamHistory(ctx context.Context, actor authz.Principal, teamID uint) ([]*models.Kpi, error)

	// SnapshotAll upserts one org-scope row and one row per team, keyed
	// by the first day of now's month. Re-running within the same month
	// overwrites the month's values.
	SnapshotAll(ctx context.Context, now time.Time) error
}

type kpiService struct {
	repo   repositories.Repository
	access *authz.Evaluator
	logger *slog.Logger
}

func NewKpiService(repo repositories.Repository, access *authz.Evaluator, logger *slog.Logger) KpiService {
	return &kpiService{
		repo:   repo,
		access: access,
		logger: logger,
	}
}

func (s *kpiService) OrgHistory(ctx context.Context, actor authz.Principal) ([]*models.Kpi, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	kpis, err := s.repo.Kpi().ListByScope(ctx, models.KpiScopeOrg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list org kpis: %w", err)
	}
	return kpis, nil
}

func (s *kpiService) TeamHistory(ctx context.Context, actor authz.Principal, teamID uint) ([]*models.Kpi, error) {
	if !s.access.CanViewTeam(actor, teamID) {
		return nil, ErrForbidden
	}
	if _, err := s.repo.Team().GetByID(ctx, teamID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	kpis, err := s.repo.Kpi().ListByScope(ctx, models.KpiScopeTeam, &teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team kpis: %w", err)
	}
	return kpis, nil
}

func (s *kpiService) SnapshotAll(ctx context.Context, now time.Time) error {
	date := firstOfMonth(now)

	if err := s.snapshotOrg(ctx, now, date); err != nil {
		return err
	}

	teams, err := s.repo.Team().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list teams for kpi snapshot: %w", err)
	}
	for _, team := range teams {
		if err := s.snapshotTeam(ctx, team, now, date); err != nil {
			// A single failing team does not abort the run.
			s.logger.Error("Failed to snapshot team kpi", "team_id", team.ID, "error", err)
		}
	}

	s.logger.Info("KPI snapshot complete", "date", date.Format("2006-01-02"), "teams", len(teams))
	return nil
}

func (s *kpiService) snapshotOrg(ctx context.Context, now, date time.Time) error {
	stats, err := s.repo.Metrics().Overview(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to compute org overview: %w", err)
	}

	teamRows, err := s.repo.Metrics().TeamPerformance(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute team performance: %w", err)
	}
	breakdown, err := kpiBreakdown(teamRows)
	if err != nil {
		return err
	}

	kpi := &models.Kpi{
		Scope:          models.KpiScopeOrg,
		Date:           date,
		CompletionRate: completionRate(stats.Completed, stats.Total),
		AvgProgress:    stats.AvgProgress,
		Breakdown:      breakdown,
	}
	if err := s.repo.Kpi().Upsert(ctx, kpi); err != nil {
		return fmt.Errorf("failed to upsert org kpi: %w", err)
	}
	return nil
}

func (s *kpiService) snapshotTeam(ctx context.Context, team *models.Team, now, date time.Time) error {
	stats, err := s.repo.Metrics().TeamOverview(ctx, team.ID, now)
	if err != nil {
		return fmt.Errorf("failed to compute team overview: %w", err)
	}

	courseRows, err := s.repo.Metrics().TeamCompletionRateByCourse(ctx, team.ID, topCoursesLimit)
	if err != nil {
		return fmt.Errorf("failed to compute team course completion: %w", err)
	}
	breakdown, err := kpiBreakdown(courseRows)
	if err != nil {
		return err
	}

	teamID := team.ID
	kpi := &models.Kpi{
		Scope:          models.KpiScopeTeam,
		ScopeRef:       &teamID,
		Date:           date,
		CompletionRate: completionRate(stats.Completed, stats.Total),
		AvgProgress:    stats.AvgProgress,
		Breakdown:      breakdown,
	}
	if err := s.repo.Kpi().Upsert(ctx, kpi); err != nil {
		return fmt.Errorf("failed to upsert team kpi: %w", err)
	}
	return nil
}

func kpiBreakdown(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kpi breakdown: %w", err)
	}
	return datatypes.JSON(b), nil
}

func firstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
