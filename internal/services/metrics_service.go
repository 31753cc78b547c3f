package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/repositories"
)

const (
	topCoursesLimit = 10
	topUsersLimit   = 20
)

// MetricsService exposes the read-only completion and overdue reports at
// organization and team scope. All aggregation runs inside the store; the
// service only authorizes, attaches rates, and shapes the rows.
type MetricsService interface {
	Overview(ctx context.Context, actor authz.Principal) (*OverviewReport, error)
	EnrollmentsByCourse(ctx context.Context, actor authz.Principal) ([]*repositories.CourseCount, error)
	CompletionRateByCourse(ctx context.Context, actor authz.Principal) ([]*CourseCompletionReport, error)
	TeamPerformance(ctx context.Context, actor authz.Principal) ([]*TeamPerformanceReport, error)
	OverdueByCourse(ctx context.Context, actor authz.Principal) ([]*repositories.CourseCount, error)

	TeamOverview(ctx context.Context, actor authz.Principal, teamID uint) (*TeamOverviewReport, error)
	TeamEnrollmentsByCourse(ctx context.Context, actor authz.Principal, teamID uint) ([]*repositories.CourseCount, error)
	TeamCompletionRateByCourse(ctx context.Context, actor authz.Principal, teamID uint) ([]*CourseCompletionReport, error)
	TeamOverdueByCourse(ctx context.Context, actor authz.Principal, teamID uint) ([]*repositories.CourseCount, error)
	TeamUserPerformance(ctx context.Context, actor authz.Principal, teamID uint) ([]*UserPerformanceReport, error)
}

type OverviewReport struct {
	UserCount        int64 `json:"user_count"`
	CourseCount      int64 `json:"course_count"`
	TotalEnrollments int64 `json:"total_enrollments"`
	CompletionRate   int   `json:"completion_rate"`
	OverdueCount     int64 `json:"overdue_count"`
}

type TeamOverviewReport struct {
	MemberCount      int64 `json:"member_count"`
	TotalEnrollments int64 `json:"total_enrollments"`
	CompletionRate   int   `json:"completion_rate"`
	OverdueCount     int64 `json:"overdue_count"`
}

type CourseCompletionReport struct {
	CourseID  uint   `json:"course_id"`
	Title     string `json:"title"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Rate      int    `json:"rate"`
}

type TeamPerformanceReport struct {
	TeamID    uint   `json:"team_id"`
	Team      string `json:"team"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Rate      int    `json:"rate"`
}

type UserPerformanceReport struct {
	UserID    uint   `json:"user_id"`
	User      string `json:"user"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Rate      int    `json:"rate"`
}

type metricsService struct {
	repo   repositories.Repository
	access *authz.Evaluator
	logger *slog.Logger
	now    func() time.Time
}

func NewMetricsService(repo repositories.Repository, access *authz.Evaluator, logger *slog.Logger) MetricsService {
	return &metricsService{
		repo:   repo,
		access: access,
		logger: logger,
		now:    time.Now,
	}
}

// completionRate computes round(completed/total*100) with 0 total mapping
// to 0. Every rate in every report goes through here.
func completionRate(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// unavailable wraps a store failure so callers can classify it. Read
// reports never degrade to zeroed results.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMetricsUnavailable, op, err)
}

// ===== ORGANIZATION SCOPE =====

func (s *metricsService) Overview(ctx context.Context, actor authz.Principal) (*OverviewReport, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	stats, err := s.repo.Metrics().Overview(ctx, s.now())
	if err != nil {
		return nil, unavailable("overview", err)
	}

	return &OverviewReport{
		UserCount:        stats.UserCount,
		CourseCount:      stats.CourseCount,
		TotalEnrollments: stats.Total,
		CompletionRate:   completionRate(stats.Completed, stats.Total),
		OverdueCount:     stats.Overdue,
	}, nil
}

func (s *metricsService) EnrollmentsByCourse(ctx context.Context, actor authz.Principal) ([]*repositories.CourseCount, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	rows, err := s.repo.Metrics().EnrollmentsByCourse(ctx, topCoursesLimit)
	if err != nil {
		return nil, unavailable("enrollments by course", err)
	}
	return rows, nil
}

func (s *metricsService) CompletionRateByCourse(ctx context.Context, actor authz.Principal) ([]*CourseCompletionReport, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	rows, err := s.repo.Metrics().CompletionRateByCourse(ctx, topCoursesLimit)
	if err != nil {
		return nil, unavailable("completion rate by course", err)
	}
	return courseCompletionReports(rows), nil
}

func (s *metricsService) TeamPerformance(ctx context.Context, actor authz.Principal) ([]*TeamPerformanceReport, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	rows, err := s.repo.Metrics().TeamPerformance(ctx)
	if err != nil {
		return nil, unavailable("team performance", err)
	}

	out := make([]*TeamPerformanceReport, 0, len(rows))
	for _, r := range rows {
		out = append(out, &TeamPerformanceReport{
			TeamID:    r.TeamID,
			Team:      r.Team,
			Total:     r.Total,
			Completed: r.Completed,
			Rate:      completionRate(r.Completed, r.Total),
		})
	}
	return out, nil
}

func (s *metricsService) OverdueByCourse(ctx context.Context, actor authz.Principal) ([]*repositories.CourseCount, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	rows, err := s.repo.Metrics().OverdueByCourse(ctx, s.now())
	if err != nil {
		return nil, unavailable("overdue by course", err)
	}
	return rows, nil
}

// ===== TEAM SCOPE =====

func (s *metricsService) TeamOverview(ctx context.Context, actor authz.Principal, teamID uint) (*TeamOverviewReport, error) {
	if err := s.authorizeTeam(ctx, actor, teamID); err != nil {
		return nil, err
	}

	stats, err := s.repo.Metrics().TeamOverview(ctx, teamID, s.now())
	if err != nil {
		return nil, unavailable("team overview", err)
	}

	return &TeamOverviewReport{
		MemberCount:      stats.MemberCount,
		TotalEnrollments: stats.Total,
		CompletionRate:   completionRate(stats.Completed, stats.Total),
		OverdueCount:     stats.Overdue,
	}, nil
}

func (s *metricsService) TeamEnrollmentsByCourse(ctx context.Context, actor authz.Principal, teamID uint) ([]*repositories.CourseCount, error) {
	if err := s.authorizeTeam(ctx, actor, teamID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Metrics().TeamEnrollmentsByCourse(ctx, teamID, topCoursesLimit)
	if err != nil {
		return nil, unavailable("team enrollments by course", err)
	}
	return rows, nil
}

func (s *metricsService) TeamCompletionRateByCourse(ctx context.Context, actor authz.Principal, teamID uint) ([]*CourseCompletionReport, error) {
	if err := s.authorizeTeam(ctx, actor, teamID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Metrics().TeamCompletionRateByCourse(ctx, teamID, topCoursesLimit)
	if err != nil {
		return nil, unavailable("team completion rate by course", err)
	}
	return courseCompletionReports(rows), nil
}

func (s *metricsService) TeamOverdueByCourse(ctx context.Context, actor authz.Principal, teamID uint) ([]*repositories.CourseCount, error) {
	if err := s.authorizeTeam(ctx, actor, teamID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Metrics().TeamOverdueByCourse(ctx, teamID, s.now())
	if err != nil {
		return nil, unavailable("team overdue by course", err)
	}
	return rows, nil
}

func (s *metricsService) TeamUserPerformance(ctx context.Context, actor authz.Principal, teamID uint) ([]*UserPerformanceReport, error) {
	if err := s.authorizeTeam(ctx, actor, teamID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Metrics().TeamUserPerformance(ctx, teamID, topUsersLimit)
	if err != nil {
		return nil, unavailable("team user performance", err)
	}

	out := make([]*UserPerformanceReport, 0, len(rows))
	for _, r := range rows {
		out = append(out, &UserPerformanceReport{
			UserID:    r.UserID,
			User:      r.User,
			Total:     r.Total,
			Completed: r.Completed,
			Rate:      completionRate(r.Completed, r.Total),
		})
	}
	return out, nil
}

func (s *metricsService) authorizeTeam(ctx context.Context, actor authz.Principal, teamID uint) error {
	if !s.access.CanViewTeam(actor, teamID) {
		return ErrForbidden
	}
	if _, err := s.repo.Team().GetByID(ctx, teamID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTeamNotFound
		}
		return unavailable("team lookup", err)
	}
	return nil
}

func courseCompletionReports(rows []*repositories.CourseCompletion) []*CourseCompletionReport {
	out := make([]*CourseCompletionReport, 0, len(rows))
	for _, r := range rows {
		out = append(out, &CourseCompletionReport{
			CourseID:  r.CourseID,
			Title:     r.Title,
			Total:     r.Total,
			Completed: r.Completed,
			Rate:      completionRate(r.Completed, r.Total),
		})
	}
	return out
}
