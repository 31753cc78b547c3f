package postgres

import (
	"context"
	"time"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

// completedExpr is the single completion predicate every report uses.
const completedExpr = "(e.completed_at IS NOT NULL OR e.progress >= 100)"

// MetricsPostgreSQL computes the reporting aggregates as group-by/join
// SQL so the full enrollment relation never crosses the wire.
type MetricsPostgreSQL struct {
	db *gorm.DB
}

func NewMetricsPostgreSQL(db *gorm.DB) repositories.MetricsRepository {
	return &MetricsPostgreSQL{db: db}
}

func (m *MetricsPostgreSQL) Overview(ctx context.Context, now time.Time) (*repositories.OverviewStats, error) {
	stats := &repositories.OverviewStats{}

	if err := m.db.WithContext(ctx).Model(&models.User{}).Count(&stats.UserCount).Error; err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Model(&models.Course{}).Count(&stats.CourseCount).Error; err != nil {
		return nil, err
	}

	// Total, completed and overdue in one faceted pass. The LEFT JOIN
	// keeps enrollments whose course row is gone out of the overdue
	// branch without dropping them from the totals.
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("COUNT(*), "+
			"COALESCE(SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END), 0), "+
			"COALESCE(SUM(CASE WHEN NOT "+completedExpr+" AND c.due_date < ? THEN 1 ELSE 0 END), 0), "+
			"COALESCE(AVG(CASE WHEN "+completedExpr+" THEN 100 ELSE e.progress END), 0)", now).
		Joins("LEFT JOIN courses c ON c.id = e.course_id").
		Row().
		Scan(&stats.Total, &stats.Completed, &stats.Overdue, &stats.AvgProgress)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (m *MetricsPostgreSQL) EnrollmentsByCourse(ctx context.Context, limit int) ([]*repositories.CourseCount, error) {
	var rows []*repositories.CourseCount
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("c.id AS course_id, c.title AS title, COUNT(*) AS count").
		Joins("JOIN courses c ON c.id = e.course_id").
		Group("c.id, c.title").
		Order("count DESC, c.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) CompletionRateByCourse(ctx context.Context, limit int) ([]*repositories.CourseCompletion, error) {
	var rows []*repositories.CourseCompletion
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("c.id AS course_id, c.title AS title, COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END), 0) AS completed").
		Joins("JOIN courses c ON c.id = e.course_id").
		Group("c.id, c.title").
		Order("total DESC, c.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) TeamPerformance(ctx context.Context) ([]*repositories.TeamCompletion, error) {
	var rows []*repositories.TeamCompletion
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("t.id AS team_id, t.name AS team, COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN " + completedExpr + " THEN 1 ELSE 0 END), 0) AS completed").
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN teams t ON t.id = u.team_id").
		Where("u.team_id IS NOT NULL").
		Group("t.id, t.name").
		Order("ROUND(100.0 * SUM(CASE WHEN " + completedExpr + " THEN 1 ELSE 0 END) / COUNT(*)) DESC, total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) OverdueByCourse(ctx context.Context, now time.Time) ([]*repositories.CourseCount, error) {
	var rows []*repositories.CourseCount
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("c.id AS course_id, c.title AS title, COUNT(*) AS count").
		Joins("JOIN courses c ON c.id = e.course_id").
		Where("NOT "+completedExpr+" AND c.due_date < ?", now).
		Group("c.id, c.title").
		Order("count DESC, c.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) TeamOverview(ctx context.Context, teamID uint, now time.Time) (*repositories.TeamOverviewStats, error) {
	stats := &repositories.TeamOverviewStats{}

	// Member count does not depend on enrollment existence.
	err := m.db.WithContext(ctx).
		Model(&models.User{}).
		Where("team_id = ?", teamID).
		Count(&stats.MemberCount).Error
	if err != nil {
		return nil, err
	}

	err = m.db.WithContext(ctx).
		Table("enrollments e").
		Select("COUNT(*), "+
			"COALESCE(SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END), 0), "+
			"COALESCE(SUM(CASE WHEN NOT "+completedExpr+" AND c.due_date < ? THEN 1 ELSE 0 END), 0), "+
			"COALESCE(AVG(CASE WHEN "+completedExpr+" THEN 100 ELSE e.progress END), 0)", now).
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("LEFT JOIN courses c ON c.id = e.course_id").
		Where("u.team_id = ?", teamID).
		Row().
		Scan(&stats.Total, &stats.Completed, &stats.Overdue, &stats.AvgProgress)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (m *MetricsPostgreSQL) TeamEnrollmentsByCourse(ctx context.Context, teamID uint, limit int) ([]*repositories.CourseCount, error) {
	var rows []*repositories.CourseCount
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("c.id AS course_id, c.title AS title, COUNT(*) AS count").
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN courses c ON c.id = e.course_id").
		Where("u.team_id = ?", teamID).
		Group("c.id, c.title").
		Order("count DESC, c.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) TeamCompletionRateByCourse(ctx context.Context, teamID uint, limit int) ([]*repositories.CourseCompletion, error) {
	var rows []*repositories.CourseCompletion
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("c.id AS course_id, c.title AS title, COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END), 0) AS completed").
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN courses c ON c.id = e.course_id").
		Where("u.team_id = ?", teamID).
		Group("c.id, c.title").
		Order("ROUND(100.0 * SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END) / COUNT(*)) DESC, total DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) TeamOverdueByCourse(ctx context.Context, teamID uint, now time.Time) ([]*repositories.CourseCount, error) {
	var rows []*repositories.CourseCount
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("c.id AS course_id, c.title AS title, COUNT(*) AS count").
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN courses c ON c.id = e.course_id").
		Where("u.team_id = ? AND NOT "+completedExpr+" AND c.due_date < ?", teamID, now).
		Group("c.id, c.title").
		Order("count DESC, c.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MetricsPostgreSQL) TeamUserPerformance(ctx context.Context, teamID uint, limit int) ([]*repositories.UserCompletion, error) {
	var rows []*repositories.UserCompletion
	err := m.db.WithContext(ctx).
		Table("enrollments e").
		Select("u.id AS user_id, COALESCE(NULLIF(u.name, ''), u.email) AS \"user\", COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END), 0) AS completed").
		Joins("JOIN users u ON u.id = e.user_id").
		Where("u.team_id = ?", teamID).
		Group("u.id, u.name, u.email").
		Order("ROUND(100.0 * SUM(CASE WHEN "+completedExpr+" THEN 1 ELSE 0 END) / COUNT(*)) DESC, total DESC, \"user\" ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
