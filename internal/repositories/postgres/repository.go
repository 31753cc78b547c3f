package postgres

import (
	"context"

	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB

	user       repositories.UserRepository
	team       repositories.TeamRepository
	course     repositories.CourseRepository
	enrollment repositories.EnrollmentRepository
	kpi        repositories.KpiRepository
	metrics    repositories.MetricsRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:         db,
		user:       NewUserPostgreSQL(db),
		team:       NewTeamPostgreSQL(db),
		course:     NewCoursePostgreSQL(db),
		enrollment: NewEnrollmentPostgreSQL(db),
		kpi:        NewKpiPostgreSQL(db),
		metrics:    NewMetricsPostgreSQL(db),
	}
}

func (r *gormRepository) User() repositories.UserRepository             { return r.user }
func (r *gormRepository) Team() repositories.TeamRepository             { return r.team }
func (r *gormRepository) Course() repositories.CourseRepository         { return r.course }
func (r *gormRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *gormRepository) Kpi() repositories.KpiRepository               { return r.kpi }
func (r *gormRepository) Metrics() repositories.MetricsRepository       { return r.metrics }

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
