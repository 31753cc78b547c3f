package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
)

// MockRepository aggregates the per-entity mocks behind the Repository
// manager interface.
type MockRepository struct {
	UserRepo       *MockUserRepository
	TeamRepo       *MockTeamRepository
	CourseRepo     *MockCourseRepository
	EnrollmentRepo *MockEnrollmentRepository
	KpiRepo        *MockKpiRepository
	MetricsRepo    *MockMetricsRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		UserRepo:       &MockUserRepository{},
		TeamRepo:       &MockTeamRepository{},
		CourseRepo:     &MockCourseRepository{},
		EnrollmentRepo: &MockEnrollmentRepository{},
		KpiRepo:        &MockKpiRepository{},
		MetricsRepo:    &MockMetricsRepository{},
	}
}

func (r *MockRepository) User() repositories.UserRepository             { return r.UserRepo }
func (r *MockRepository) Team() repositories.TeamRepository             { return r.TeamRepo }
func (r *MockRepository) Course() repositories.CourseRepository         { return r.CourseRepo }
func (r *MockRepository) Enrollment() repositories.EnrollmentRepository { return r.EnrollmentRepo }
func (r *MockRepository) Kpi() repositories.KpiRepository               { return r.KpiRepo }
func (r *MockRepository) Metrics() repositories.MetricsRepository       { return r.MetricsRepo }
func (r *MockRepository) Ping(ctx context.Context) error                { return nil }
func (r *MockRepository) Close() error                                  { return nil }

// ===== USER =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string, excludeID *uint) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountByTeam(ctx context.Context, teamID uint) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) TeamEmployeeIDs(ctx context.Context, teamID uint, candidateIDs []uint) ([]uint, error) {
	args := m.Called(ctx, teamID, candidateIDs)
	if ids := args.Get(0); ids != nil {
		return ids.([]uint), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== TEAM =====

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*models.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.([]*models.Team), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTeamRepository) Create(ctx context.Context, team *models.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTeamRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// ===== COURSE =====

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Course), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCourseRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Course, error) {
	args := m.Called(ctx, ids)
	if c := args.Get(0); c != nil {
		return c.([]*models.Course), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]*models.Course), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ===== ENROLLMENT =====

type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	if e := args.Get(0); e != nil {
		return e.(*models.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error) {
	args := m.Called(ctx, userID)
	if e := args.Get(0); e != nil {
		return e.([]*models.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) DeleteByCourse(ctx context.Context, courseID uint) (int64, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEnrollmentRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEnrollmentRepository) EnrolledUserIDs(ctx context.Context, courseID uint, userIDs []uint) ([]uint, error) {
	args := m.Called(ctx, courseID, userIDs)
	if ids := args.Get(0); ids != nil {
		return ids.([]uint), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== KPI =====

type MockKpiRepository struct {
	mock.Mock
}

func (m *MockKpiRepository) Upsert(ctx context.Context, kpi *models.Kpi) error {
	args := m.Called(ctx, kpi)
	return args.Error(0)
}

func (m *MockKpiRepository) ListByScope(ctx context.Context, scope models.KpiScope, scopeRef *uint) ([]*models.Kpi, error) {
	args := m.Called(ctx, scope, scopeRef)
	if k := args.Get(0); k != nil {
		return k.([]*models.Kpi), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== METRICS =====

type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) Overview(ctx context.Context, now time.Time) (*repositories.OverviewStats, error) {
	args := m.Called(ctx, now)
	if s := args.Get(0); s != nil {
		return s.(*repositories.OverviewStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) EnrollmentsByCourse(ctx context.Context, limit int) ([]*repositories.CourseCount, error) {
	args := m.Called(ctx, limit)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.CourseCount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) CompletionRateByCourse(ctx context.Context, limit int) ([]*repositories.CourseCompletion, error) {
	args := m.Called(ctx, limit)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.CourseCompletion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) TeamPerformance(ctx context.Context) ([]*repositories.TeamCompletion, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.TeamCompletion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) OverdueByCourse(ctx context.Context, now time.Time) ([]*repositories.CourseCount, error) {
	args := m.Called(ctx, now)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.CourseCount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) TeamOverview(ctx context.Context, teamID uint, now time.Time) (*repositories.TeamOverviewStats, error) {
	args := m.Called(ctx, teamID, now)
	if s := args.Get(0); s != nil {
		return s.(*repositories.TeamOverviewStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) TeamEnrollmentsByCourse(ctx context.Context, teamID uint, limit int) ([]*repositories.CourseCount, error) {
	args := m.Called(ctx, teamID, limit)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.CourseCount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) TeamCompletionRateByCourse(ctx context.Context, teamID uint, limit int) ([]*repositories.CourseCompletion, error) {
	args := m.Called(ctx, teamID, limit)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.CourseCompletion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) TeamOverdueByCourse(ctx context.Context, teamID uint, now time.Time) ([]*repositories.CourseCount, error) {
	args := m.Called(ctx, teamID, now)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.CourseCount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricsRepository) TeamUserPerformance(ctx context.Context, teamID uint, limit int) ([]*repositories.UserCompletion, error) {
	args := m.Called(ctx, teamID, limit)
	if r := args.Get(0); r != nil {
		return r.([]*repositories.UserCompletion), args.Error(1)
	}
	return nil, args.Error(1)
}
