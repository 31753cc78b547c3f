package repositories

import (
	"context"
	"time"

	"github.com/skilltrack/learning-service/internal/models"
)

// Repository aggregates all entity repositories behind a single manager,
// so services depend on one constructor-injected value.
type Repository interface {
	User() UserRepository
	Team() TeamRepository
	Course() CourseRepository
	Enrollment() EnrollmentRepository
	Kpi() KpiRepository
	Metrics() MetricsRepository

	Ping(ctx context.Context) error
	Close() error
}

type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error

	ExistsByEmail(ctx context.Context, email string, excludeID *uint) (bool, error)
	CountByTeam(ctx context.Context, teamID uint) (int64, error)
	// TeamEmployeeIDs returns the subset of candidateIDs that are employees
	// of the given team. Used to restrict manager-scoped bulk lookups.
	TeamEmployeeIDs(ctx context.Context, teamID uint, candidateIDs []uint) ([]uint, error)
}

type TeamRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	Create(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id uint) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

type EnrollmentRepository interface {
	// Create inserts a new enrollment. A concurrent duplicate for the same
	// (user, course) pair surfaces as gorm.ErrDuplicatedKey, which callers
	// translate into a conflict outcome.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error

	DeleteByCourse(ctx context.Context, courseID uint) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) (int64, error)

	// EnrolledUserIDs returns the subset of userIDs holding an enrollment
	// for the course.
	EnrolledUserIDs(ctx context.Context, courseID uint, userIDs []uint) ([]uint, error)
}

type KpiRepository interface {
	// Upsert inserts the snapshot or replaces the values of an existing
	// row with the same (scope, scope_ref, date) key.
	Upsert(ctx context.Context, kpi *models.Kpi) error
	ListByScope(ctx context.Context, scope models.KpiScope, scopeRef *uint) ([]*models.Kpi, error)
}

// MetricsRepository computes the reporting aggregates as relational
// queries pushed to the store. Implementations must never materialize
// the full enrollment relation in process.
type MetricsRepository interface {
	Overview(ctx context.Context, now time.Time) (*OverviewStats, error)
	EnrollmentsByCourse(ctx context.Context, limit int) ([]*CourseCount, error)
	CompletionRateByCourse(ctx context.Context, limit int) ([]*CourseCompletion, error)
	TeamPerformance(ctx context.Context) ([]*TeamCompletion, error)
	OverdueByCourse(ctx context.Context, now time.Time) ([]*CourseCount, error)

	TeamOverview(ctx context.Context, teamID uint, now time.Time) (*TeamOverviewStats, error)
	TeamEnrollmentsByCourse(ctx context.Context, teamID uint, limit int) ([]*CourseCount, error)
	TeamCompletionRateByCourse(ctx context.Context, teamID uint, limit int) ([]*CourseCompletion, error)
	TeamOverdueByCourse(ctx context.Context, teamID uint, now time.Time) ([]*CourseCount, error)
	TeamUserPerformance(ctx context.Context, teamID uint, limit int) ([]*UserCompletion, error)
}

// ===== AGGREGATE ROW STRUCTS =====

type OverviewStats struct {
	UserCount   int64 `json:"user_count"`
	CourseCount int64 `json:"course_count"`
	Total       int64 `json:"total"`
	Completed   int64 `json:"completed"`
	Overdue     int64 `json:"overdue"`
	// AvgProgress treats a completed enrollment as 100 regardless of its
	// stored progress value.
	AvgProgress float64 `json:"avg_progress"`
}

type TeamOverviewStats struct {
	MemberCount int64   `json:"member_count"`
	Total       int64   `json:"total"`
	Completed   int64   `json:"completed"`
	Overdue     int64   `json:"overdue"`
	AvgProgress float64 `json:"avg_progress"`
}

type CourseCount struct {
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	Count    int64  `json:"count"`
}

type CourseCompletion struct {
	CourseID  uint   `json:"course_id"`
	Title     string `json:"title"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

type TeamCompletion struct {
	TeamID    uint   `json:"team_id"`
	Team      string `json:"team"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

type UserCompletion struct {
	UserID    uint   `json:"user_id"`
	User      string `json:"user"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}
