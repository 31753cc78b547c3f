package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/events"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
)

// EnrollmentService creates and mutates enrollment records, enforcing
// at-most-one enrollment per (user, course) and scope checks before
// every mutation.
type EnrollmentService interface {
	Assign(ctx context.Context, actor authz.Principal, targetUserID, courseID uint) (*EnrollmentResult, error)
	EnrollSelf(ctx context.Context, actor authz.Principal, courseID uint) (*EnrollmentResult, error)
	SetProgress(ctx context.Context, actor authz.Principal, courseID uint, progress int) (*models.Enrollment, error)
	MarkCompleted(ctx context.Context, actor authz.Principal, courseID uint, completed bool) (*models.Enrollment, error)
	ListForUser(ctx context.Context, actor authz.Principal, targetUserID uint) ([]*EnrollmentWithCourse, error)
	CheckStatus(ctx context.Context, actor authz.Principal, courseID uint, candidateUserIDs []uint) (*StatusCheckResult, error)
}

// EnrollmentResult carries the enrollment plus an idempotence flag:
// AlreadyEnrolled means the record existed before the call, which callers
// treat as a conflict signal rather than an error.
type EnrollmentResult struct {
	Enrollment      *models.Enrollment `json:"enrollment"`
	AlreadyEnrolled bool               `json:"already_enrolled"`
}

// CourseSummary is the course projection attached to enrollment listings.
type CourseSummary struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Hours    float64   `json:"hours"`
	DueDate  time.Time `json:"due_date"`
	ImageURL string    `json:"image_url,omitempty"`
}

// EnrollmentWithCourse joins an enrollment with its course summary. Course
// is nil when the referenced course has been deleted.
type EnrollmentWithCourse struct {
	Enrollment *models.Enrollment `json:"enrollment"`
	Course     *CourseSummary     `json:"course,omitempty"`
}

// StatusCheckResult reports which candidate users hold an enrollment for a
// course. CheckedCount is the candidate set size after team restriction and
// can be smaller than the input length.
type StatusCheckResult struct {
	EnrolledUserIDs []uint `json:"enrolled_user_ids"`
	CheckedCount    int    `json:"checked_count"`
}

type enrollmentService struct {
	repo      repositories.Repository
	access    *authz.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewEnrollmentService(
	repo repositories.Repository,
	access *authz.Evaluator,
	publisher events.EventPublisher,
	logger *slog.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		access:    access,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *enrollmentService) Assign(ctx context.Context, actor authz.Principal, targetUserID, courseID uint) (*EnrollmentResult, error) {
	target, err := s.repo.User().GetByID(ctx, targetUserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get target user: %w", err)
	}

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if target.Role != models.RoleEmployee {
		return nil, ErrNotAssignable
	}
	if !s.access.CanAssignCourse(actor, target.Role, target.TeamID) {
		return nil, ErrForbidden
	}

	result, err := s.createUnique(ctx, target.ID, course.ID)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyEnrolled {
		s.publish(ctx, events.NewLearningEvent(events.EventEnrollmentAssigned, events.EnrollmentAssignedEvent{
			EnrollmentID: result.Enrollment.ID,
			UserID:       target.ID,
			CourseID:     course.ID,
			CourseTitle:  course.Title,
			DueDate:      course.DueDate,
			AssignedBy:   actor.ID,
		}))
	}

	return result, nil
}

func (s *enrollmentService) EnrollSelf(ctx context.Context, actor authz.Principal, courseID uint) (*EnrollmentResult, error) {
	if !s.access.CanSelfEnroll(actor) {
		return nil, ErrSelfEnrollDenied
	}

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	result, err := s.createUnique(ctx, actor.ID, course.ID)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyEnrolled {
		s.publish(ctx, events.NewLearningEvent(events.EventEnrollmentSelfEnrolled, events.EnrollmentSelfEnrolledEvent{
			EnrollmentID: result.Enrollment.ID,
			UserID:       actor.ID,
			CourseID:     course.ID,
			CourseTitle:  course.Title,
			DueDate:      course.DueDate,
		}))
	}

	return result, nil
}

// createUnique pairs the optimistic existence check with the store's
// uniqueness constraint. A concurrent duplicate insert surfaces as a
// duplicate-key error and is translated into the same conflict result the
// optimistic path produces, so racing callers see exactly one created row.
func (s *enrollmentService) createUnique(ctx context.Context, userID, courseID uint) (*EnrollmentResult, error) {
	existing, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return &EnrollmentResult{Enrollment: existing, AlreadyEnrolled: true}, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}

	enrollment := &models.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Progress: 0,
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			winner, ferr := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
			if ferr != nil {
				return nil, fmt.Errorf("failed to load enrollment after duplicate insert: %w", ferr)
			}
			return &EnrollmentResult{Enrollment: winner, AlreadyEnrolled: true}, nil
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return &EnrollmentResult{Enrollment: enrollment}, nil
}

func (s *enrollmentService) SetProgress(ctx context.Context, actor authz.Principal, courseID uint, progress int) (*models.Enrollment, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthorized
	}
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, actor.ID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	enrollment.Progress = progress
	if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to update enrollment progress: %w", err)
	}

	return enrollment, nil
}

func (s *enrollmentService) MarkCompleted(ctx context.Context, actor authz.Principal, courseID uint, completed bool) (*models.Enrollment, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthorized
	}

	enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, actor.ID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if completed {
		now := time.Now().UTC()
		enrollment.CompletedAt = &now
		enrollment.Progress = 100
	} else {
		// Reopening clears the completion mark; progress stays as stored.
		enrollment.CompletedAt = nil
	}

	if err := s.repo.Enrollment().Update(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to update enrollment completion: %w", err)
	}

	if completed {
		s.publish(ctx, events.NewLearningEvent(events.EventEnrollmentCompleted, events.EnrollmentCompletedEvent{
			EnrollmentID: enrollment.ID,
			UserID:       enrollment.UserID,
			CourseID:     enrollment.CourseID,
			CompletedAt:  *enrollment.CompletedAt,
			Progress:     enrollment.Progress,
		}))
	}

	return enrollment, nil
}

func (s *enrollmentService) ListForUser(ctx context.Context, actor authz.Principal, targetUserID uint) ([]*EnrollmentWithCourse, error) {
	target, err := s.repo.User().GetByID(ctx, targetUserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get target user: %w", err)
	}

	if !s.access.CanViewUser(actor, target.ID, target.TeamID) {
		return nil, ErrForbidden
	}

	enrollments, err := s.repo.Enrollment().ListByUser(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []*EnrollmentWithCourse{}, nil
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	courses, err := s.repo.Course().GetByIDs(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}
	byID := make(map[uint]*models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	// A missing course (deleted after enrollment) degrades to a nil
	// summary instead of failing the listing.
	out := make([]*EnrollmentWithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		item := &EnrollmentWithCourse{Enrollment: e}
		if c, ok := byID[e.CourseID]; ok {
			item.Course = &CourseSummary{
				ID:       c.ID,
				Title:    c.Title,
				Category: c.Category,
				Hours:    c.Hours,
				DueDate:  c.DueDate,
				ImageURL: c.ImageURL,
			}
		}
		out = append(out, item)
	}

	return out, nil
}

func (s *enrollmentService) CheckStatus(ctx context.Context, actor authz.Principal, courseID uint, candidateUserIDs []uint) (*StatusCheckResult, error) {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	var checked []uint
	switch {
	case s.access.CanAdministerOrg(actor):
		checked = candidateUserIDs
	case actor.Role == models.RoleManager && actor.TeamID != nil:
		// Managers may only probe their own team's employees.
		restricted, err := s.repo.User().TeamEmployeeIDs(ctx, *actor.TeamID, candidateUserIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to restrict candidates to team: %w", err)
		}
		checked = restricted
	default:
		return nil, ErrForbidden
	}

	result := &StatusCheckResult{
		EnrolledUserIDs: []uint{},
		CheckedCount:    len(checked),
	}
	if len(checked) == 0 {
		return result, nil
	}

	enrolled, err := s.repo.Enrollment().EnrolledUserIDs(ctx, courseID, checked)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment status: %w", err)
	}
	if enrolled != nil {
		result.EnrolledUserIDs = enrolled
	}

	return result, nil
}

// publish is best-effort: a broker outage must not fail the originating
// request.
func (s *enrollmentService) publish(ctx context.Context, event *events.LearningEvent) {
	if err := s.publisher.PublishLearningEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
