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
	"github.com/skilltrack/learning-service/internal/utils"
)

const (
	defaultCourseCategory = "General"
	defaultDueDateOffset  = 30 * 24 * time.Hour

	// maxThumbnailBytes caps inline data-URL thumbnails at 1 MiB.
	maxThumbnailBytes = 1 << 20
)

type CourseService interface {
	List(ctx context.Context, actor authz.Principal) ([]*models.Course, error)
	Create(ctx context.Context, actor authz.Principal, req CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, actor authz.Principal, id uint, req UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor authz.Principal, id uint) (*CourseDeleteResult, error)
	BulkDelete(ctx context.Context, actor authz.Principal, ids []uint) (*BulkDeleteResult, error)
}

type CreateCourseRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Category    string     `json:"category" validate:"max=100"`
	Hours       float64    `json:"hours" validate:"gte=0"`
	DueDate     *time.Time `json:"due_date"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
}

type UpdateCourseRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Category    *string    `json:"category" validate:"omitempty,max=100"`
	Hours       *float64   `json:"hours" validate:"omitempty,gte=0"`
	DueDate     *time.Time `json:"due_date"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
}

// CourseDeleteResult reports the cascade: deleting a course removes every
// enrollment referencing it.
type CourseDeleteResult struct {
	CourseID           uint  `json:"course_id"`
	RemovedEnrollments int64 `json:"removed_enrollments"`
}

// BulkDeleteResult is a per-item summary. Bulk deletion is not
// transactional; a failed item never rolls back the others.
type BulkDeleteResult struct {
	Deleted int              `json:"deleted"`
	Failed  int              `json:"failed"`
	Items   []BulkDeleteItem `json:"items"`
}

type BulkDeleteItem struct {
	CourseID           uint   `json:"course_id"`
	OK                 bool   `json:"ok"`
	RemovedEnrollments int64  `json:"removed_enrollments,omitempty"`
	Error              string `json:"error,omitempty"`
}

type courseService struct {
	repo      repositories.Repository
	access    *authz.Evaluator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewCourseService(
	repo repositories.Repository,
	access *authz.Evaluator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) CourseService {
	return &courseService{
		repo:      repo,
		access:    access,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseService) List(ctx context.Context, actor authz.Principal) ([]*models.Course, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthorized
	}
	courses, err := s.repo.Course().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) Create(ctx context.Context, actor authz.Principal, req CreateCourseRequest) (*models.Course, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}
	if len(req.ImageURL) > maxThumbnailBytes {
		return nil, ErrThumbnailTooLarge
	}

	course := &models.Course{
		Title:       req.Title,
		Category:    req.Category,
		Hours:       req.Hours,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if course.Category == "" {
		course.Category = defaultCourseCategory
	}
	if req.DueDate != nil {
		course.DueDate = *req.DueDate
	} else {
		course.DueDate = time.Now().UTC().Add(defaultDueDateOffset)
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "title", course.Title, "created_by", actor.ID)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, actor authz.Principal, id uint, req UpdateCourseRequest) (*models.Course, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	if verrs := s.validator.Struct(req); verrs != nil {
		return nil, verrs
	}
	if req.ImageURL != nil && len(*req.ImageURL) > maxThumbnailBytes {
		return nil, ErrThumbnailTooLarge
	}

	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Category != nil {
		course.Category = *req.Category
		if course.Category == "" {
			course.Category = defaultCourseCategory
		}
	}
	if req.Hours != nil {
		course.Hours = *req.Hours
	}
	if req.DueDate != nil {
		course.DueDate = *req.DueDate
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.ImageURL != nil {
		course.ImageURL = *req.ImageURL
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, actor authz.Principal, id uint) (*CourseDeleteResult, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}
	return s.deleteCascade(ctx, actor, id)
}

// deleteCascade removes the course's enrollments first, then the course
// itself, and reports how many enrollments went with it.
func (s *courseService) deleteCascade(ctx context.Context, actor authz.Principal, id uint) (*CourseDeleteResult, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	removed, err := s.repo.Enrollment().DeleteByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete enrollments for course %d: %w", course.ID, err)
	}
	if err := s.repo.Course().Delete(ctx, course.ID); err != nil {
		return nil, fmt.Errorf("failed to delete course %d: %w", course.ID, err)
	}

	s.publish(ctx, events.NewLearningEvent(events.EventCourseDeleted, events.CourseDeletedEvent{
		CourseID:           course.ID,
		Title:              course.Title,
		RemovedEnrollments: removed,
		DeletedBy:          actor.ID,
	}))

	s.logger.Info("Course deleted", "course_id", course.ID, "removed_enrollments", removed, "deleted_by", actor.ID)
	return &CourseDeleteResult{CourseID: course.ID, RemovedEnrollments: removed}, nil
}

func (s *courseService) BulkDelete(ctx context.Context, actor authz.Principal, ids []uint) (*BulkDeleteResult, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	result := &BulkDeleteResult{Items: make([]BulkDeleteItem, 0, len(ids))}
	for _, id := range ids {
		item := BulkDeleteItem{CourseID: id}
		deleted, err := s.deleteCascade(ctx, actor, id)
		if err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			item.OK = true
			item.RemovedEnrollments = deleted.RemovedEnrollments
			result.Deleted++
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (s *courseService) publish(ctx context.Context, event *events.LearningEvent) {
	if err := s.publisher.PublishLearningEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
