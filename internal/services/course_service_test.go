package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/events"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/utils"
)

func newCourseFixture() (*MockRepository, *events.MockEventPublisher, CourseService) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher(nil)
	access := authz.NewEvaluator(authz.ThreeTier)
	svc := NewCourseService(repo, access, publisher, testLogger(), utils.NewValidator())
	return repo, publisher, svc
}

func TestCourseService_Create_Defaults(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.CourseRepo.On("Create", ctx, mock.AnythingOfType("*models.Course")).Return(nil)

	before := time.Now().UTC()
	course, err := svc.Create(ctx, admin, CreateCourseRequest{Title: "Go Fundamentals"})
	after := time.Now().UTC()

	assert.NoError(t, err)
	assert.Equal(t, "General", course.Category)
	// Omitted due date defaults to thirty days out.
	assert.False(t, course.DueDate.Before(before.Add(30*24*time.Hour)))
	assert.False(t, course.DueDate.After(after.Add(30*24*time.Hour)))
}

func TestCourseService_Create_ExplicitFields(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}
	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	repo.CourseRepo.On("Create", ctx, mock.AnythingOfType("*models.Course")).Return(nil)

	course, err := svc.Create(ctx, admin, CreateCourseRequest{
		Title:    "Security Basics",
		Category: "Compliance",
		Hours:    4.5,
		DueDate:  &due,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Compliance", course.Category)
	assert.Equal(t, due, course.DueDate)
	assert.Equal(t, 4.5, course.Hours)
}

func TestCourseService_Create_MissingTitle(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	course, err := svc.Create(ctx, admin, CreateCourseRequest{})

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Nil(t, course)
	repo.CourseRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCourseService_Create_ThumbnailTooLarge(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	req := CreateCourseRequest{
		Title:    "Go Fundamentals",
		ImageURL: "data:image/png;base64," + strings.Repeat("A", maxThumbnailBytes),
	}
	course, err := svc.Create(ctx, admin, req)

	assert.ErrorIs(t, err, ErrThumbnailTooLarge)
	assert.Nil(t, course)
	repo.CourseRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCourseService_Create_NonAdminForbidden(t *testing.T) {
	_, _, svc := newCourseFixture()
	ctx := context.Background()

	course, err := svc.Create(ctx, authz.Principal{ID: 2, Role: models.RoleManager, TeamID: teamPtr(3)}, CreateCourseRequest{Title: "X"})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, course)
}

func TestCourseService_Update_PartialFields(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}
	existing := &models.Course{ID: 42, Title: "Go Fundamentals", Category: "Engineering", Hours: 8}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(existing, nil)
	repo.CourseRepo.On("Update", ctx, existing).Return(nil)

	title := "Go Fundamentals, 2nd Edition"
	course, err := svc.Update(ctx, admin, 42, UpdateCourseRequest{Title: &title})

	assert.NoError(t, err)
	assert.Equal(t, title, course.Title)
	// Untouched fields keep their stored values.
	assert.Equal(t, "Engineering", course.Category)
	assert.Equal(t, 8.0, course.Hours)
}

func TestCourseService_Delete_CascadeReportsCount(t *testing.T) {
	repo, publisher, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}
	course := &models.Course{ID: 42, Title: "Go Fundamentals"}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	repo.EnrollmentRepo.On("DeleteByCourse", ctx, uint(42)).Return(int64(2), nil)
	repo.CourseRepo.On("Delete", ctx, uint(42)).Return(nil)

	result, err := svc.Delete(ctx, admin, 42)

	assert.NoError(t, err)
	assert.Equal(t, uint(42), result.CourseID)
	assert.Equal(t, int64(2), result.RemovedEnrollments)
	assert.Len(t, publisher.EventsOfType(events.EventCourseDeleted), 1)
	repo.CourseRepo.AssertExpectations(t)
	repo.EnrollmentRepo.AssertExpectations(t)
}

func TestCourseService_Delete_NotFound(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(nil, gorm.ErrRecordNotFound)

	result, err := svc.Delete(ctx, admin, 42)

	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.Nil(t, result)
}

func TestCourseService_BulkDelete_PartialFailure(t *testing.T) {
	repo, _, svc := newCourseFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	// 42 deletes cleanly, 43 is already gone, 44 fails mid-cascade.
	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(&models.Course{ID: 42}, nil)
	repo.EnrollmentRepo.On("DeleteByCourse", ctx, uint(42)).Return(int64(3), nil)
	repo.CourseRepo.On("Delete", ctx, uint(42)).Return(nil)

	repo.CourseRepo.On("GetByID", ctx, uint(43)).Return(nil, gorm.ErrRecordNotFound)

	repo.CourseRepo.On("GetByID", ctx, uint(44)).Return(&models.Course{ID: 44}, nil)
	repo.EnrollmentRepo.On("DeleteByCourse", ctx, uint(44)).Return(int64(0), errors.New("connection reset"))

	result, err := svc.BulkDelete(ctx, admin, []uint{42, 43, 44})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Items, 3)

	assert.True(t, result.Items[0].OK)
	assert.Equal(t, int64(3), result.Items[0].RemovedEnrollments)
	assert.False(t, result.Items[1].OK)
	assert.NotEmpty(t, result.Items[1].Error)
	assert.False(t, result.Items[2].OK)
}
