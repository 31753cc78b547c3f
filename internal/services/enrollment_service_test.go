package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/events"
	"github.com/skilltrack/learning-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func teamPtr(id uint) *uint {
	return &id
}

func newEnrollmentFixture() (*MockRepository, *events.MockEventPublisher, EnrollmentService) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher(nil)
	access := authz.NewEvaluator(authz.ThreeTier)
	svc := NewEnrollmentService(repo, access, publisher, testLogger())
	return repo, publisher, svc
}

func TestEnrollmentService_Assign_Success(t *testing.T) {
	repo, publisher, svc := newEnrollmentFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	target := &models.User{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(3)}
	course := &models.Course{ID: 42, Title: "Go Fundamentals", DueDate: time.Now().AddDate(0, 1, 0)}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(target, nil)
	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(nil, gorm.ErrRecordNotFound)
	repo.EnrollmentRepo.On("Create", ctx, mock.AnythingOfType("*models.Enrollment")).Return(nil)

	result, err := svc.Assign(ctx, admin, 7, 42)

	assert.NoError(t, err)
	assert.False(t, result.AlreadyEnrolled)
	assert.Equal(t, uint(7), result.Enrollment.UserID)
	assert.Equal(t, uint(42), result.Enrollment.CourseID)
	assert.Equal(t, 0, result.Enrollment.Progress)
	assert.Len(t, publisher.EventsOfType(events.EventEnrollmentAssigned), 1)
	repo.EnrollmentRepo.AssertExpectations(t)
}

func TestEnrollmentService_Assign_ExistingIsConflictNotError(t *testing.T) {
	repo, publisher, svc := newEnrollmentFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	target := &models.User{ID: 7, Role: models.RoleEmployee}
	course := &models.Course{ID: 42, Title: "Go Fundamentals"}
	existing := &models.Enrollment{ID: 99, UserID: 7, CourseID: 42, Progress: 50}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(target, nil)
	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(existing, nil)

	result, err := svc.Assign(ctx, admin, 7, 42)

	assert.NoError(t, err)
	assert.True(t, result.AlreadyEnrolled)
	assert.Equal(t, existing, result.Enrollment)
	// Existing records are returned, never re-created, and emit no event.
	repo.EnrollmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.Events)
}

func TestEnrollmentService_Assign_DuplicateKeyRaceReturnsWinner(t *testing.T) {
	repo, publisher, svc := newEnrollmentFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	target := &models.User{ID: 7, Role: models.RoleEmployee}
	course := &models.Course{ID: 42, Title: "Go Fundamentals"}
	winner := &models.Enrollment{ID: 100, UserID: 7, CourseID: 42}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(target, nil)
	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	// The optimistic check misses, the insert loses the race, and the
	// winning row is reloaded.
	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(nil, gorm.ErrRecordNotFound).Once()
	repo.EnrollmentRepo.On("Create", ctx, mock.AnythingOfType("*models.Enrollment")).Return(gorm.ErrDuplicatedKey)
	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(winner, nil).Once()

	result, err := svc.Assign(ctx, admin, 7, 42)

	assert.NoError(t, err)
	assert.True(t, result.AlreadyEnrolled)
	assert.Equal(t, winner, result.Enrollment)
	assert.Empty(t, publisher.Events)
	repo.EnrollmentRepo.AssertExpectations(t)
}

func TestEnrollmentService_Assign_Forbidden(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   authz.Principal
		target  *models.User
		wantErr error
	}{
		{
			name:    "employee cannot assign",
			actor:   authz.Principal{ID: 2, Role: models.RoleEmployee, TeamID: teamPtr(3)},
			target:  &models.User{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(3)},
			wantErr: ErrForbidden,
		},
		{
			name:    "manager cannot assign outside own team",
			actor:   authz.Principal{ID: 2, Role: models.RoleManager, TeamID: teamPtr(3)},
			target:  &models.User{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(4)},
			wantErr: ErrForbidden,
		},
		{
			name:    "manager target is not assignable",
			actor:   authz.Principal{ID: 1, Role: models.RoleAdmin},
			target:  &models.User{ID: 7, Role: models.RoleManager, TeamID: teamPtr(3)},
			wantErr: ErrNotAssignable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, publisher, svc := newEnrollmentFixture()
			course := &models.Course{ID: 42, Title: "Go Fundamentals"}

			repo.UserRepo.On("GetByID", ctx, tt.target.ID).Return(tt.target, nil)
			repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)

			result, err := svc.Assign(ctx, tt.actor, tt.target.ID, 42)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			repo.EnrollmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, publisher.Events)
		})
	}
}

func TestEnrollmentService_Assign_TargetNotFound(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(nil, gorm.ErrRecordNotFound)

	result, err := svc.Assign(ctx, authz.Principal{ID: 1, Role: models.RoleAdmin}, 7, 42)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, result)
}

func TestEnrollmentService_EnrollSelf_AdminDenied(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()

	result, err := svc.EnrollSelf(ctx, authz.Principal{ID: 1, Role: models.RoleAdmin}, 42)

	assert.ErrorIs(t, err, ErrSelfEnrollDenied)
	assert.Nil(t, result)
	repo.CourseRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestEnrollmentService_EnrollSelf_Success(t *testing.T) {
	repo, publisher, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(3)}
	course := &models.Course{ID: 42, Title: "Go Fundamentals", DueDate: time.Now().AddDate(0, 1, 0)}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(nil, gorm.ErrRecordNotFound)
	repo.EnrollmentRepo.On("Create", ctx, mock.AnythingOfType("*models.Enrollment")).Return(nil)

	result, err := svc.EnrollSelf(ctx, actor, 42)

	assert.NoError(t, err)
	assert.False(t, result.AlreadyEnrolled)
	assert.Len(t, publisher.EventsOfType(events.EventEnrollmentSelfEnrolled), 1)
}

func TestEnrollmentService_SetProgress_Bounds(t *testing.T) {
	_, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee}

	for _, progress := range []int{-1, 101} {
		_, err := svc.SetProgress(ctx, actor, 42, progress)
		assert.ErrorIs(t, err, ErrInvalidProgress)
	}
}

func TestEnrollmentService_SetProgress_Updates(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee}
	enrollment := &models.Enrollment{ID: 99, UserID: 7, CourseID: 42, Progress: 10}

	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(enrollment, nil)
	repo.EnrollmentRepo.On("Update", ctx, enrollment).Return(nil)

	updated, err := svc.SetProgress(ctx, actor, 42, 60)

	assert.NoError(t, err)
	assert.Equal(t, 60, updated.Progress)
	assert.Nil(t, updated.CompletedAt)
}

func TestEnrollmentService_MarkCompleted(t *testing.T) {
	repo, publisher, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee}
	enrollment := &models.Enrollment{ID: 99, UserID: 7, CourseID: 42, Progress: 80}

	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(enrollment, nil)
	repo.EnrollmentRepo.On("Update", ctx, enrollment).Return(nil)

	updated, err := svc.MarkCompleted(ctx, actor, 42, true)

	assert.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, 100, updated.Progress)
	assert.Len(t, publisher.EventsOfType(events.EventEnrollmentCompleted), 1)

	// Reopening clears the mark but keeps the stored progress.
	reopened, err := svc.MarkCompleted(ctx, actor, 42, false)
	assert.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
	assert.Equal(t, 100, reopened.Progress)
	assert.Len(t, publisher.EventsOfType(events.EventEnrollmentCompleted), 1)
}

func TestEnrollmentService_MarkCompleted_NotEnrolled(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee}

	repo.EnrollmentRepo.On("GetByUserAndCourse", ctx, uint(7), uint(42)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.MarkCompleted(ctx, actor, 42, true)

	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestEnrollmentService_ListForUser_DeletedCourseDegrades(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee}

	target := &models.User{ID: 7, Role: models.RoleEmployee}
	enrollments := []*models.Enrollment{
		{ID: 1, UserID: 7, CourseID: 42},
		{ID: 2, UserID: 7, CourseID: 43},
	}
	// Course 43 has been deleted since the enrollment was created.
	courses := []*models.Course{
		{ID: 42, Title: "Go Fundamentals", Category: "Engineering", Hours: 8},
	}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(target, nil)
	repo.EnrollmentRepo.On("ListByUser", ctx, uint(7)).Return(enrollments, nil)
	repo.CourseRepo.On("GetByIDs", ctx, []uint{42, 43}).Return(courses, nil)

	items, err := svc.ListForUser(ctx, actor, 7)

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NotNil(t, items[0].Course)
	assert.Equal(t, "Go Fundamentals", items[0].Course.Title)
	assert.Nil(t, items[1].Course)
}

func TestEnrollmentService_ListForUser_EmployeeCannotViewOthers(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(3)}
	other := &models.User{ID: 8, Role: models.RoleEmployee, TeamID: teamPtr(3)}

	repo.UserRepo.On("GetByID", ctx, uint(8)).Return(other, nil)

	items, err := svc.ListForUser(ctx, actor, 8)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, items)
}

func TestEnrollmentService_CheckStatus_ManagerRestrictedToTeam(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	manager := authz.Principal{ID: 2, Role: models.RoleManager, TeamID: teamPtr(3)}
	course := &models.Course{ID: 42}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	// User 7 is on the manager's team, user 9 is not: only 7 is checked.
	repo.UserRepo.On("TeamEmployeeIDs", ctx, uint(3), []uint{7, 9}).Return([]uint{7}, nil)
	repo.EnrollmentRepo.On("EnrolledUserIDs", ctx, uint(42), []uint{7}).Return([]uint{7}, nil)

	result, err := svc.CheckStatus(ctx, manager, 42, []uint{7, 9})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.CheckedCount)
	assert.Equal(t, []uint{7}, result.EnrolledUserIDs)
}

func TestEnrollmentService_CheckStatus_AdminChecksAll(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}
	course := &models.Course{ID: 42}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	repo.EnrollmentRepo.On("EnrolledUserIDs", ctx, uint(42), []uint{7, 9}).Return([]uint{9}, nil)

	result, err := svc.CheckStatus(ctx, admin, 42, []uint{7, 9})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.CheckedCount)
	assert.Equal(t, []uint{9}, result.EnrolledUserIDs)
	repo.UserRepo.AssertNotCalled(t, "TeamEmployeeIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrollmentService_CheckStatus_EmptyAfterRestriction(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	manager := authz.Principal{ID: 2, Role: models.RoleManager, TeamID: teamPtr(3)}
	course := &models.Course{ID: 42}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)
	repo.UserRepo.On("TeamEmployeeIDs", ctx, uint(3), []uint{9}).Return([]uint{}, nil)

	result, err := svc.CheckStatus(ctx, manager, 42, []uint{9})

	assert.NoError(t, err)
	assert.Equal(t, 0, result.CheckedCount)
	assert.Empty(t, result.EnrolledUserIDs)
	assert.NotNil(t, result.EnrolledUserIDs)
	repo.EnrollmentRepo.AssertNotCalled(t, "EnrolledUserIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrollmentService_CheckStatus_EmployeeForbidden(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()
	course := &models.Course{ID: 42}

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(course, nil)

	result, err := svc.CheckStatus(ctx, authz.Principal{ID: 7, Role: models.RoleEmployee}, 42, []uint{7})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, result)
}

func TestEnrollmentService_CheckStatus_CourseNotFound(t *testing.T) {
	repo, _, svc := newEnrollmentFixture()
	ctx := context.Background()

	repo.CourseRepo.On("GetByID", ctx, uint(42)).Return(nil, gorm.ErrRecordNotFound)

	result, err := svc.CheckStatus(ctx, authz.Principal{ID: 1, Role: models.RoleAdmin}, 42, []uint{7})

	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.Nil(t, result)
}
