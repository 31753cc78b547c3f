package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/utils"
)

func newUserFixture() (*MockRepository, UserService) {
	repo := NewMockRepository()
	access := authz.NewEvaluator(authz.ThreeTier)
	return repo, NewUserService(repo, access, testLogger(), utils.NewValidator())
}

func TestUserService_Create_HashesAndNormalizes(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.UserRepo.On("ExistsByEmail", ctx, "dana@example.com", (*uint)(nil)).Return(false, nil)
	repo.UserRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.Create(ctx, admin, CreateUserRequest{
		Name:     "Dana",
		Email:    "  Dana@Example.COM ",
		Password: "correct-horse",
		Role:     "employee",
	})

	assert.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
}

func TestUserService_Create_EmailTaken(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.UserRepo.On("ExistsByEmail", ctx, "dana@example.com", (*uint)(nil)).Return(true, nil)

	user, err := svc.Create(ctx, admin, CreateUserRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "correct-horse",
		Role:     "employee",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.True(t, IsConflict(err))
	assert.Nil(t, user)
	repo.UserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Create_DuplicateKeyRaceIsEmailTaken(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	// The optimistic check passes but a concurrent insert wins the unique
	// index on email.
	repo.UserRepo.On("ExistsByEmail", ctx, "dana@example.com", (*uint)(nil)).Return(false, nil)
	repo.UserRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(gorm.ErrDuplicatedKey)

	user, err := svc.Create(ctx, admin, CreateUserRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "correct-horse",
		Role:     "employee",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Nil(t, user)
}

func TestUserService_Create_UnknownRole(t *testing.T) {
	_, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	// sysadmin exists as a role value but the three-tier hierarchy does
	// not rank it.
	user, err := svc.Create(ctx, admin, CreateUserRequest{
		Name:     "Root",
		Email:    "root@example.com",
		Password: "correct-horse",
		Role:     "sysadmin",
	})

	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Nil(t, user)
}

func TestUserService_Create_MissingTeam(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.UserRepo.On("ExistsByEmail", ctx, "dana@example.com", (*uint)(nil)).Return(false, nil)
	repo.TeamRepo.On("GetByID", ctx, uint(9)).Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.Create(ctx, admin, CreateUserRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "correct-horse",
		Role:     "employee",
		TeamID:   teamPtr(9),
	})

	assert.ErrorIs(t, err, ErrTeamNotFound)
	assert.Nil(t, user)
}

func TestUserService_Create_NonAdminForbidden(t *testing.T) {
	_, svc := newUserFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, authz.Principal{ID: 2, Role: models.RoleManager, TeamID: teamPtr(3)}, CreateUserRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "correct-horse",
		Role:     "employee",
	})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, user)
}

func TestUserService_Update_ClearTeam(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}
	existing := &models.User{ID: 7, Name: "Dana", Email: "dana@example.com", Role: models.RoleEmployee, TeamID: teamPtr(3)}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(existing, nil)
	repo.UserRepo.On("Update", ctx, existing).Return(nil)

	user, err := svc.Update(ctx, admin, 7, UpdateUserRequest{ClearTeam: true})

	assert.NoError(t, err)
	assert.Nil(t, user.TeamID)
}

func TestUserService_Update_EmailConflict(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}
	existing := &models.User{ID: 7, Name: "Dana", Email: "dana@example.com", Role: models.RoleEmployee}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(existing, nil)
	repo.UserRepo.On("ExistsByEmail", ctx, "taken@example.com", &existing.ID).Return(true, nil)

	email := "taken@example.com"
	user, err := svc.Update(ctx, admin, 7, UpdateUserRequest{Email: &email})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Nil(t, user)
	repo.UserRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Delete_KeepsEnrollmentsByDefault(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(&models.User{ID: 7}, nil)
	repo.UserRepo.On("Delete", ctx, uint(7)).Return(nil)

	result, err := svc.Delete(ctx, admin, 7, false)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), result.RemovedEnrollments)
	repo.EnrollmentRepo.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
}

func TestUserService_Delete_CascadeRemovesEnrollments(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	admin := authz.Principal{ID: 1, Role: models.RoleAdmin}

	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(&models.User{ID: 7}, nil)
	repo.EnrollmentRepo.On("DeleteByUser", ctx, uint(7)).Return(int64(4), nil)
	repo.UserRepo.On("Delete", ctx, uint(7)).Return(nil)

	result, err := svc.Delete(ctx, admin, 7, true)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), result.RemovedEnrollments)
	repo.EnrollmentRepo.AssertExpectations(t)
}

func TestUserService_Get_EmployeeSeesOnlySelf(t *testing.T) {
	repo, svc := newUserFixture()
	ctx := context.Background()
	actor := authz.Principal{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(3)}

	self := &models.User{ID: 7, Role: models.RoleEmployee, TeamID: teamPtr(3)}
	other := &models.User{ID: 8, Role: models.RoleEmployee, TeamID: teamPtr(3)}
	repo.UserRepo.On("GetByID", ctx, uint(7)).Return(self, nil)
	repo.UserRepo.On("GetByID", ctx, uint(8)).Return(other, nil)

	got, err := svc.Get(ctx, actor, 7)
	assert.NoError(t, err)
	assert.Equal(t, self, got)

	got, err = svc.Get(ctx, actor, 8)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, got)
}
