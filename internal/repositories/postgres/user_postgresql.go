package postgres

import (
	"context"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by role, then name.
func (u *UserPostgreSQL) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := u.db.WithContext(ctx).
		Preload("Team").
		Order("role ASC, name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	return u.db.WithContext(ctx).Create(user).Error
}

func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	return u.db.WithContext(ctx).Save(user).Error
}

func (u *UserPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := u.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string, excludeID *uint) (bool, error) {
	query := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (u *UserPostgreSQL) CountByTeam(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("team_id = ?", teamID).
		Count(&count).Error
	return count, err
}

func (u *UserPostgreSQL) TeamEmployeeIDs(ctx context.Context, teamID uint, candidateIDs []uint) ([]uint, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	var ids []uint
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("team_id = ? AND role = ? AND id IN ?", teamID, models.RoleEmployee, candidateIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
