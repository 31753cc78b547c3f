package postgres

import (
	"context"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type TeamPostgreSQL struct {
	db *gorm.DB
}

func NewTeamPostgreSQL(db *gorm.DB) repositories.TeamRepository {
	return &TeamPostgreSQL{db: db}
}

func (t *TeamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	err := t.db.WithContext(ctx).First(&team, id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (t *TeamPostgreSQL) List(ctx context.Context) ([]*models.Team, error) {
	var teams []*models.Team
	err := t.db.WithContext(ctx).
		Order("name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (t *TeamPostgreSQL) Create(ctx context.Context, team *models.Team) error {
	return t.db.WithContext(ctx).Create(team).Error
}

func (t *TeamPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := t.db.WithContext(ctx).Delete(&models.Team{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (t *TeamPostgreSQL) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}
