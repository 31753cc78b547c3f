package postgres

import (
	"context"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := c.db.WithContext(ctx).First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var courses []*models.Course
	err := c.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CoursePostgreSQL) List(ctx context.Context) ([]*models.Course, error) {
	var courses []*models.Course
	err := c.db.WithContext(ctx).
		Order("title ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	return c.db.WithContext(ctx).Create(course).Error
}

func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	return c.db.WithContext(ctx).Save(course).Error
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
