package postgres

import (
	"context"

	"github.com/skilltrack/learning-service/internal/models"
	"github.com/skilltrack/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

// Create inserts the enrollment. The composite unique index on
// (user_id, course_id) backs the at-most-one-enrollment invariant; a
// losing racer gets gorm.ErrDuplicatedKey.
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return e.db.WithContext(ctx).Create(enrollment).Error
}

func (e *EnrollmentPostgreSQL) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return e.db.WithContext(ctx).Save(enrollment).Error
}

func (e *EnrollmentPostgreSQL) DeleteByCourse(ctx context.Context, courseID uint) (int64, error) {
	result := e.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&models.Enrollment{})
	return result.RowsAffected, result.Error
}

func (e *EnrollmentPostgreSQL) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	result := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Enrollment{})
	return result.RowsAffected, result.Error
}

func (e *EnrollmentPostgreSQL) EnrolledUserIDs(ctx context.Context, courseID uint, userIDs []uint) ([]uint, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var ids []uint
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id IN ?", courseID, userIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
