package models

import "time"

type Enrollment struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollments_user_course"`
	CourseID uint `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_user_course"`

	Progress    int        `json:"progress" gorm:"not null;default:0"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// IsCompleted reports whether the enrollment counts as completed. Every
// report that classifies completion uses this same predicate.
func (e *Enrollment) IsCompleted() bool {
	return e.CompletedAt != nil || e.Progress >= 100
}

// IsOverdue reports whether the enrollment is incomplete past the course
// due date.
func (e *Enrollment) IsOverdue(courseDue time.Time, now time.Time) bool {
	return !e.IsCompleted() && courseDue.Before(now)
}
