package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the lifecycle events this service emits
type EventType string

const (
	// Enrollment events
	EventEnrollmentAssigned     EventType = "enrollment.assigned"
	EventEnrollmentSelfEnrolled EventType = "enrollment.self_enrolled"
	EventEnrollmentCompleted    EventType = "enrollment.completed"

	// Course events
	EventCourseDeleted EventType = "course.deleted"
)

const eventSource = "learning-service"

// LearningEvent is the envelope shared by every published event
type LearningEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewLearningEvent wraps a payload in a fresh envelope
func NewLearningEvent(eventType EventType, data interface{}) *LearningEvent {
	return &LearningEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

// Enrollment event payloads

type EnrollmentAssignedEvent struct {
	EnrollmentID uint      `json:"enrollment_id"`
	UserID       uint      `json:"user_id"`
	CourseID     uint      `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	DueDate      time.Time `json:"due_date"`
	AssignedBy   uint      `json:"assigned_by"`
}

type EnrollmentSelfEnrolledEvent struct {
	EnrollmentID uint      `json:"enrollment_id"`
	UserID       uint      `json:"user_id"`
	CourseID     uint      `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	DueDate      time.Time `json:"due_date"`
}

type EnrollmentCompletedEvent struct {
	EnrollmentID uint      `json:"enrollment_id"`
	UserID       uint      `json:"user_id"`
	CourseID     uint      `json:"course_id"`
	CompletedAt  time.Time `json:"completed_at"`
	Progress     int       `json:"progress"`
}

// Course event payloads

type CourseDeletedEvent struct {
	CourseID           uint   `json:"course_id"`
	Title              string `json:"title"`
	RemovedEnrollments int64  `json:"removed_enrollments"`
	DeletedBy          uint   `json:"deleted_by"`
}
