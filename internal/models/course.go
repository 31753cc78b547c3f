package models

import "time"

type Course struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Category    string    `json:"category" gorm:"not null;default:General;size:100"`
	Hours       float64   `json:"hours" gorm:"not null;default:0"`
	DueDate     time.Time `json:"due_date" gorm:"not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    string    `json:"image_url" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}
