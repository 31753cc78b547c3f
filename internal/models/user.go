package models

import (
	"time"
)

type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
	RoleAdmin    UserRole = "admin"
	RoleSysadmin UserRole = "sysadmin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Name         string   `json:"name" gorm:"not null;size:100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"column:password_hash;not null;size:100"`
	Role         UserRole `json:"role" gorm:"not null;default:employee;size:20;index"`
	TeamID       *uint    `json:"team_id" gorm:"index"`

	Team *Team `json:"team,omitempty" gorm:"foreignKey:TeamID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName is the label used in reports, falling back to the email
// address when the name is blank.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
