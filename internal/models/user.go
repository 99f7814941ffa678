package models

import "time"

// Roles recognised by the API.
const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// Account statuses tracking the student onboarding lifecycle.
const (
	UserStatusUser            = "user"
	UserStatusStudentReview   = "student_review"
	UserStatusStudentRejected = "student_rejected"
	UserStatusStudent         = "student"
)

// User is the authenticated identity. Email is the login field.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:user" json:"role"`
	Status       string    `gorm:"size:32;not null;default:user" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user may access the admin surface.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
