package models

import "time"

// Notification kinds delivered to students.
const (
	NotificationProfileApproved = "profile.approved"
	NotificationProfileRejected = "profile.rejected"
	NotificationLevelReached    = "level.reached"
	NotificationLevelLost       = "level.lost"
	NotificationExaminerMessage = "examiner.message"
)

// Notification is a message addressed to one account.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_notification_user_read" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false;index:idx_notification_user_read" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
