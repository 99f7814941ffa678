package dto

import (
	"time"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// NotificationSendRequest is an examiner message to one student account.
type NotificationSendRequest struct {
	UserID  uint   `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required,min=1,max=1000"`
}

// NotificationResponse is the client view of a notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationListResponse wraps a page of notifications with the unread count.
type NotificationListResponse struct {
	Items      []NotificationResponse `json:"items"`
	Unread     int64                  `json:"unread"`
	Pagination PaginationMeta         `json:"pagination"`
}

// NotificationReadAllResponse reports how many notifications were marked read.
type NotificationReadAllResponse struct {
	Updated int64 `json:"updated"`
}

// NewNotificationResponse converts a notification model.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}
