package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta computes the page count for a listing.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages}
}

// AdminStudentListRequest defines filters for listing students.
type AdminStudentListRequest struct {
	Page      int
	PageSize  int
	Search    string
	CollegeID uint
	Status    string
	UpToLevel *bool
	Sort      string
}

// AdminStudentResponse serializes student data for admin endpoints.
type AdminStudentResponse struct {
	StudentResponse
	Email  string `json:"email"`
	Status string `json:"status"`
}

// AdminStudentListResponse wraps a paginated student response.
type AdminStudentListResponse struct {
	Items      []AdminStudentResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// AdminStudentReviewRequest approves or rejects a submitted profile.
type AdminStudentReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason" validate:"omitempty,max=500"`
}

// NewAdminStudentResponse converts a student model into a DTO.
func NewAdminStudentResponse(student models.Student) AdminStudentResponse {
	return AdminStudentResponse{
		StudentResponse: NewStudentResponse(student),
		Email:           student.User.Email,
		Status:          student.User.Status,
	}
}

// AdminGradeAnswerRequest captures the score an examiner assigns to a drawing answer.
type AdminGradeAnswerRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=1000"`
}

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
	EntityID   uint
	Since      *time.Time
}

// AdminActivityCreateRequest captures manual activity log creation payloads.
type AdminActivityCreateRequest struct {
	Action     string                 `json:"action" validate:"required,min=3"`
	EntityType string                 `json:"entity_type" validate:"required,oneof=college exam_item student answer results"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata" validate:"omitempty"`
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewAdminActivityResponse converts a model into an activity DTO.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}
