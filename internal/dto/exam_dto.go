package dto

import (
	"time"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// ExamItemCreateRequest is the admin payload for a catalog entry. Option and
// correct answer fields are required for MCQ items only.
type ExamItemCreateRequest struct {
	Kind            string `json:"kind" validate:"required,oneof=mcq hand digital practice"`
	Question        string `json:"question" validate:"required,max=500"`
	TaskDescription string `json:"task_description" validate:"omitempty,max=5000"`
	Option1         string `json:"option1" validate:"required_if=Kind mcq,max=100"`
	Option2         string `json:"option2" validate:"required_if=Kind mcq,max=100"`
	Option3         string `json:"option3" validate:"required_if=Kind mcq,max=100"`
	CorrectAnswer   string `json:"correct_answer" validate:"required_if=Kind mcq,max=100"`
	CollegeID       uint   `json:"college_id" validate:"required"`
}

// ExamItemListRequest filters the admin catalog.
type ExamItemListRequest struct {
	Page      int
	PageSize  int
	CollegeID uint
	Kind      string
}

// ExamItemResponse is the student-facing view. It never exposes the correct answer.
type ExamItemResponse struct {
	ID              uint            `json:"id"`
	Kind            models.ExamKind `json:"kind"`
	Question        string          `json:"question"`
	TaskDescription string          `json:"task_description,omitempty"`
	Options         []string        `json:"options,omitempty"`
	CollegeID       uint            `json:"college_id"`
}

// AdminExamItemResponse adds the answer key and timestamps for examiners.
type AdminExamItemResponse struct {
	ExamItemResponse
	CorrectAnswer string    `json:"correct_answer,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AdminExamItemListResponse wraps a paginated catalog listing.
type AdminExamItemListResponse struct {
	Items      []AdminExamItemResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewExamItemResponse converts an exam item into its student view.
func NewExamItemResponse(item models.ExamItem) ExamItemResponse {
	resp := ExamItemResponse{
		ID:              item.ID,
		Kind:            item.Kind,
		Question:        item.Question,
		TaskDescription: item.TaskDescription,
		CollegeID:       item.CollegeID,
	}
	if item.Kind == models.ExamKindMCQ {
		resp.Options = item.Options()
	}
	return resp
}

// NewAdminExamItemResponse converts an exam item into its examiner view.
func NewAdminExamItemResponse(item models.ExamItem) AdminExamItemResponse {
	return AdminExamItemResponse{
		ExamItemResponse: NewExamItemResponse(item),
		CorrectAnswer:    item.CorrectAnswer,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}
