package dto

import (
	"time"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// MCQAnswerRequest submits the chosen option for a multiple-choice item.
type MCQAnswerRequest struct {
	ExamItemID uint   `json:"exam_item_id" validate:"required"`
	Answer     string `json:"answer" validate:"required,max=100"`
}

// AnswerResponse serializes a stored answer.
type AnswerResponse struct {
	ID         uint            `json:"id"`
	ExamItemID uint            `json:"exam_item_id"`
	Kind       models.ExamKind `json:"kind"`
	Answer     string          `json:"answer"`
	IsCorrect  bool            `json:"is_correct"`
	Score      int             `json:"score"`
	Created    bool            `json:"created"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AnswerListResponse wraps a paginated answer listing.
type AnswerListResponse struct {
	Items      []AnswerResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewAnswerResponse converts an answer model.
func NewAnswerResponse(answer models.Answer) AnswerResponse {
	return AnswerResponse{
		ID:         answer.ID,
		ExamItemID: answer.ExamItemID,
		Kind:       answer.Kind,
		Answer:     answer.Value,
		IsCorrect:  answer.IsCorrect,
		Score:      answer.Score,
		UpdatedAt:  answer.UpdatedAt,
	}
}
