package dto

import "github.com/noah-isme/art-exam-api/internal/models"

// CollegeRequest creates a college.
type CollegeRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// CollegeResponse serializes a college.
type CollegeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewCollegeResponse converts a college model.
func NewCollegeResponse(college models.College) CollegeResponse {
	return CollegeResponse{ID: college.ID, Name: college.Name}
}
