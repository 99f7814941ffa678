package dto

import (
	"time"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// StudentProfileRequest is the multipart profile payload. All fields are
// pointers so updates can tell absent values from empty ones.
type StudentProfileRequest struct {
	FullName    *string  `json:"full_name" form:"full_name" validate:"omitempty,min=3,max=100"`
	NationalID  *string  `json:"national_id" form:"national_id" validate:"omitempty,len=14,numeric"`
	SeatNumber  *int     `json:"seat_number" form:"seat_number" validate:"omitempty,min=1"`
	Total       *float64 `json:"total" form:"total" validate:"omitempty,min=0,max=1000"`
	Division    *string  `json:"division" form:"division" validate:"omitempty,oneof=1 2 3"`
	PhoneNumber *string  `json:"phone_number" form:"phone_number" validate:"omitempty,min=8,max=15,numeric"`
	CollegeID   *uint    `json:"college_id" form:"college_id" validate:"omitempty,min=1"`
}

// StudentResponse serializes a student profile.
type StudentResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	FullName    string    `json:"full_name"`
	Photo       string    `json:"student_photo"`
	NationalID  string    `json:"national_id"`
	SeatNumber  int       `json:"seat_number"`
	Total       float64   `json:"total"`
	Division    string    `json:"division"`
	PhoneNumber string    `json:"phone_number"`
	CollegeID   uint      `json:"college_id"`
	CollegeName string    `json:"college_name,omitempty"`
	UpToLevel   bool      `json:"up_to_level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentProfileResponse pairs the profile with its freshly aggregated results.
type StudentProfileResponse struct {
	Student StudentResponse `json:"student"`
	Results ResultsResponse `json:"results"`
}

// NewStudentResponse converts a student model.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:          student.ID,
		UserID:      student.UserID,
		FullName:    student.FullName,
		Photo:       student.PhotoPath,
		NationalID:  student.NationalID,
		SeatNumber:  student.SeatNumber,
		Total:       student.Total,
		Division:    student.Division,
		PhoneNumber: student.PhoneNumber,
		CollegeID:   student.CollegeID,
		CollegeName: student.College.Name,
		UpToLevel:   student.UpToLevel,
		CreatedAt:   student.CreatedAt,
		UpdatedAt:   student.UpdatedAt,
	}
}
