package models

import "time"

// Division values mirror the secondary school streams.
const (
	DivisionMathematics = "1"
	DivisionScience     = "2"
	DivisionLiterary    = "3"
)

// Student is the exam profile attached one-to-one to a User.
type Student struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	User        User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	FullName    string         `gorm:"size:100;not null" json:"full_name"`
	PhotoPath   string         `gorm:"size:512" json:"student_photo"`
	NationalID  string         `gorm:"size:14;uniqueIndex;not null" json:"national_id"`
	SeatNumber  int            `gorm:"uniqueIndex;not null" json:"seat_number"`
	Total       float64        `gorm:"not null;default:0" json:"total"`
	Division    string         `gorm:"size:8;not null" json:"division"`
	PhoneNumber string         `gorm:"size:15;uniqueIndex;not null" json:"phone_number"`
	CollegeID   uint           `gorm:"not null;index" json:"college_id"`
	College     College        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UpToLevel   bool           `gorm:"not null;default:false" json:"up_to_level"`
	Answers     []Answer       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Results     StudentResults `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
