package models

import "time"

// ExamKind enumerates the four exam variants.
type ExamKind string

const (
	ExamKindMCQ      ExamKind = "mcq"
	ExamKindHand     ExamKind = "hand"
	ExamKindDigital  ExamKind = "digital"
	ExamKindPractice ExamKind = "practice"
)

// ExamKinds lists every supported kind in display order.
var ExamKinds = []ExamKind{ExamKindMCQ, ExamKindHand, ExamKindDigital, ExamKindPractice}

// Valid reports whether k is a known exam kind.
func (k ExamKind) Valid() bool {
	switch k {
	case ExamKindMCQ, ExamKindHand, ExamKindDigital, ExamKindPractice:
		return true
	default:
		return false
	}
}

// IsDrawing reports whether answers of this kind are image uploads.
func (k ExamKind) IsDrawing() bool {
	return k == ExamKindHand || k == ExamKindDigital || k == ExamKindPractice
}

// StorageCategory is the upload folder used for answers of this kind.
func (k ExamKind) StorageCategory() string {
	switch k {
	case ExamKindHand:
		return "hand_drawing_answers"
	case ExamKindDigital:
		return "digital_drawing_answers"
	case ExamKindPractice:
		return "practice_drawing_answers"
	default:
		return ""
	}
}

// ExamItem is a single question or drawing task owned by a college.
// MCQ items use the option and correct answer columns; drawing items use TaskDescription.
type ExamItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Kind            ExamKind  `gorm:"size:16;not null;index:idx_exam_items_college_kind,priority:2" json:"kind"`
	Question        string    `gorm:"size:500;not null" json:"question"`
	TaskDescription string    `gorm:"type:text" json:"task_description"`
	Option1         string    `gorm:"size:100" json:"option1"`
	Option2         string    `gorm:"size:100" json:"option2"`
	Option3         string    `gorm:"size:100" json:"option3"`
	CorrectAnswer   string    `gorm:"size:100" json:"-"`
	CollegeID       uint      `gorm:"not null;index:idx_exam_items_college_kind,priority:1" json:"college_id"`
	College         College   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Options returns the MCQ options in order.
func (e ExamItem) Options() []string {
	return []string{e.Option1, e.Option2, e.Option3}
}
