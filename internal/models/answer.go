package models

import "time"

// Answer is a student's response to one exam item. At most one row exists per
// (student, exam item) pair. Value holds the chosen option for MCQ items and the
// stored file path for drawing items.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_answers_student_item,priority:1" json:"student_id"`
	ExamItemID uint      `gorm:"not null;uniqueIndex:idx_answers_student_item,priority:2" json:"exam_item_id"`
	Kind       ExamKind  `gorm:"size:16;not null;index" json:"kind"`
	Value      string    `gorm:"size:512;not null" json:"answer"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	ExamItem   ExamItem  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
