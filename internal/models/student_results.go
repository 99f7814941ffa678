package models

import "time"

// StudentResults stores the per-category score totals and the level flag.
type StudentResults struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentID         uint      `gorm:"uniqueIndex;not null" json:"student_id"`
	MCQResult         int       `gorm:"not null;default:0" json:"mcq_result"`
	DigitalArtResult  int       `gorm:"not null;default:0" json:"digital_art_result"`
	HandDrawingResult int       `gorm:"not null;default:0" json:"hand_drawing_result"`
	TrialResult       int       `gorm:"not null;default:0" json:"trial_result"`
	UpToLevel         bool      `gorm:"not null;default:false" json:"up_to_level"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Total sums the four category results.
func (r StudentResults) Total() int {
	return r.MCQResult + r.DigitalArtResult + r.HandDrawingResult + r.TrialResult
}

// ScoreTotals holds summed answer scores keyed by exam kind.
type ScoreTotals map[ExamKind]int
