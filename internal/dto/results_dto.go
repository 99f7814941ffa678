package dto

import "github.com/noah-isme/art-exam-api/internal/models"

// ResultsResponse serializes a student's aggregated scores.
type ResultsResponse struct {
	StudentID         uint `json:"student_id"`
	MCQResult         int  `json:"mcq_result"`
	HandDrawingResult int  `json:"hand_drawing_result"`
	DigitalArtResult  int  `json:"digital_art_result"`
	TrialResult       int  `json:"trial_result"`
	Total             int  `json:"total"`
	UpToLevel         bool `json:"up_to_level"`
}

// NewResultsResponse converts a results model.
func NewResultsResponse(results models.StudentResults) ResultsResponse {
	return ResultsResponse{
		StudentID:         results.StudentID,
		MCQResult:         results.MCQResult,
		HandDrawingResult: results.HandDrawingResult,
		DigitalArtResult:  results.DigitalArtResult,
		TrialResult:       results.TrialResult,
		Total:             results.Total(),
		UpToLevel:         results.UpToLevel,
	}
}
