package service

import "github.com/noah-isme/art-exam-api/internal/models"

// ScoringStrategy updates correctness and score on an answer whose Value has
// just been replaced. previous is nil when the answer is new.
type ScoringStrategy func(answer *models.Answer, previous *string, item models.ExamItem)

// MCQScoreDelta returns the change to apply to a stored MCQ score when the
// answer moves from previous to next. It is +1 when the answer becomes correct,
// -1 when it stops being correct and 0 otherwise. A nil previous means no prior
// answer, so a first correct answer scores 1.
func MCQScoreDelta(previous *string, next, correct string) int {
	wasCorrect := previous != nil && *previous == correct
	isCorrect := next == correct

	switch {
	case isCorrect && !wasCorrect:
		return 1
	case !isCorrect && wasCorrect:
		return -1
	default:
		return 0
	}
}

// MCQScoring is the strategy for multiple-choice items.
func MCQScoring(answer *models.Answer, previous *string, item models.ExamItem) {
	answer.Score += MCQScoreDelta(previous, answer.Value, item.CorrectAnswer)
	answer.IsCorrect = answer.Value == item.CorrectAnswer
}
