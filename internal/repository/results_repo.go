package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// LevelRule decides whether a combined total reaches the required level.
type LevelRule func(total int) bool

// ResultsRepository recomputes and stores per-student score aggregates.
type ResultsRepository interface {
	Recalculate(ctx context.Context, studentID uint, rule LevelRule) (models.StudentResults, error)
	GetByStudentID(ctx context.Context, studentID uint) (models.StudentResults, error)
}

type resultsRepository struct {
	db *gorm.DB
}

// NewResultsRepository constructs a results repository.
func NewResultsRepository(db *gorm.DB) ResultsRepository {
	return &resultsRepository{db: db}
}

// Recalculate sums the student's answer scores per kind, stores the four
// sub-scores and the level flag on both the results row and the student, and
// returns the fresh results. Everything happens in one transaction.
func (r *resultsRepository) Recalculate(ctx context.Context, studentID uint, rule LevelRule) (models.StudentResults, error) {
	var results models.StudentResults

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Select("id").First(&student, studentID).Error; err != nil {
			return err
		}

		totals, err := sumScoresByKind(tx, studentID)
		if err != nil {
			return err
		}

		results = models.StudentResults{
			StudentID:         studentID,
			MCQResult:         totals[models.ExamKindMCQ],
			HandDrawingResult: totals[models.ExamKindHand],
			DigitalArtResult:  totals[models.ExamKindDigital],
			TrialResult:       totals[models.ExamKindPractice],
		}
		results.UpToLevel = rule(results.Total())

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mcq_result",
				"hand_drawing_result",
				"digital_art_result",
				"trial_result",
				"up_to_level",
				"updated_at",
			}),
		}).Create(&results).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Student{}).
			Where("id = ?", studentID).
			Update("up_to_level", results.UpToLevel).Error; err != nil {
			return err
		}

		results = models.StudentResults{}
		return tx.Where("student_id = ?", studentID).First(&results).Error
	})
	if err != nil {
		return models.StudentResults{}, err
	}

	return results, nil
}

func (r *resultsRepository) GetByStudentID(ctx context.Context, studentID uint) (models.StudentResults, error) {
	var results models.StudentResults
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&results).Error; err != nil {
		return models.StudentResults{}, err
	}

	return results, nil
}
