package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// AnswerKey identifies the single answer row a student may hold for an exam item.
type AnswerKey struct {
	StudentID  uint
	ExamItemID uint
	Kind       models.ExamKind
}

// AnswerApplyFunc mutates an answer inside the upsert transaction. When exists is
// true the answer still carries the previously stored value and score.
type AnswerApplyFunc func(answer *models.Answer, exists bool) error

// AnswerFilter narrows answer listings.
type AnswerFilter struct {
	StudentID *uint
	Kind      models.ExamKind
	Page      int
	PageSize  int
}

// AnswerRepository persists student answers.
type AnswerRepository interface {
	Upsert(ctx context.Context, key AnswerKey, apply AnswerApplyFunc) (models.Answer, bool, error)
	GetByID(ctx context.Context, id uint) (models.Answer, error)
	List(ctx context.Context, filter AnswerFilter) ([]models.Answer, int64, error)
	UpdateScore(ctx context.Context, id uint, score int) (models.Answer, error)
	SumScoresByKind(ctx context.Context, studentID uint) (models.ScoreTotals, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository constructs an answer repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Upsert creates or updates the answer identified by key. The existing row is
// read with a row lock so concurrent submissions for the same pair serialize.
// A concurrent first insert surfaces as a duplicate key and is retried once as
// an update. The boolean result reports whether a new row was created.
func (r *answerRepository) Upsert(ctx context.Context, key AnswerKey, apply AnswerApplyFunc) (models.Answer, bool, error) {
	answer, created, err := r.upsertOnce(ctx, key, apply)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		answer, created, err = r.upsertOnce(ctx, key, apply)
	}
	if err != nil {
		return models.Answer{}, false, err
	}

	return answer, created, nil
}

func (r *answerRepository) upsertOnce(ctx context.Context, key AnswerKey, apply AnswerApplyFunc) (models.Answer, bool, error) {
	var (
		answer  models.Answer
		created bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND exam_item_id = ?", key.StudentID, key.ExamItemID).
			First(&answer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			answer = models.Answer{StudentID: key.StudentID, ExamItemID: key.ExamItemID, Kind: key.Kind}
			if err := apply(&answer, false); err != nil {
				return err
			}
			created = true
			return tx.Omit("ExamItem").Create(&answer).Error
		}
		if err != nil {
			return err
		}

		if err := apply(&answer, true); err != nil {
			return err
		}
		return tx.Omit("ExamItem").Save(&answer).Error
	})
	if err != nil {
		return models.Answer{}, false, err
	}

	return answer, created, nil
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).Preload("ExamItem").First(&answer, id).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) List(ctx context.Context, filter AnswerFilter) ([]models.Answer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Answer{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var answers []models.Answer
	if err := query.Order("updated_at DESC").Order("id DESC").Find(&answers).Error; err != nil {
		return nil, 0, err
	}

	return answers, total, nil
}

func (r *answerRepository) UpdateScore(ctx context.Context, id uint, score int) (models.Answer, error) {
	result := r.db.WithContext(ctx).Model(&models.Answer{}).Where("id = ?", id).Update("score", score)
	if result.Error != nil {
		return models.Answer{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Answer{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *answerRepository) SumScoresByKind(ctx context.Context, studentID uint) (models.ScoreTotals, error) {
	return sumScoresByKind(r.db.WithContext(ctx), studentID)
}

type kindScore struct {
	Kind  models.ExamKind
	Total int
}

func sumScoresByKind(db *gorm.DB, studentID uint) (models.ScoreTotals, error) {
	var rows []kindScore
	if err := db.Model(&models.Answer{}).
		Select("kind, COALESCE(SUM(score), 0) AS total").
		Where("student_id = ?", studentID).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(models.ScoreTotals, len(models.ExamKinds))
	for _, kind := range models.ExamKinds {
		totals[kind] = 0
	}
	for _, row := range rows {
		totals[row.Kind] = row.Total
	}

	return totals, nil
}
