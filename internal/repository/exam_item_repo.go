package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// ExamItemFilter narrows exam item queries.
type ExamItemFilter struct {
	CollegeID *uint
	Kind      models.ExamKind
	Page      int
	PageSize  int
}

// ExamItemRepository exposes persistence helpers for the exam catalog.
type ExamItemRepository interface {
	List(ctx context.Context, filter ExamItemFilter) ([]models.ExamItem, int64, error)
	GetByID(ctx context.Context, id uint) (models.ExamItem, error)
	Create(ctx context.Context, item *models.ExamItem) error
	Delete(ctx context.Context, id uint) (models.ExamItem, error)
}

type examItemRepository struct {
	db *gorm.DB
}

// NewExamItemRepository constructs an exam item repository.
func NewExamItemRepository(db *gorm.DB) ExamItemRepository {
	return &examItemRepository{db: db}
}

func (r *examItemRepository) List(ctx context.Context, filter ExamItemFilter) ([]models.ExamItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExamItem{})

	if filter.CollegeID != nil {
		query = query.Where("college_id = ?", *filter.CollegeID)
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

	var items []models.ExamItem
	if err := query.Order("id ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *examItemRepository) GetByID(ctx context.Context, id uint) (models.ExamItem, error) {
	var item models.ExamItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return models.ExamItem{}, err
	}
	return item, nil
}

func (r *examItemRepository) Create(ctx context.Context, item *models.ExamItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *examItemRepository) Delete(ctx context.Context, id uint) (models.ExamItem, error) {
	var item models.ExamItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return models.ExamItem{}, err
	}
	return item, nil
}
