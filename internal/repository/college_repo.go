package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// CollegeRepository exposes persistence helpers for colleges.
type CollegeRepository interface {
	List(ctx context.Context) ([]models.College, error)
	GetByID(ctx context.Context, id uint) (models.College, error)
	Create(ctx context.Context, college *models.College) error
	Delete(ctx context.Context, id uint) error
}

type collegeRepository struct {
	db *gorm.DB
}

// NewCollegeRepository constructs a college repository.
func NewCollegeRepository(db *gorm.DB) CollegeRepository {
	return &collegeRepository{db: db}
}

func (r *collegeRepository) List(ctx context.Context) ([]models.College, error) {
	var colleges []models.College
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&colleges).Error; err != nil {
		return nil, err
	}
	return colleges, nil
}

func (r *collegeRepository) GetByID(ctx context.Context, id uint) (models.College, error) {
	var college models.College
	if err := r.db.WithContext(ctx).First(&college, id).Error; err != nil {
		return models.College{}, err
	}
	return college, nil
}

func (r *collegeRepository) Create(ctx context.Context, college *models.College) error {
	return r.db.WithContext(ctx).Create(college).Error
}

func (r *collegeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.College{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
