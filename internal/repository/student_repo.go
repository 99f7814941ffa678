package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// StudentUniqueFields carries the columns that must be unique across profiles.
type StudentUniqueFields struct {
	NationalID  string
	SeatNumber  int
	PhoneNumber string
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student, userStatus string) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error)
	FindConflicts(ctx context.Context, fields StudentUniqueFields, excludeID uint) ([]string, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("College").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("College").
		Where("user_id = ?", userID).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

// Create inserts the profile together with its zeroed results row and moves the
// owning account to userStatus, all in one transaction.
func (r *studentRepository) Create(ctx context.Context, student *models.Student, userStatus string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Results", "Answers", "User", "College").Create(student).Error; err != nil {
			return err
		}

		results := models.StudentResults{StudentID: student.ID}
		if err := tx.Create(&results).Error; err != nil {
			return err
		}
		student.Results = results

		if userStatus == "" {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", student.UserID).Update("status", userStatus).Error
	})
}

func (r *studentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return models.Student{}, result.Error
		}
	}

	return r.GetByID(ctx, id)
}

// FindConflicts returns the json names of unique fields already used by another profile.
func (r *studentRepository) FindConflicts(ctx context.Context, fields StudentUniqueFields, excludeID uint) ([]string, error) {
	checks := []struct {
		field  string
		column string
		value  interface{}
		skip   bool
	}{
		{field: "national_id", column: "national_id", value: fields.NationalID, skip: fields.NationalID == ""},
		{field: "seat_number", column: "seat_number", value: fields.SeatNumber, skip: fields.SeatNumber == 0},
		{field: "phone_number", column: "phone_number", value: fields.PhoneNumber, skip: fields.PhoneNumber == ""},
	}

	var conflicts []string
	for _, check := range checks {
		if check.skip {
			continue
		}

		query := r.db.WithContext(ctx).Model(&models.Student{}).Where(check.column+" = ?", check.value)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			conflicts = append(conflicts, check.field)
		}
	}

	return conflicts, nil
}
