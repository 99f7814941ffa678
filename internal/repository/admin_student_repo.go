package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/models"
)

// AdminStudentFilter defines filters for listing students from the admin panel.
type AdminStudentFilter struct {
	Search    string
	CollegeID *uint
	Status    string
	UpToLevel *bool
	Sort      string
	Page      int
	PageSize  int
}

// AdminStudentRepository exposes persistence helpers for admin student operations.
type AdminStudentRepository interface {
	List(ctx context.Context, filter AdminStudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	ListWithResults(ctx context.Context, collegeID *uint) ([]models.Student, error)
}

type adminStudentRepository struct {
	db *gorm.DB
}

// NewAdminStudentRepository constructs the admin student repository.
func NewAdminStudentRepository(db *gorm.DB) AdminStudentRepository {
	return &adminStudentRepository{db: db}
}

var adminStudentSorts = map[string]string{
	"":             "students.created_at DESC",
	"newest":       "students.created_at DESC",
	"oldest":       "students.created_at ASC",
	"name":         "students.full_name ASC",
	"seat_number":  "students.seat_number ASC",
	"-seat_number": "students.seat_number DESC",
}

func (r *adminStudentRepository) List(ctx context.Context, filter AdminStudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(students.full_name) LIKE ? OR students.national_id LIKE ? OR students.phone_number LIKE ?", like, like, like)
	}

	if filter.CollegeID != nil {
		query = query.Where("students.college_id = ?", *filter.CollegeID)
	}

	if filter.UpToLevel != nil {
		query = query.Where("students.up_to_level = ?", *filter.UpToLevel)
	}

	if filter.Status != "" {
		query = query.Joins("JOIN users ON users.id = students.user_id").Where("users.status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort, ok := adminStudentSorts[filter.Sort]
	if !ok {
		sort = adminStudentSorts[""]
	}
	query = query.Order(sort)

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var students []models.Student
	if err := query.Preload("User").Preload("College").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *adminStudentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("College").
		Where("id = ?", id).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *adminStudentRepository) ListWithResults(ctx context.Context, collegeID *uint) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if collegeID != nil {
		query = query.Where("college_id = ?", *collegeID)
	}

	var students []models.Student
	if err := query.
		Preload("College").
		Preload("Results").
		Order("seat_number ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}
