package service

import (
	"context"
	"errors"
	"html"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

// StudentPhotoCategory is the storage folder for profile photos.
const StudentPhotoCategory = "students"

// StudentService manages the caller's own exam profile.
type StudentService interface {
	// UpsertProfile creates the caller's profile or updates it in place. The
	// boolean result is true when a new profile was created.
	UpsertProfile(ctx context.Context, userID uint, payload dto.StudentProfileRequest, photo *multipart.FileHeader) (dto.StudentProfileResponse, bool, error)
	GetProfile(ctx context.Context, userID uint) (dto.StudentProfileResponse, error)
}

type studentService struct {
	students     repository.StudentRepository
	colleges     repository.CollegeRepository
	results      ResultsService
	uploads      UploadService
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	publisher    EventPublisher
	logger       zerolog.Logger
	photoMaxSize int
}

// NewStudentService constructs the student profile service.
func NewStudentService(
	students repository.StudentRepository,
	colleges repository.CollegeRepository,
	results ResultsService,
	uploads UploadService,
	validator *validator.Validate,
	publisher EventPublisher,
	photoMaxDimension int,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:     students,
		colleges:     colleges,
		results:      results,
		uploads:      uploads,
		validator:    validator,
		sanitizer:    bluemonday.StrictPolicy(),
		publisher:    publisherOrNoop(publisher),
		logger:       logger.With().Str("component", "student_service").Logger(),
		photoMaxSize: photoMaxDimension,
	}
}

func (s *studentService) UpsertProfile(ctx context.Context, userID uint, payload dto.StudentProfileRequest, photo *multipart.FileHeader) (dto.StudentProfileResponse, bool, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentProfileResponse{}, false, err
	}

	existing, err := s.students.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		resp, err := s.update(ctx, existing, payload, photo)
		return resp, false, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		resp, err := s.create(ctx, userID, payload, photo)
		return resp, err == nil, err
	default:
		return dto.StudentProfileResponse{}, false, err
	}
}

func (s *studentService) GetProfile(ctx context.Context, userID uint) (dto.StudentProfileResponse, error) {
	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrStudentProfileMissing
		}
		return dto.StudentProfileResponse{}, err
	}

	return s.withResults(ctx, student)
}

// update only touches the name and photo; every other field keeps its value.
func (s *studentService) update(ctx context.Context, student models.Student, payload dto.StudentProfileRequest, photo *multipart.FileHeader) (dto.StudentProfileResponse, error) {
	updates := map[string]interface{}{}

	if payload.FullName != nil {
		name := s.cleanName(*payload.FullName)
		if name == "" {
			return dto.StudentProfileResponse{}, FieldErrors{"full_name": "must not be empty"}
		}
		updates["full_name"] = name
	}

	// A replacement photo keeps its uploaded name; only the first photo is
	// named after the national ID.
	if photo != nil {
		stored, err := s.storePhoto(ctx, "", photo)
		if err != nil {
			return dto.StudentProfileResponse{}, err
		}
		updates["photo_path"] = stored.Path
	}

	updated, err := s.students.Update(ctx, student.ID, updates)
	if err != nil {
		s.logger.Error().Err(err).Uint("student_id", student.ID).Msg("failed to update student profile")
		return dto.StudentProfileResponse{}, err
	}

	return s.withResults(ctx, updated)
}

func (s *studentService) create(ctx context.Context, userID uint, payload dto.StudentProfileRequest, photo *multipart.FileHeader) (dto.StudentProfileResponse, error) {
	fieldErrs := FieldErrors{}
	name := ""
	if payload.FullName != nil {
		name = s.cleanName(*payload.FullName)
	}
	if name == "" {
		fieldErrs.add("full_name", "is required")
	}
	if payload.NationalID == nil || strings.TrimSpace(*payload.NationalID) == "" {
		fieldErrs.add("national_id", "is required")
	}
	if payload.SeatNumber == nil {
		fieldErrs.add("seat_number", "is required")
	}
	if payload.Division == nil {
		fieldErrs.add("division", "is required")
	}
	if payload.PhoneNumber == nil || strings.TrimSpace(*payload.PhoneNumber) == "" {
		fieldErrs.add("phone_number", "is required")
	}
	if payload.CollegeID == nil {
		fieldErrs.add("college_id", "is required")
	}
	if photo == nil {
		fieldErrs.add("student_photo", "is required")
	}
	if len(fieldErrs) > 0 {
		return dto.StudentProfileResponse{}, fieldErrs
	}

	student := models.Student{
		UserID:      userID,
		FullName:    name,
		NationalID:  strings.TrimSpace(*payload.NationalID),
		SeatNumber:  *payload.SeatNumber,
		Division:    *payload.Division,
		PhoneNumber: strings.TrimSpace(*payload.PhoneNumber),
		CollegeID:   *payload.CollegeID,
	}
	if payload.Total != nil {
		student.Total = *payload.Total
	}

	college, err := s.colleges.GetByID(ctx, student.CollegeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, FieldErrors{"college_id": "unknown college"}
		}
		return dto.StudentProfileResponse{}, err
	}

	if err := s.checkUnique(ctx, student); err != nil {
		return dto.StudentProfileResponse{}, err
	}

	stored, err := s.storePhoto(ctx, student.NationalID, photo)
	if err != nil {
		return dto.StudentProfileResponse{}, err
	}
	student.PhotoPath = stored.Path

	if err := s.students.Create(ctx, &student, models.UserStatusStudentReview); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if uniqueErr := s.checkUnique(ctx, student); uniqueErr != nil {
				return dto.StudentProfileResponse{}, uniqueErr
			}
			return dto.StudentProfileResponse{}, FieldErrors{"profile": "a profile already exists for this account"}
		}
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to create student profile")
		return dto.StudentProfileResponse{}, err
	}
	student.College = college

	s.logger.Info().Uint("student_id", student.ID).Uint("college_id", student.CollegeID).Msg("student profile created")
	if err := s.publisher.Publish(ctx, EventStudentRegistered, map[string]interface{}{
		"student_id": student.ID,
		"user_id":    userID,
		"college_id": student.CollegeID,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to publish registration event")
	}

	return s.withResults(ctx, student)
}

func (s *studentService) checkUnique(ctx context.Context, student models.Student) error {
	conflicts, err := s.students.FindConflicts(ctx, repository.StudentUniqueFields{
		NationalID:  student.NationalID,
		SeatNumber:  student.SeatNumber,
		PhoneNumber: student.PhoneNumber,
	}, student.ID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	fieldErrs := FieldErrors{}
	for _, field := range conflicts {
		fieldErrs.add(field, "is already in use")
	}
	return fieldErrs
}

// storePhoto stores photo under stem, or under its uploaded name when stem is empty.
func (s *studentService) storePhoto(ctx context.Context, stem string, photo *multipart.FileHeader) (StoredUpload, error) {
	return s.uploads.Store(ctx, UploadRequest{
		Category:     StudentPhotoCategory,
		Stem:         stem,
		MaxDimension: s.photoMaxSize,
		File:         photo,
	})
}

func (s *studentService) withResults(ctx context.Context, student models.Student) (dto.StudentProfileResponse, error) {
	results, err := s.results.Evaluate(ctx, student)
	if err != nil {
		return dto.StudentProfileResponse{}, err
	}
	student.UpToLevel = results.UpToLevel

	return dto.StudentProfileResponse{
		Student: dto.NewStudentResponse(student),
		Results: dto.NewResultsResponse(results),
	}, nil
}

func (s *studentService) cleanName(name string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s.sanitizer.Sanitize(name))), " ")
}
