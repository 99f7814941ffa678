package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

var (
	// ErrCollegeNotFound indicates the college does not exist.
	ErrCollegeNotFound = errors.New("college not found")
	// ErrCollegeExists indicates a college with the same name exists.
	ErrCollegeExists = errors.New("college already exists")
)

// CollegeService manages the college directory.
type CollegeService interface {
	List(ctx context.Context) ([]dto.CollegeResponse, error)
	Get(ctx context.Context, id uint) (dto.CollegeResponse, error)
	Create(ctx context.Context, actor ActivityActor, payload dto.CollegeRequest) (dto.CollegeResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

type collegeService struct {
	repo      repository.CollegeRepository
	catalog   CatalogInvalidator
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewCollegeService constructs the college service.
func NewCollegeService(repo repository.CollegeRepository, catalog CatalogInvalidator, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) CollegeService {
	return &collegeService{
		repo:      repo,
		catalog:   catalog,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		logger:    logger.With().Str("component", "college_service").Logger(),
	}
}

func (s *collegeService) List(ctx context.Context) ([]dto.CollegeResponse, error) {
	colleges, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.CollegeResponse, 0, len(colleges))
	for _, college := range colleges {
		resp = append(resp, dto.NewCollegeResponse(college))
	}
	return resp, nil
}

func (s *collegeService) Get(ctx context.Context, id uint) (dto.CollegeResponse, error) {
	college, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CollegeResponse{}, ErrCollegeNotFound
		}
		return dto.CollegeResponse{}, err
	}
	return dto.NewCollegeResponse(college), nil
}

func (s *collegeService) Create(ctx context.Context, actor ActivityActor, payload dto.CollegeRequest) (dto.CollegeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CollegeResponse{}, err
	}

	name := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(payload.Name)))
	if name == "" {
		return dto.CollegeResponse{}, FieldErrors{"name": "must not be empty"}
	}

	college := models.College{Name: name}
	if err := s.repo.Create(ctx, &college); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CollegeResponse{}, ErrCollegeExists
		}
		return dto.CollegeResponse{}, err
	}

	s.record(ctx, actor, "college.created", college.ID, map[string]interface{}{"name": college.Name})
	return dto.NewCollegeResponse(college), nil
}

func (s *collegeService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollegeNotFound
		}
		return err
	}

	if s.catalog != nil {
		s.catalog.Invalidate(ctx, id)
	}
	s.record(ctx, actor, "college.deleted", id, nil)
	return nil
}

func (s *collegeService) record(ctx context.Context, actor ActivityActor, action string, id uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	entityID := id
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: models.ActivityEntityCollege,
		EntityID:   &entityID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}
