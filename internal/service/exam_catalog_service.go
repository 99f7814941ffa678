package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

// CatalogInvalidator drops cached catalog listings of a college.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, collegeID uint)
}

// ExamCatalogService serves exam items to students and manages them for admins.
type ExamCatalogService interface {
	CatalogInvalidator
	ListForStudent(ctx context.Context, userID uint, kind models.ExamKind) ([]dto.ExamItemResponse, error)
	List(ctx context.Context, req dto.ExamItemListRequest) (dto.AdminExamItemListResponse, error)
	Get(ctx context.Context, id uint) (dto.AdminExamItemResponse, error)
	Create(ctx context.Context, actor ActivityActor, payload dto.ExamItemCreateRequest) (dto.AdminExamItemResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

type examCatalogService struct {
	items     repository.ExamItemRepository
	students  repository.StudentRepository
	colleges  repository.CollegeRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewExamCatalogService constructs the catalog service. cache may be nil.
func NewExamCatalogService(
	items repository.ExamItemRepository,
	students repository.StudentRepository,
	colleges repository.CollegeRepository,
	cache *redis.Client,
	ttl time.Duration,
	validator *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) ExamCatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &examCatalogService{
		items:     items,
		students:  students,
		colleges:  colleges,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		logger:    logger.With().Str("component", "exam_catalog_service").Logger(),
	}
}

func catalogCacheKey(collegeID uint, kind models.ExamKind) string {
	return fmt.Sprintf("exam:catalog:%d:%s", collegeID, kind)
}

func (s *examCatalogService) ListForStudent(ctx context.Context, userID uint, kind models.ExamKind) ([]dto.ExamItemResponse, error) {
	if !kind.Valid() {
		return nil, ErrUnknownExamKind
	}

	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentProfileMissing
		}
		return nil, err
	}

	cacheKey := catalogCacheKey(student.CollegeID, kind)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response []dto.ExamItemResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("college_id", student.CollegeID).Str("kind", string(kind)).Msg("catalog cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read catalog cache")
		}
	}

	collegeID := student.CollegeID
	items, _, err := s.items.List(ctx, repository.ExamItemFilter{CollegeID: &collegeID, Kind: kind})
	if err != nil {
		return nil, err
	}

	response := make([]dto.ExamItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, dto.NewExamItemResponse(item))
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store catalog cache")
			}
		}
	}

	return response, nil
}

func (s *examCatalogService) List(ctx context.Context, req dto.ExamItemListRequest) (dto.AdminExamItemListResponse, error) {
	kind := models.ExamKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if kind != "" && !kind.Valid() {
		return dto.AdminExamItemListResponse{}, ErrUnknownExamKind
	}

	page := maxInt(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	filter := repository.ExamItemFilter{Kind: kind, Page: page, PageSize: pageSize}
	if req.CollegeID > 0 {
		filter.CollegeID = &req.CollegeID
	}

	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return dto.AdminExamItemListResponse{}, err
	}

	responses := make([]dto.AdminExamItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewAdminExamItemResponse(item))
	}

	return dto.AdminExamItemListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *examCatalogService) Get(ctx context.Context, id uint) (dto.AdminExamItemResponse, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminExamItemResponse{}, ErrExamItemNotFound
		}
		return dto.AdminExamItemResponse{}, err
	}
	return dto.NewAdminExamItemResponse(item), nil
}

func (s *examCatalogService) Create(ctx context.Context, actor ActivityActor, payload dto.ExamItemCreateRequest) (dto.AdminExamItemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminExamItemResponse{}, err
	}

	item := models.ExamItem{
		Kind:            models.ExamKind(payload.Kind),
		Question:        s.clean(payload.Question),
		TaskDescription: s.clean(payload.TaskDescription),
		CollegeID:       payload.CollegeID,
	}
	if item.Question == "" {
		return dto.AdminExamItemResponse{}, FieldErrors{"question": "must not be empty"}
	}

	if item.Kind == models.ExamKindMCQ {
		item.Option1 = s.clean(payload.Option1)
		item.Option2 = s.clean(payload.Option2)
		item.Option3 = s.clean(payload.Option3)
		item.CorrectAnswer = s.clean(payload.CorrectAnswer)

		matches := false
		for _, option := range item.Options() {
			if option == item.CorrectAnswer {
				matches = true
				break
			}
		}
		if !matches {
			return dto.AdminExamItemResponse{}, FieldErrors{"correct_answer": "must match one of the options"}
		}
	}

	if _, err := s.colleges.GetByID(ctx, item.CollegeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminExamItemResponse{}, FieldErrors{"college_id": "unknown college"}
		}
		return dto.AdminExamItemResponse{}, err
	}

	if err := s.items.Create(ctx, &item); err != nil {
		s.logger.Error().Err(err).Msg("failed to create exam item")
		return dto.AdminExamItemResponse{}, err
	}

	s.Invalidate(ctx, item.CollegeID)
	s.record(ctx, actor, "exam_item.created", item)

	return dto.NewAdminExamItemResponse(item), nil
}

func (s *examCatalogService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	item, err := s.items.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamItemNotFound
		}
		return err
	}

	s.Invalidate(ctx, item.CollegeID)
	s.record(ctx, actor, "exam_item.deleted", item)
	return nil
}

func (s *examCatalogService) Invalidate(ctx context.Context, collegeID uint) {
	if s.cache == nil {
		return
	}

	keys := make([]string, 0, len(models.ExamKinds))
	for _, kind := range models.ExamKinds {
		keys = append(keys, catalogCacheKey(collegeID, kind))
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("college_id", collegeID).Msg("failed to invalidate catalog cache")
	}
}

func (s *examCatalogService) record(ctx context.Context, actor ActivityActor, action string, item models.ExamItem) {
	if s.activity == nil {
		return
	}
	entityID := item.ID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: models.ActivityEntityExamItem,
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"college_id": item.CollegeID,
			"kind":       string(item.Kind),
		},
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *examCatalogService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}
