package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

// systemActorRole marks entries produced without a signed-in examiner.
const systemActorRole = "system"

var (
	// ErrActivityActionRequired is returned when an entry has no action.
	ErrActivityActionRequired = errors.New("activity action is required")
	// ErrActivityEntityUnknown is returned for entity types outside models.ActivityEntities.
	ErrActivityEntityUnknown = errors.New("activity entity type is not recognised")
)

// ActivityActor is the examiner, or the system, behind an audited action.
type ActivityActor struct {
	ID   uint
	Role string
}

// ActivityEntry is one audited action before it is persisted.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder persists audit entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error)
}

// ActivityService records and lists the examiner audit trail.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error)
	Create(ctx context.Context, actor ActivityActor, payload dto.AdminActivityCreateRequest) (dto.AdminActivityResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, validator *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validator,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

// Create stores a note written by an examiner, e.g. about an exam sitting.
func (s *activityService) Create(ctx context.Context, actor ActivityActor, payload dto.AdminActivityCreateRequest) (dto.AdminActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminActivityResponse{}, err
	}

	return s.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     payload.Action,
		EntityType: payload.EntityType,
		EntityID:   payload.EntityID,
		Metadata:   payload.Metadata,
	})
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	action := strings.ToLower(strings.TrimSpace(entry.Action))
	if action == "" {
		return dto.AdminActivityResponse{}, ErrActivityActionRequired
	}
	entity := strings.ToLower(strings.TrimSpace(entry.EntityType))
	if !models.IsActivityEntity(entity) {
		return dto.AdminActivityResponse{}, fmt.Errorf("%w: %q", ErrActivityEntityUnknown, entry.EntityType)
	}

	role := strings.ToLower(strings.TrimSpace(entry.ActorRole))
	if role == "" {
		role = systemActorRole
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  role,
		Action:     action,
		EntityType: entity,
		EntityID:   entry.EntityID,
		Metadata:   redactMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", action).Str("entity_type", entity).Msg("failed to persist activity log")
		return dto.AdminActivityResponse{}, err
	}

	return dto.NewAdminActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
		Since:      req.Since,
	}
	if filter.EntityType != "" && !models.IsActivityEntity(filter.EntityType) {
		return dto.AdminActivityListResponse{}, FieldErrors{"entity_type": "unknown entity type"}
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}
	if filter.Since != nil && filter.Since.After(time.Now()) {
		return dto.AdminActivityListResponse{}, FieldErrors{"since": "must not be in the future"}
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminActivityListResponse{}, err
	}

	items := make([]dto.AdminActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAdminActivityResponse(entry))
	}

	return dto.AdminActivityListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(filter.Page, req.PageSize, total),
	}, nil
}

// redactMetadata keeps student identifiers recognisable to an examiner
// without storing them in full.
func redactMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	redacted := datatypes.JSONMap{}
	for key, value := range metadata {
		switch lower := strings.ToLower(key); {
		case strings.Contains(lower, "password"), strings.Contains(lower, "token"), strings.Contains(lower, "secret"):
			redacted[key] = "***"
		case lower == "national_id":
			redacted[key] = maskTail(value, 4)
		case strings.HasPrefix(lower, "phone"):
			redacted[key] = maskTail(value, 3)
		case strings.Contains(lower, "email"):
			redacted[key] = maskEmail(value)
		default:
			redacted[key] = value
		}
	}
	return redacted
}

func maskTail(value interface{}, visible int) string {
	text, ok := value.(string)
	if !ok || len(text) <= visible {
		return "***"
	}
	return strings.Repeat("*", len(text)-visible) + text[len(text)-visible:]
}

func maskEmail(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return "***"
	}
	at := strings.LastIndex(text, "@")
	if at < 1 {
		return "***"
	}
	return text[:1] + "***" + text[at:]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
