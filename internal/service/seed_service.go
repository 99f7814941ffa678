package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// seedActor is recorded as the author of seeded catalog entries.
var seedActor = ActivityActor{Role: systemActorRole}

// SeedService loads colleges and their exam items in bulk.
type SeedService interface {
	SeedCatalog(ctx context.Context, token string, payload dto.SeedCatalogRequest) (dto.SeedCatalogResponse, error)
}

type seedService struct {
	colleges  repository.CollegeRepository
	catalog   ExamCatalogService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(colleges repository.CollegeRepository, catalog ExamCatalogService, validator *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		colleges:  colleges,
		catalog:   catalog,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedCatalog reuses colleges that already exist by name and creates the
// rest. Items are always created; seeding the same payload twice duplicates
// them.
func (s *seedService) SeedCatalog(ctx context.Context, token string, payload dto.SeedCatalogRequest) (dto.SeedCatalogResponse, error) {
	if !s.enabled {
		return dto.SeedCatalogResponse{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedCatalogResponse{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SeedCatalogResponse{}, err
	}

	existing, err := s.colleges.List(ctx)
	if err != nil {
		return dto.SeedCatalogResponse{}, err
	}
	byName := make(map[string]models.College, len(existing))
	for _, college := range existing {
		byName[strings.ToLower(college.Name)] = college
	}

	var resp dto.SeedCatalogResponse
	for _, entry := range payload.Colleges {
		name := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(entry.Name)))
		college, ok := byName[strings.ToLower(name)]
		if !ok {
			college = models.College{Name: name}
			if err := s.colleges.Create(ctx, &college); err != nil {
				return resp, fmt.Errorf("seed college %q: %w", name, err)
			}
			byName[strings.ToLower(name)] = college
			resp.CollegesCreated++
		}

		for i, item := range entry.Items {
			item.CollegeID = college.ID
			if _, err := s.catalog.Create(ctx, seedActor, item); err != nil {
				return resp, fmt.Errorf("seed college %q item %d: %w", name, i+1, err)
			}
			resp.ItemsCreated++
		}
	}

	s.logger.Info().
		Int("colleges_created", resp.CollegesCreated).
		Int("items_created", resp.ItemsCreated).
		Msg("exam catalog seeded")
	return resp, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
