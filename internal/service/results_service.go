package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/observability"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

// Bounds of the combined score that qualifies a student for the level.
const (
	LevelMinTotal = 150
	LevelMaxTotal = 400
)

// ErrStudentNotFound indicates the referenced student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// QualifiesForLevel reports whether total lies in [LevelMinTotal, LevelMaxTotal).
func QualifiesForLevel(total int) bool {
	return total >= LevelMinTotal && total < LevelMaxTotal
}

// ResultsService aggregates answer scores into per-category results.
type ResultsService interface {
	// Evaluate recomputes and persists the results of student. Reading results
	// always goes through here, so every read writes.
	Evaluate(ctx context.Context, student models.Student) (models.StudentResults, error)
	GetForUser(ctx context.Context, userID uint) (dto.ResultsResponse, error)
}

type resultsService struct {
	students  repository.StudentRepository
	results   repository.ResultsRepository
	publisher EventPublisher
	notifier  StudentNotifier
	logger    zerolog.Logger
}

// NewResultsService constructs the results service. notifier may be nil.
func NewResultsService(students repository.StudentRepository, results repository.ResultsRepository, publisher EventPublisher, notifier StudentNotifier, logger zerolog.Logger) ResultsService {
	return &resultsService{
		students:  students,
		results:   results,
		publisher: publisherOrNoop(publisher),
		notifier:  notifier,
		logger:    logger.With().Str("component", "results_service").Logger(),
	}
}

func (s *resultsService) Evaluate(ctx context.Context, student models.Student) (models.StudentResults, error) {
	results, err := s.results.Recalculate(ctx, student.ID, QualifiesForLevel)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StudentResults{}, ErrStudentNotFound
		}
		s.logger.Error().Err(err).Uint("student_id", student.ID).Msg("failed to recalculate results")
		return models.StudentResults{}, err
	}

	observability.LevelEvaluations().WithLabelValues(strconv.FormatBool(results.UpToLevel)).Inc()

	if results.UpToLevel != student.UpToLevel {
		s.logger.Info().
			Uint("student_id", student.ID).
			Int("total", results.Total()).
			Bool("up_to_level", results.UpToLevel).
			Msg("student level changed")
		if err := s.publisher.Publish(ctx, EventStudentLevelChanged, map[string]interface{}{
			"student_id":  student.ID,
			"total":       results.Total(),
			"up_to_level": results.UpToLevel,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to publish level event")
		}
		s.notifyLevel(ctx, student, results)
	}

	return results, nil
}

func (s *resultsService) notifyLevel(ctx context.Context, student models.Student, results models.StudentResults) {
	if s.notifier == nil || student.UserID == 0 {
		return
	}

	kind := models.NotificationLevelLost
	message := fmt.Sprintf("Your total of %d is no longer within the qualifying range.", results.Total())
	if results.UpToLevel {
		kind = models.NotificationLevelReached
		message = fmt.Sprintf("Your total of %d qualifies you for the level.", results.Total())
	}

	if _, err := s.notifier.Notify(ctx, student.UserID, kind, message); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to notify level change")
	}
}

func (s *resultsService) GetForUser(ctx context.Context, userID uint) (dto.ResultsResponse, error) {
	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultsResponse{}, ErrStudentProfileMissing
		}
		return dto.ResultsResponse{}, err
	}

	results, err := s.Evaluate(ctx, student)
	if err != nil {
		return dto.ResultsResponse{}, err
	}

	return dto.NewResultsResponse(results), nil
}
