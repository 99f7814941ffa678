package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

// ErrAnswerNotFound indicates the answer was not located.
var ErrAnswerNotFound = errors.New("answer not found")

// ErrAnswerNotGradable indicates the answer is scored automatically.
var ErrAnswerNotGradable = errors.New("only drawing answers can be graded manually")

// AdminGradingService lets examiners score drawing answers.
type AdminGradingService interface {
	Grade(ctx context.Context, answerID uint, payload dto.AdminGradeAnswerRequest, actor ActivityActor) (dto.AnswerResponse, error)
}

type adminGradingService struct {
	repo      repository.AnswerRepository
	validator *validator.Validate
	activity  ActivityRecorder
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewAdminGradingService constructs the grading service.
func NewAdminGradingService(repo repository.AnswerRepository, validator *validator.Validate, activity ActivityRecorder, publisher EventPublisher, logger zerolog.Logger) AdminGradingService {
	return &adminGradingService{
		repo:      repo,
		validator: validator,
		activity:  activity,
		publisher: publisherOrNoop(publisher),
		logger:    logger.With().Str("component", "admin_grading_service").Logger(),
	}
}

func (s *adminGradingService) Grade(ctx context.Context, answerID uint, payload dto.AdminGradeAnswerRequest, actor ActivityActor) (dto.AnswerResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/art-exam-api/internal/service/admin_grading")
	ctx, span := tracer.Start(ctx, "grading.update")
	span.SetAttributes(
		attribute.Int64("grading.answer_id", int64(answerID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	answer, err := s.repo.GetByID(ctx, answerID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "answer_not_found")
			return dto.AnswerResponse{}, ErrAnswerNotFound
		}
		span.SetStatus(codes.Error, "answer_lookup_failed")
		return dto.AnswerResponse{}, err
	}

	if !answer.Kind.IsDrawing() {
		span.RecordError(ErrAnswerNotGradable)
		span.SetStatus(codes.Error, "answer_not_gradable")
		return dto.AnswerResponse{}, ErrAnswerNotGradable
	}

	score := *payload.Score
	if answer.Score == score {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewAnswerResponse(answer), nil
	}

	previous := answer.Score
	updated, err := s.repo.UpdateScore(ctx, answer.ID, score)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer_update_failed")
		return dto.AnswerResponse{}, err
	}

	if s.activity != nil {
		metadata := map[string]interface{}{
			"answer_id":      updated.ID,
			"student_id":     updated.StudentID,
			"exam_item_id":   updated.ExamItemID,
			"kind":           string(updated.Kind),
			"score":          score,
			"previous_score": previous,
		}
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "answer.graded",
			EntityType: models.ActivityEntityAnswer,
			EntityID:   &updated.ID,
			Metadata:   metadata,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("answer_id", updated.ID).Msg("failed to record grading activity")
		}
	}

	if err := s.publisher.Publish(ctx, EventAnswerGraded, map[string]interface{}{
		"answer_id":  updated.ID,
		"student_id": updated.StudentID,
		"score":      score,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("answer_id", updated.ID).Msg("failed to publish grading event")
	}

	span.SetAttributes(attribute.Int("grading.score", score))
	return dto.NewAnswerResponse(updated), nil
}
