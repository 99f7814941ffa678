package service

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/observability"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

var (
	// ErrStudentProfileMissing indicates the caller has no student profile yet.
	ErrStudentProfileMissing = errors.New("student profile not found")
	// ErrExamItemNotFound indicates the referenced exam item does not exist.
	ErrExamItemNotFound = errors.New("exam item not found")
	// ErrExamItemOutOfScope indicates the item is not offered to the caller's college or kind.
	ErrExamItemOutOfScope = errors.New("exam item is not available for this student")
	// ErrUnknownExamKind indicates an unsupported kind in the request path.
	ErrUnknownExamKind = errors.New("unknown exam kind")
)

// AnswerService records student answers for every exam kind.
type AnswerService interface {
	SubmitMCQ(ctx context.Context, userID uint, payload dto.MCQAnswerRequest) (dto.AnswerResponse, error)
	SubmitDrawing(ctx context.Context, userID uint, kind models.ExamKind, examItemID uint, file *multipart.FileHeader) (dto.AnswerResponse, error)
	List(ctx context.Context, userID uint, kind models.ExamKind, page, pageSize int) (dto.AnswerListResponse, error)
}

type answerService struct {
	students  repository.StudentRepository
	items     repository.ExamItemRepository
	answers   repository.AnswerRepository
	uploads   UploadService
	validator *validator.Validate
	publisher EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAnswerService constructs the answer service.
func NewAnswerService(
	students repository.StudentRepository,
	items repository.ExamItemRepository,
	answers repository.AnswerRepository,
	uploads UploadService,
	validator *validator.Validate,
	publisher EventPublisher,
	logger zerolog.Logger,
) AnswerService {
	return &answerService{
		students:  students,
		items:     items,
		answers:   answers,
		uploads:   uploads,
		validator: validator,
		publisher: publisherOrNoop(publisher),
		logger:    logger.With().Str("component", "answer_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/art-exam-api/internal/service/answer"),
	}
}

func (s *answerService) SubmitMCQ(ctx context.Context, userID uint, payload dto.MCQAnswerRequest) (dto.AnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnswerResponse{}, err
	}

	student, item, err := s.resolveScope(ctx, userID, models.ExamKindMCQ, payload.ExamItemID)
	if err != nil {
		s.recordOutcome(models.ExamKindMCQ, err)
		return dto.AnswerResponse{}, err
	}

	return s.submit(ctx, student, item, payload.Answer, MCQScoring)
}

func (s *answerService) SubmitDrawing(ctx context.Context, userID uint, kind models.ExamKind, examItemID uint, file *multipart.FileHeader) (dto.AnswerResponse, error) {
	if !kind.IsDrawing() {
		return dto.AnswerResponse{}, ErrUnknownExamKind
	}

	student, item, err := s.resolveScope(ctx, userID, kind, examItemID)
	if err != nil {
		s.recordOutcome(kind, err)
		return dto.AnswerResponse{}, err
	}

	stored, err := s.uploads.Store(ctx, UploadRequest{
		Category: kind.StorageCategory(),
		File:     file,
	})
	if err != nil {
		s.recordOutcome(kind, err)
		return dto.AnswerResponse{}, err
	}

	return s.submit(ctx, student, item, stored.Path, nil)
}

func (s *answerService) List(ctx context.Context, userID uint, kind models.ExamKind, page, pageSize int) (dto.AnswerListResponse, error) {
	if kind != "" && !kind.Valid() {
		return dto.AnswerListResponse{}, ErrUnknownExamKind
	}

	student, err := s.studentFor(ctx, userID)
	if err != nil {
		return dto.AnswerListResponse{}, err
	}

	page = maxInt(page, 1)
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	answers, total, err := s.answers.List(ctx, repository.AnswerFilter{
		StudentID: &student.ID,
		Kind:      kind,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.AnswerListResponse{}, err
	}

	items := make([]dto.AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		items = append(items, dto.NewAnswerResponse(answer))
	}

	return dto.AnswerListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, pageSize, total)}, nil
}

// submit upserts the single answer row for (student, item). Scoring, when
// present, sees the previously stored value before it is replaced.
func (s *answerService) submit(ctx context.Context, student models.Student, item models.ExamItem, value string, scoring ScoringStrategy) (dto.AnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "answer.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("answer.student_id", int64(student.ID)),
		attribute.Int64("answer.exam_item_id", int64(item.ID)),
		attribute.String("answer.kind", string(item.Kind)),
	)

	key := repository.AnswerKey{StudentID: student.ID, ExamItemID: item.ID, Kind: item.Kind}
	answer, created, err := s.answers.Upsert(ctx, key, func(answer *models.Answer, exists bool) error {
		var previous *string
		if exists {
			prior := answer.Value
			previous = &prior
		}
		answer.Value = value
		answer.Kind = item.Kind
		if scoring != nil {
			scoring(answer, previous, item)
			return nil
		}
		// A new drawing has not been graded yet.
		if previous != nil && *previous != value {
			answer.Score = 0
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert_failed")
		s.recordOutcome(item.Kind, err)
		s.logger.Error().Err(err).Uint("student_id", student.ID).Uint("exam_item_id", item.ID).Msg("failed to store answer")
		return dto.AnswerResponse{}, err
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	observability.AnswerSubmissions().WithLabelValues(string(item.Kind), outcome).Inc()
	span.SetAttributes(
		attribute.Bool("answer.created", created),
		attribute.Int("answer.score", answer.Score),
	)

	if err := s.publisher.Publish(ctx, EventAnswerSubmitted, map[string]interface{}{
		"answer_id":    answer.ID,
		"student_id":   student.ID,
		"exam_item_id": item.ID,
		"kind":         item.Kind,
		"created":      created,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("failed to publish answer event")
	}

	resp := dto.NewAnswerResponse(answer)
	resp.Created = created
	return resp, nil
}

// resolveScope loads the caller's profile and checks the item belongs to the
// caller's college and the requested kind.
func (s *answerService) resolveScope(ctx context.Context, userID uint, kind models.ExamKind, examItemID uint) (models.Student, models.ExamItem, error) {
	student, err := s.studentFor(ctx, userID)
	if err != nil {
		return models.Student{}, models.ExamItem{}, err
	}

	item, err := s.items.GetByID(ctx, examItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, models.ExamItem{}, ErrExamItemNotFound
		}
		return models.Student{}, models.ExamItem{}, err
	}

	if item.CollegeID != student.CollegeID || item.Kind != kind {
		s.logger.Info().
			Uint("student_id", student.ID).
			Uint("exam_item_id", item.ID).
			Str("kind", string(kind)).
			Msg("rejected answer for item outside student scope")
		return models.Student{}, models.ExamItem{}, ErrExamItemOutOfScope
	}

	return student, item, nil
}

func (s *answerService) studentFor(ctx context.Context, userID uint) (models.Student, error) {
	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentProfileMissing
		}
		return models.Student{}, err
	}
	return student, nil
}

func (s *answerService) recordOutcome(kind models.ExamKind, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, ErrStudentProfileMissing), errors.Is(err, ErrExamItemOutOfScope):
		outcome = "out_of_scope"
	case errors.Is(err, ErrExamItemNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrUploadTooLarge), errors.Is(err, ErrUploadTypeNotAllowed), errors.Is(err, ErrUploadScanFailed), errors.Is(err, ErrUploadMissing):
		outcome = "invalid_upload"
	}
	observability.AnswerSubmissions().WithLabelValues(string(kind), outcome).Inc()
}
