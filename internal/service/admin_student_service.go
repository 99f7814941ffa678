package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

// ErrAdminStudentNotFound indicates the student was not found for admin operations.
var ErrAdminStudentNotFound = errors.New("admin student not found")

// Review decisions accepted by AdminStudentService.Review.
const (
	ReviewDecisionApprove = "approve"
	ReviewDecisionReject  = "reject"
)

// AdminStudentService orchestrates admin student management use cases.
type AdminStudentService interface {
	List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentProfileResponse, error)
	Review(ctx context.Context, id uint, payload dto.AdminStudentReviewRequest, actor ActivityActor) (dto.AdminStudentResponse, error)
}

type adminStudentService struct {
	repo      repository.AdminStudentRepository
	users     repository.UserRepository
	results   ResultsService
	validator *validator.Validate
	activity  ActivityRecorder
	publisher EventPublisher
	notifier  StudentNotifier
	logger    zerolog.Logger
}

// NewAdminStudentService constructs the admin student service.
func NewAdminStudentService(
	repo repository.AdminStudentRepository,
	users repository.UserRepository,
	results ResultsService,
	validator *validator.Validate,
	activity ActivityRecorder,
	publisher EventPublisher,
	notifier StudentNotifier,
	logger zerolog.Logger,
) AdminStudentService {
	return &adminStudentService{
		repo:      repo,
		users:     users,
		results:   results,
		validator: validator,
		activity:  activity,
		publisher: publisherOrNoop(publisher),
		notifier:  notifier,
		logger:    logger.With().Str("component", "admin_student_service").Logger(),
	}
}

func (s *adminStudentService) List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	filter := repository.AdminStudentFilter{
		Search:    strings.TrimSpace(req.Search),
		Status:    strings.TrimSpace(req.Status),
		UpToLevel: req.UpToLevel,
		Sort:      req.Sort,
		Page:      page,
		PageSize:  pageSize,
	}
	if req.CollegeID > 0 {
		filter.CollegeID = &req.CollegeID
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminStudentListResponse{}, err
	}

	responses := make([]dto.AdminStudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewAdminStudentResponse(student))
	}

	return dto.AdminStudentListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// Get returns the student with freshly recomputed results.
func (s *adminStudentService) Get(ctx context.Context, id uint) (dto.StudentProfileResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrAdminStudentNotFound
		}
		return dto.StudentProfileResponse{}, err
	}

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

func (s *adminStudentService) Review(ctx context.Context, id uint, payload dto.AdminStudentReviewRequest, actor ActivityActor) (dto.AdminStudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminStudentResponse{}, err
	}

	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrAdminStudentNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	status := models.UserStatusStudent
	if payload.Decision == ReviewDecisionReject {
		status = models.UserStatusStudentRejected
	}

	if err := s.users.UpdateStatus(ctx, student.UserID, status); err != nil {
		s.logger.Error().Err(err).Uint("student_id", student.ID).Msg("failed to update review status")
		return dto.AdminStudentResponse{}, err
	}
	student.User.Status = status

	if s.activity != nil {
		metadata := map[string]interface{}{
			"decision":    payload.Decision,
			"status":      status,
			"national_id": student.NationalID,
			"seat_number": student.SeatNumber,
		}
		if reason := strings.TrimSpace(payload.Reason); reason != "" {
			metadata["reason"] = reason
		}
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "student.reviewed",
			EntityType: models.ActivityEntityStudent,
			EntityID:   &student.ID,
			Metadata:   metadata,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to record review activity")
		}
	}

	if err := s.publisher.Publish(ctx, EventStudentReviewed, map[string]interface{}{
		"student_id": student.ID,
		"status":     status,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to publish review event")
	}

	s.notifyReview(ctx, student, payload)

	return dto.NewAdminStudentResponse(student), nil
}

func (s *adminStudentService) notifyReview(ctx context.Context, student models.Student, payload dto.AdminStudentReviewRequest) {
	if s.notifier == nil {
		return
	}

	kind := models.NotificationProfileApproved
	message := "Your profile has been approved."
	if payload.Decision == ReviewDecisionReject {
		kind = models.NotificationProfileRejected
		message = "Your profile has been rejected."
		if reason := strings.TrimSpace(payload.Reason); reason != "" {
			message += " Reason: " + reason
		}
	}

	if _, err := s.notifier.Notify(ctx, student.UserID, kind, message); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to notify review decision")
	}
}
