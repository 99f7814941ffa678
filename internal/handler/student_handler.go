package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// StudentHandler serves the caller's own student profile and results.
type StudentHandler struct {
	students service.StudentService
	results  service.ResultsService
	logger   zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, results service.ResultsService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		results:  results,
		logger:   logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches profile routes. POST and PUT share the upsert semantics.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/profile", h.getProfile)
	router.Post("/profile", h.upsertProfile)
	router.Put("/profile", h.upsertProfile)
	router.Get("/results", h.getResults)
}

func (h *StudentHandler) getProfile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := h.students.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrStudentProfileMissing) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		return respondError(c, h.logger, err, "failed to load profile")
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *StudentHandler) upsertProfile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.StudentProfileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	photo, err := optionalFormFile(c, "student_photo")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid photo upload")
	}

	profile, created, err := h.students.UpsertProfile(c.Context(), userID, payload, photo)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save profile")
	}

	if created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "profile created", profile)
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *StudentHandler) getResults(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	results, err := h.results.GetForUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrStudentProfileMissing) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		return respondError(c, h.logger, err, "failed to load results")
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

// optionalFormFile returns nil when the request carries no file under key.
func optionalFormFile(c *fiber.Ctx, key string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File[key]
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}
