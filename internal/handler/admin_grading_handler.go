package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// AdminGradingHandler wires grading endpoints for examiners.
type AdminGradingHandler struct {
	service service.AdminGradingService
	logger  zerolog.Logger
}

// NewAdminGradingHandler constructs the handler.
func NewAdminGradingHandler(service service.AdminGradingService, logger zerolog.Logger) *AdminGradingHandler {
	return &AdminGradingHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *AdminGradingHandler) Register(router fiber.Router) {
	router.Patch("/:id/grade", h.grade)
}

func (h *AdminGradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AdminGradeAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	answer, err := h.service.Grade(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to grade answer")
	}

	return utils.SendSuccess(c, "answer graded", answer)
}
