package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// CollegeHandler serves the college directory.
type CollegeHandler struct {
	service service.CollegeService
	logger  zerolog.Logger
}

// NewCollegeHandler constructs the handler.
func NewCollegeHandler(service service.CollegeService, logger zerolog.Logger) *CollegeHandler {
	return &CollegeHandler{
		service: service,
		logger:  logger.With().Str("component", "college_handler").Logger(),
	}
}

// Register attaches the public read-only routes.
func (h *CollegeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterAdmin attaches the management routes.
func (h *CollegeHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
}

func (h *CollegeHandler) list(c *fiber.Ctx) error {
	colleges, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list colleges")
	}
	return utils.SendSuccess(c, "colleges retrieved", colleges)
}

func (h *CollegeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	college, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch college")
	}
	return utils.SendSuccess(c, "college retrieved", college)
}

func (h *CollegeHandler) create(c *fiber.Ctx) error {
	var payload dto.CollegeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	college, err := h.service.Create(c.Context(), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create college")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "college created", college)
}

func (h *CollegeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.Context(), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete college")
	}
	return utils.SendSuccess(c, "college deleted", fiber.Map{"id": id})
}
