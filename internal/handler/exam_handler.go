package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// ExamHandler serves the exam catalog to students and admins.
type ExamHandler struct {
	service service.ExamCatalogService
	logger  zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamCatalogService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches the student catalog route.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Get("/:kind", h.listForStudent)
}

// RegisterAdmin attaches catalog management routes.
func (h *ExamHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
}

func (h *ExamHandler) listForStudent(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	kind := examKindParam(c)
	items, err := h.service.ListForStudent(c.Context(), userID, kind)
	if err != nil {
		if errors.Is(err, service.ErrStudentProfileMissing) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		return respondError(c, h.logger, err, "failed to list exam items")
	}

	return utils.SendSuccess(c, "exam items retrieved", items)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c, 20, 100)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	collegeID, err := parseQueryInt(c, "college_id")
	if err != nil || collegeID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid college id")
	}

	req := dto.ExamItemListRequest{
		Page:      page,
		PageSize:  pageSize,
		CollegeID: uint(collegeID),
		Kind:      strings.ToLower(strings.TrimSpace(c.Query("kind"))),
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list exam items")
	}

	return utils.SendSuccess(c, "exam items retrieved", response)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	item, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch exam item")
	}
	return utils.SendSuccess(c, "exam item retrieved", item)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamItemCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Create(c.Context(), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create exam item")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam item created", item)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.Context(), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete exam item")
	}
	return utils.SendSuccess(c, "exam item deleted", fiber.Map{"id": id})
}
