package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// AnswerHandler accepts exam answers from students.
type AnswerHandler struct {
	service service.AnswerService
	logger  zerolog.Logger
}

// NewAnswerHandler constructs the handler.
func NewAnswerHandler(service service.AnswerService, logger zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		service: service,
		logger:  logger.With().Str("component", "answer_handler").Logger(),
	}
}

// Register attaches the listing route.
func (h *AnswerHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

// RegisterSubmissions attaches the write routes. They are kept separate so the
// router can put them behind a rate limiter.
func (h *AnswerHandler) RegisterSubmissions(router fiber.Router) {
	router.Post("/mcq", h.submitMCQ)
	router.Post("/drawing/:kind", h.submitDrawing)
}

func (h *AnswerHandler) submitMCQ(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.MCQAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	answer, err := h.service.SubmitMCQ(c.Context(), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit answer")
	}

	return h.sendAnswer(c, answer)
}

func (h *AnswerHandler) submitDrawing(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	kind := examKindParam(c)
	if !kind.IsDrawing() {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrUnknownExamKind.Error())
	}

	itemID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("exam_item_id")), 10, 64)
	if err != nil || itemID == 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"exam_item_id": "required"})
	}

	file, err := c.FormFile("answer")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrUploadMissing.Error())
	}

	answer, err := h.service.SubmitDrawing(c.Context(), userID, kind, uint(itemID), file)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit drawing")
	}

	return h.sendAnswer(c, answer)
}

func (h *AnswerHandler) sendAnswer(c *fiber.Ctx, answer dto.AnswerResponse) error {
	if answer.Created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "answer recorded", answer)
	}
	return utils.SendSuccess(c, "answer updated", answer)
}

func (h *AnswerHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	page, pageSize, err := parsePagination(c, 20, 100)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	kind := models.ExamKind(strings.ToLower(strings.TrimSpace(c.Query("kind"))))
	response, err := h.service.List(c.Context(), userID, kind, page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list answers")
	}

	return utils.SendSuccess(c, "answers retrieved", response)
}
