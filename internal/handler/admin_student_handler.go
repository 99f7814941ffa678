package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

// AdminStudentHandler wires admin student endpoints.
type AdminStudentHandler struct {
	service service.AdminStudentService
	logger  zerolog.Logger
}

// NewAdminStudentHandler constructs the handler.
func NewAdminStudentHandler(service service.AdminStudentService, logger zerolog.Logger) *AdminStudentHandler {
	return &AdminStudentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_student_handler").Logger(),
	}
}

// Register attaches student admin routes to the router group.
func (h *AdminStudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/review", h.review)
}

func (h *AdminStudentHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c, 20, 100)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	collegeID, err := parseQueryInt(c, "college_id")
	if err != nil || collegeID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid college id")
	}

	req := dto.AdminStudentListRequest{
		Page:      page,
		PageSize:  pageSize,
		Search:    c.Query("search"),
		CollegeID: uint(collegeID),
		Status:    c.Query("status"),
		Sort:      c.Query("sort"),
	}

	if raw := strings.TrimSpace(c.Query("up_to_level")); raw != "" {
		upToLevel, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid up_to_level")
		}
		req.UpToLevel = &upToLevel
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}

	return utils.SendSuccess(c, "students retrieved", response)
}

func (h *AdminStudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	student, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *AdminStudentHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AdminStudentReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Review(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to review student")
	}

	return utils.SendSuccess(c, "student reviewed", student)
}
