package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminExportHandler serves spreadsheet downloads.
type AdminExportHandler struct {
	service service.ExportService
	logger  zerolog.Logger
}

// NewAdminExportHandler constructs the handler.
func NewAdminExportHandler(service service.ExportService, logger zerolog.Logger) *AdminExportHandler {
	return &AdminExportHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_export_handler").Logger(),
	}
}

// Register attaches export routes.
func (h *AdminExportHandler) Register(router fiber.Router) {
	router.Get("/results", h.results)
}

func (h *AdminExportHandler) results(c *fiber.Ctx) error {
	collegeID, err := parseQueryInt(c, "college_id")
	if err != nil || collegeID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid college id")
	}

	var filter *uint
	if collegeID > 0 {
		id := uint(collegeID)
		filter = &id
	}

	workbook, err := h.service.Results(c.Context(), filter, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to export results")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", workbook.FileName))
	return c.Status(fiber.StatusOK).Send(workbook.Content)
}
