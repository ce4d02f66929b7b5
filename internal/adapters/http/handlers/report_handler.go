package handlers

import (
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles reporting endpoints
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Summary handles the maintenance summary report
// @Summary Maintenance summary
// @Description Request counts by stage, type, team and equipment category, plus overdue
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.Summary}
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.reportService.Summary(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to build report")
	}
	return response.Success(c, "Report generated successfully", summary)
}
