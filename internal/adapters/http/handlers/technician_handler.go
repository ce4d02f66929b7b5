package handlers

import (
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TechnicianHandler handles technician lookup endpoints
type TechnicianHandler struct {
	technicianService *services.TechnicianService
}

// NewTechnicianHandler creates a new technician handler
func NewTechnicianHandler(technicianService *services.TechnicianService) *TechnicianHandler {
	return &TechnicianHandler{technicianService: technicianService}
}

// Available feeds the assignment picker
// @Summary Available technicians
// @Description Active technicians ordered by open workload, optionally within one team
// @Tags Technicians
// @Produce json
// @Security BearerAuth
// @Param team_id query int false "Team ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /technicians/available [get]
func (h *TechnicianHandler) Available(c *fiber.Ctx) error {
	var teamID *uint
	if raw := c.QueryInt("team_id", 0); raw > 0 {
		id := uint(raw)
		teamID = &id
	}

	techs, err := h.technicianService.Available(c.Context(), teamID)
	if err != nil {
		return serviceError(c, err, "Failed to list technicians")
	}
	return response.Success(c, "Technicians retrieved successfully", techs)
}
