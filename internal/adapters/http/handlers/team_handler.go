package handlers

import (
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TeamHandler handles maintenance team endpoints
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// List handles listing teams
// @Summary List maintenance teams
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /teams [get]
func (h *TeamHandler) List(c *fiber.Ctx) error {
	teams, err := h.teamService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list teams")
	}
	return response.Success(c, "Teams retrieved successfully", teams)
}

// Get handles getting a team with its members
// @Summary Get maintenance team
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /teams/{id} [get]
func (h *TeamHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid team ID")
	}

	team, err := h.teamService.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to get team")
	}
	return response.Success(c, "Team retrieved successfully", team)
}

// Create handles creating a team (Manager only)
// @Summary Create maintenance team
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTeamInput true "Team"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /teams [post]
func (h *TeamHandler) Create(c *fiber.Ctx) error {
	var req services.CreateTeamInput
	if err := bindBody(c, &req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	team, err := h.teamService.Create(c.Context(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create team")
	}
	return response.Created(c, "Team created successfully", team)
}

// SetMembers handles replacing a team's members (Manager only)
// @Summary Replace team members
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Param body body services.SetMembersInput true "Member user IDs"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /teams/{id}/members [put]
func (h *TeamHandler) SetMembers(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid team ID")
	}

	var req services.SetMembersInput
	if err := bindBody(c, &req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	team, err := h.teamService.SetMembers(c.Context(), id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update team members")
	}
	return response.Success(c, "Team members updated successfully", team)
}
