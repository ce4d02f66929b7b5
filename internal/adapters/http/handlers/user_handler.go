package handlers

import (
	"strings"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/pagination"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ChangeRoleRequest represents change role request body
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER TECHNICIAN MANAGER"`
}

// ListUsers handles listing users (Manager only)
// @Summary List users
// @Description Get a paginated list of users, optionally filtered by role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param role query string false "USER, TECHNICIAN or MANAGER"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	role := strings.ToUpper(strings.TrimSpace(c.Query("role")))

	result, err := h.userService.ListUsers(c.Context(), role, pagination.GetParams(c))
	if err != nil {
		return serviceError(c, err, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// GetUser handles getting a user by ID
// @Summary Get user by ID
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user)
}

// ChangeRole handles promoting or demoting a user (Manager only)
// @Summary Change user role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body ChangeRoleRequest true "New role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	actorID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ChangeRoleRequest
	if err := bindBody(c, &req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	user, err := h.userService.ChangeRole(c.Context(), id, actorID, domain.Role(req.Role))
	if err != nil {
		return serviceError(c, err, "Failed to change role")
	}

	return response.Success(c, "Role updated successfully", user)
}
