package handlers

import (
	"strconv"
	"strings"

	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/pagination"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EquipmentHandler handles equipment and work center endpoints
type EquipmentHandler struct {
	equipmentService *services.EquipmentService
	requestService   *services.RequestService
}

// NewEquipmentHandler creates a new equipment handler
func NewEquipmentHandler(equipmentService *services.EquipmentService, requestService *services.RequestService) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentService: equipmentService,
		requestService:   requestService,
	}
}

// ============================================================
// Equipment
// ============================================================

// List handles listing equipment
// @Summary List equipment
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or serial number contains"
// @Param category query string false "Category"
// @Param scrapped query bool false "Only scrapped (true) or only active (false)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	filter := repositories.EquipmentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
	}
	if raw := c.Query("scrapped"); raw != "" {
		scrapped, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "scrapped must be true or false")
		}
		filter.Scrapped = &scrapped
	}

	result, err := h.equipmentService.List(c.Context(), filter, pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to list equipment")
	}
	return response.Success(c, "Equipment retrieved successfully", result)
}

// Get handles getting one piece of equipment
// @Summary Get equipment
// @Description Includes the number of open maintenance requests
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid equipment ID")
	}

	equipment, err := h.equipmentService.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to get equipment")
	}
	return response.Success(c, "Equipment retrieved successfully", equipment)
}

// Create handles registering equipment (Manager only)
// @Summary Register equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEquipmentInput true "Equipment"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	var req services.CreateEquipmentInput
	if err := bindBody(c, &req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	equipment, err := h.equipmentService.Create(c.Context(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to register equipment")
	}
	return response.Created(c, "Equipment registered successfully", equipment)
}

// Requests handles the maintenance history of one piece of equipment
// @Summary Equipment maintenance requests
// @Description Flat list of every request filed against the equipment
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /equipment/{id}/requests [get]
func (h *EquipmentHandler) Requests(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid equipment ID")
	}
	if _, err := h.equipmentService.Get(c.Context(), id); err != nil {
		return serviceError(c, err, "Failed to get equipment")
	}

	requests, err := h.requestService.ListByEquipment(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to list requests")
	}
	return response.Success(c, "Requests retrieved successfully", requests)
}

// ============================================================
// Work Centers
// ============================================================

// ListWorkCenters handles listing work centers
// @Summary List work centers
// @Tags WorkCenters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /work-centers [get]
func (h *EquipmentHandler) ListWorkCenters(c *fiber.Ctx) error {
	centers, err := h.equipmentService.ListWorkCenters(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list work centers")
	}
	return response.Success(c, "Work centers retrieved successfully", centers)
}

// CreateWorkCenter handles creating a work center (Manager only)
// @Summary Create work center
// @Tags WorkCenters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateWorkCenterInput true "Work center"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /work-centers [post]
func (h *EquipmentHandler) CreateWorkCenter(c *fiber.Ctx) error {
	var req services.CreateWorkCenterInput
	if err := bindBody(c, &req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	center, err := h.equipmentService.CreateWorkCenter(c.Context(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create work center")
	}
	return response.Created(c, "Work center created successfully", center)
}
