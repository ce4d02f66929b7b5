package handlers

import (
	"strings"
	"time"

	"gearguard/internal/adapters/http/middleware"
	"gearguard/internal/core/domain"
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// RequestHandler handles maintenance request endpoints
type RequestHandler struct {
	requestService *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// UpdateStageRequest moves a request to another stage. "status" is accepted
// as an alias of "stage".
type UpdateStageRequest struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
}

// AssignRequest picks the technician; omit technician_id to assign yourself
type AssignRequest struct {
	TechnicianID *uint `json:"technician_id" validate:"omitempty,gt=0"`
}

// CompleteRequest records the hours spent; 0 derives them from the start time
type CompleteRequest struct {
	DurationHours float64 `json:"duration_hours" validate:"gte=0"`
}

// List handles the kanban board
// @Summary List maintenance requests
// @Description Without equipment_id the board is returned grouped by stage
// @Description with every stage present. With equipment_id a flat list is returned.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param equipment_id query int false "Equipment ID"
// @Success 200 {object} response.Response
// @Router /requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	if equipmentID := c.QueryInt("equipment_id", 0); equipmentID > 0 {
		requests, err := h.requestService.ListByEquipment(c.Context(), uint(equipmentID))
		if err != nil {
			return response.InternalServerError(c, "Failed to list requests")
		}
		return response.Success(c, "Requests retrieved successfully", requests)
	}

	board, err := h.requestService.Board(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load board")
	}
	return response.Success(c, "Board retrieved successfully", board)
}

// Get handles getting one request
// @Summary Get maintenance request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Response{data=domain.MaintenanceRequest}
// @Failure 404 {object} response.Response
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	req, err := h.requestService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to get request")
	}
	return response.Success(c, "Request retrieved successfully", req)
}

// History handles the audit trail of one request
// @Summary Request history
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests/{id}/history [get]
func (h *RequestHandler) History(c *fiber.Ctx) error {
	events, err := h.requestService.History(c.Context(), c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to load history")
	}
	return response.Success(c, "History retrieved successfully", events)
}

// Create handles filing a new request
// @Summary Create maintenance request
// @Description PREVENTIVE requests need scheduled_date. Team, work center and
// @Description technician default from the equipment when omitted.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.RequestDraft true "Request"
// @Success 201 {object} response.Response{data=domain.MaintenanceRequest}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var draft domain.RequestDraft
	if err := bindBody(c, &draft); err != nil {
		return response.BadRequest(c, err.Error())
	}
	draft.Subject = strings.TrimSpace(draft.Subject)

	created, err := h.requestService.Create(c.Context(), viewer, draft, c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to create request")
	}
	return response.Created(c, "Request created successfully", created)
}

// UpdateStage handles moving a request between stages
// @Summary Move request to another stage
// @Description NEW to IN_PROGRESS, IN_PROGRESS to REPAIRED or SCRAP. Anything else is rejected.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body UpdateStageRequest true "Target stage"
// @Success 200 {object} response.Response{data=domain.MaintenanceRequest}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /requests/{id}/stage [patch]
func (h *RequestHandler) UpdateStage(c *fiber.Ctx) error {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req UpdateStageRequest
	if err := bindBody(c, &req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	stage := req.Stage
	if stage == "" {
		stage = req.Status
	}
	if stage == "" {
		return response.BadRequest(c, "stage is required")
	}

	updated, err := h.requestService.UpdateStage(c.Context(), viewer, c.Params("id"), domain.Stage(strings.ToUpper(stage)), c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to update stage")
	}
	return response.Success(c, "Stage updated successfully", updated)
}

// Assign handles assigning a technician
// @Summary Assign technician
// @Description Without technician_id the caller assigns themselves, which a
// @Description technician may do on an unassigned NEW request. Managers assign anyone.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body AssignRequest false "Technician"
// @Success 200 {object} response.Response{data=domain.MaintenanceRequest}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/{id}/assign [post]
func (h *RequestHandler) Assign(c *fiber.Ctx) error {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req AssignRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return response.BadRequest(c, err.Error())
		}
	}

	updated, err := h.requestService.Assign(c.Context(), viewer, c.Params("id"), req.TechnicianID, c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to assign technician")
	}
	return response.Success(c, "Technician assigned successfully", updated)
}

// Complete handles marking a request repaired
// @Summary Mark request repaired
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body CompleteRequest false "Hours spent"
// @Success 200 {object} response.Response{data=domain.MaintenanceRequest}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/{id}/complete [post]
func (h *RequestHandler) Complete(c *fiber.Ctx) error {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CompleteRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return response.BadRequest(c, err.Error())
		}
	}

	updated, err := h.requestService.Complete(c.Context(), viewer, c.Params("id"), req.DurationHours, c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to complete request")
	}
	return response.Success(c, "Request completed successfully", updated)
}

// Scrap handles scrapping a request and its equipment
// @Summary Mark request scrap
// @Description Also flags the equipment as scrapped
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Response{data=domain.MaintenanceRequest}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /requests/{id}/scrap [post]
func (h *RequestHandler) Scrap(c *fiber.Ctx) error {
	viewer, ok := middleware.CurrentViewer(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	updated, err := h.requestService.Scrap(c.Context(), viewer, c.Params("id"), c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to scrap request")
	}
	return response.Success(c, "Request scrapped successfully", updated)
}

// Calendar handles preventive work grouped by day
// @Summary Preventive maintenance calendar
// @Description Dates are inclusive; defaults to the current month
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /requests/calendar [get]
func (h *RequestHandler) Calendar(c *fiber.Ctx) error {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, -1)

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.ParseInLocation(dateLayout, raw, time.Local); err != nil {
			return response.BadRequest(c, "from must be YYYY-MM-DD")
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.ParseInLocation(dateLayout, raw, time.Local); err != nil {
			return response.BadRequest(c, "to must be YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return response.BadRequest(c, "to must not be before from")
	}

	days, err := h.requestService.Calendar(c.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		return response.InternalServerError(c, "Failed to load calendar")
	}
	return response.Success(c, "Calendar retrieved successfully", days)
}
