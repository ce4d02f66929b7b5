package handlers

import (
	"errors"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/services"
	"gearguard/internal/pkg/response"
	"gearguard/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = errors.New("Invalid request body")

// bindBody parses and validates a JSON body
func bindBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return validate.Struct(dst)
}

// serviceError maps a service or workflow error onto the response envelope
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrEquipmentNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrWorkCenterNotFound),
		errors.Is(err, services.ErrTechnicianNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, domain.ErrNotPermitted),
		errors.Is(err, services.ErrCannotChangeOwnRole):
		return response.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrRequestBusy),
		errors.Is(err, services.ErrRequestConflict),
		errors.Is(err, services.ErrTeamAlreadyExists),
		errors.Is(err, services.ErrSerialNumberTaken),
		errors.Is(err, services.ErrWorkCenterCodeTaken),
		errors.Is(err, services.ErrUserAlreadyExists):
		return response.Conflict(c, err.Error())

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrUnknownStage),
		errors.Is(err, services.ErrScheduleRequired),
		errors.Is(err, services.ErrInvalidRequestType),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrNotTechnician),
		errors.Is(err, services.ErrEquipmentScrapped),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidWarrantyPeriod):
		return response.BadRequest(c, err.Error())
	}
	return response.InternalServerError(c, fallback)
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
