package services

import (
	"context"
	"errors"
	"time"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/core/domain"
	"gearguard/internal/pkg/pagination"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Equipment service errors
var (
	ErrEquipmentNotFound     = errors.New("equipment not found")
	ErrSerialNumberTaken     = errors.New("serial number already registered")
	ErrWorkCenterNotFound    = errors.New("work center not found")
	ErrWorkCenterCodeTaken   = errors.New("work center code already exists")
	ErrInvalidWarrantyPeriod = errors.New("warranty end must be after the purchase date")
)

// EquipmentService manages equipment and work centers
type EquipmentService struct {
	equipment   repositories.EquipmentRepository
	workCenters repositories.WorkCenterRepository
	teams       repositories.TeamRepository
	users       repositories.UserRepository
	requests    repositories.RequestRepository
	logger      *zap.Logger
}

// NewEquipmentService creates a new equipment service
func NewEquipmentService(
	equipment repositories.EquipmentRepository,
	workCenters repositories.WorkCenterRepository,
	teams repositories.TeamRepository,
	users repositories.UserRepository,
	requests repositories.RequestRepository,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		equipment:   equipment,
		workCenters: workCenters,
		teams:       teams,
		users:       users,
		requests:    requests,
		logger:      logger,
	}
}

// CreateEquipmentInput represents create equipment input
type CreateEquipmentInput struct {
	Name                string     `json:"name" validate:"required,max=150"`
	SerialNumber        string     `json:"serial_number" validate:"required,max=100"`
	Category            string     `json:"category" validate:"max=50"`
	Department          string     `json:"department" validate:"max=100"`
	Location            string     `json:"location" validate:"max=150"`
	OwnerEmployee       string     `json:"owner_employee" validate:"max=150"`
	PurchaseDate        *time.Time `json:"purchase_date"`
	WarrantyEnd         *time.Time `json:"warranty_end"`
	DefaultTeamID       *uint      `json:"default_team_id"`
	DefaultTechnicianID *uint      `json:"default_technician_id"`
	DefaultWorkCenterID *uint      `json:"default_work_center_id"`
}

// CreateWorkCenterInput represents create work center input
type CreateWorkCenterInput struct {
	Code               string  `json:"code" validate:"required,max=20"`
	Name               string  `json:"name" validate:"required,max=100"`
	CostPerHour        float64 `json:"cost_per_hour" validate:"gte=0"`
	CapacityEfficiency float64 `json:"capacity_efficiency" validate:"gte=0,lte=100"`
	OEETarget          float64 `json:"oee_target" validate:"gte=0,lte=100"`
}

// ============================================================
// Equipment
// ============================================================

func (s *EquipmentService) List(ctx context.Context, filter repositories.EquipmentFilter, params *pagination.Params) (*pagination.Response, error) {
	items, total, err := s.equipment.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.EquipmentResponse, len(items))
	for i, e := range items {
		out[i] = e.ToResponse()
	}
	return pagination.NewResponse(out, params, total), nil
}

// Get returns equipment with its count of open requests
func (s *EquipmentService) Get(ctx context.Context, id uint) (*models.EquipmentResponse, error) {
	e, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}

	resp := e.ToResponse()
	resp.OpenRequests, err = s.requests.CountOpenByEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *EquipmentService) Create(ctx context.Context, input *CreateEquipmentInput) (*models.EquipmentResponse, error) {
	if input.PurchaseDate != nil && input.WarrantyEnd != nil && input.WarrantyEnd.Before(*input.PurchaseDate) {
		return nil, ErrInvalidWarrantyPeriod
	}
	if input.DefaultTeamID != nil {
		if _, err := s.teams.GetByID(ctx, *input.DefaultTeamID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
	}
	if input.DefaultWorkCenterID != nil {
		if _, err := s.workCenters.GetByID(ctx, *input.DefaultWorkCenterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrWorkCenterNotFound
			}
			return nil, err
		}
	}
	if input.DefaultTechnicianID != nil {
		tech, err := s.users.GetByID(ctx, *input.DefaultTechnicianID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTechnicianNotFound
			}
			return nil, err
		}
		if domain.Role(tech.Role) != domain.RoleTechnician {
			return nil, ErrNotTechnician
		}
	}

	e := &models.Equipment{
		Name:                input.Name,
		SerialNumber:        input.SerialNumber,
		Category:            input.Category,
		Department:          input.Department,
		Location:            input.Location,
		OwnerEmployee:       input.OwnerEmployee,
		PurchaseDate:        input.PurchaseDate,
		WarrantyEnd:         input.WarrantyEnd,
		DefaultTeamID:       input.DefaultTeamID,
		DefaultTechnicianID: input.DefaultTechnicianID,
		DefaultWorkCenterID: input.DefaultWorkCenterID,
	}
	if err := s.equipment.Create(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSerialNumberTaken
		}
		return nil, err
	}

	s.logger.Info("Equipment registered", zap.Uint("equipment_id", e.ID), zap.String("serial", e.SerialNumber))
	return s.Get(ctx, e.ID)
}

// ============================================================
// Work Centers
// ============================================================

func (s *EquipmentService) ListWorkCenters(ctx context.Context) ([]*models.WorkCenter, error) {
	return s.workCenters.List(ctx)
}

func (s *EquipmentService) CreateWorkCenter(ctx context.Context, input *CreateWorkCenterInput) (*models.WorkCenter, error) {
	wc := &models.WorkCenter{
		Code:               input.Code,
		Name:               input.Name,
		CostPerHour:        input.CostPerHour,
		CapacityEfficiency: input.CapacityEfficiency,
		OEETarget:          input.OEETarget,
	}
	if wc.CapacityEfficiency == 0 {
		wc.CapacityEfficiency = 100
	}
	if err := s.workCenters.Create(ctx, wc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrWorkCenterCodeTaken
		}
		return nil, err
	}
	return wc, nil
}
