package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gearguard/internal/adapters/lock"
	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Request service errors
var (
	ErrRequestNotFound    = errors.New("maintenance request not found")
	ErrRequestBusy        = errors.New("request is being changed by another user, try again")
	ErrRequestConflict    = errors.New("request was changed by another user, reload and try again")
	ErrScheduleRequired   = errors.New("preventive requests require a scheduled date")
	ErrInvalidRequestType = errors.New("invalid request type")
	ErrInvalidDuration    = errors.New("duration must not be negative")
	ErrNotTechnician      = errors.New("assignee must be an active technician")
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrEquipmentScrapped  = errors.New("equipment has been scrapped")
)

// RequestService owns the maintenance request lifecycle on the server.
// Every mutation is authorised with the same capability rules the board
// uses, and runs under a per-request lock.
type RequestService struct {
	requests    repositories.RequestRepository
	users       repositories.UserRepository
	equipment   repositories.EquipmentRepository
	teams       repositories.TeamRepository
	workCenters repositories.WorkCenterRepository
	locker      lock.Locker
	lockTTL     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewRequestService creates a new request service
func NewRequestService(
	requests repositories.RequestRepository,
	users repositories.UserRepository,
	equipment repositories.EquipmentRepository,
	teams repositories.TeamRepository,
	workCenters repositories.WorkCenterRepository,
	locker lock.Locker,
	lockTTL time.Duration,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requests:    requests,
		users:       users,
		equipment:   equipment,
		teams:       teams,
		workCenters: workCenters,
		locker:      locker,
		lockTTL:     lockTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// ============================================================
// Queries
// ============================================================

// Board returns every request grouped into the four stage columns
func (s *RequestService) Board(ctx context.Context) (workflow.Board, error) {
	rows, err := s.requests.List(ctx, repositories.RequestFilter{})
	if err != nil {
		return nil, err
	}
	board, dropped := workflow.GroupByStage(toDomainList(rows, s.now()))
	for _, r := range dropped {
		s.logger.Warn("Request with unknown stage left off the board",
			zap.String("request_id", r.ID),
			zap.String("stage", string(r.Stage)),
		)
	}
	return board, nil
}

// ListByEquipment returns the flat request history of one piece of equipment
func (s *RequestService) ListByEquipment(ctx context.Context, equipmentID uint) ([]domain.MaintenanceRequest, error) {
	rows, err := s.requests.List(ctx, repositories.RequestFilter{EquipmentID: &equipmentID})
	if err != nil {
		return nil, err
	}
	return toDomainList(rows, s.now()), nil
}

// Get returns one request
func (s *RequestService) Get(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r := s.toDomain(row)
	return &r, nil
}

// History returns the audit trail of a request
func (s *RequestService) History(ctx context.Context, id string) ([]*models.RequestEvent, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.requests.History(ctx, id)
}

// Calendar groups preventive work scheduled in [from, to) by day
func (s *RequestService) Calendar(ctx context.Context, from, to time.Time) (map[string][]domain.MaintenanceRequest, error) {
	rows, err := s.requests.List(ctx, repositories.RequestFilter{
		Type:          string(domain.RequestTypePreventive),
		ScheduledFrom: &from,
		ScheduledTo:   &to,
	})
	if err != nil {
		return nil, err
	}
	return workflow.GroupByDay(toDomainList(rows, s.now()), from.Location()), nil
}

// ============================================================
// Create
// ============================================================

// Create files a new request in NEW. Equipment defaults fill in the team,
// work center and technician the draft leaves empty.
func (s *RequestService) Create(ctx context.Context, viewer domain.Viewer, draft domain.RequestDraft, ipAddress string) (*domain.MaintenanceRequest, error) {
	if !draft.Type.Valid() {
		return nil, ErrInvalidRequestType
	}
	if draft.Type == domain.RequestTypePreventive && draft.ScheduledDate == nil {
		return nil, ErrScheduleRequired
	}

	row := &models.MaintenanceRequest{
		ID:            uuid.NewString(),
		Subject:       draft.Subject,
		Description:   draft.Description,
		Type:          string(draft.Type),
		Stage:         string(domain.StageNew),
		EquipmentID:   draft.EquipmentID,
		WorkCenterID:  draft.WorkCenterID,
		TeamID:        draft.TeamID,
		ScheduledDate: draft.ScheduledDate,
		CreatedBy:     viewer.UserID,
	}

	if draft.EquipmentID != nil {
		eq, err := s.equipment.GetByID(ctx, *draft.EquipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrEquipmentNotFound
			}
			return nil, err
		}
		if eq.IsScrapped {
			return nil, ErrEquipmentScrapped
		}
		if row.TeamID == nil {
			row.TeamID = eq.DefaultTeamID
		}
		if row.WorkCenterID == nil {
			row.WorkCenterID = eq.DefaultWorkCenterID
		}
		row.AssignedTechnicianID = eq.DefaultTechnicianID
	}

	if row.TeamID != nil {
		if _, err := s.teams.GetByID(ctx, *row.TeamID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
	}
	if row.WorkCenterID != nil {
		if _, err := s.workCenters.GetByID(ctx, *row.WorkCenterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrWorkCenterNotFound
			}
			return nil, err
		}
	}

	to := string(domain.StageNew)
	event := &models.RequestEvent{
		EventType:   models.EventCreate,
		ToStage:     &to,
		Description: draft.Subject,
		PerformedBy: viewer.UserID,
		IPAddress:   ipAddress,
	}
	if err := s.requests.Create(ctx, row, event); err != nil {
		return nil, err
	}

	s.logger.Info("Request created",
		zap.String("request_id", row.ID),
		zap.String("type", row.Type),
		zap.Uint("created_by", viewer.UserID),
	)
	return s.Get(ctx, row.ID)
}

// ============================================================
// Transitions
// ============================================================

// UpdateStage moves a request along the transition table. A move to
// REPAIRED completes with an auto-calculated duration; a move to SCRAP
// scraps the equipment too.
func (s *RequestService) UpdateStage(ctx context.Context, viewer domain.Viewer, id string, to domain.Stage, ipAddress string) (*domain.MaintenanceRequest, error) {
	switch to {
	case domain.StageRepaired:
		return s.Complete(ctx, viewer, id, workflow.AutoDuration, ipAddress)
	case domain.StageScrap:
		return s.Scrap(ctx, viewer, id, ipAddress)
	}
	if !to.Valid() {
		return nil, domain.ErrUnknownStage
	}

	err := s.withLock(ctx, id, func() error {
		row, r, err := s.authorize(ctx, viewer, id, to)
		if err != nil {
			return err
		}

		now := s.now()
		fields := map[string]interface{}{"stage": string(to)}
		if to == domain.StageInProgress && row.StartedAt == nil {
			fields["started_at"] = now
		}
		return s.apply(ctx, row, fields, models.EventStageChange, r.Stage, to, "", viewer, ipAddress, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Complete marks an IN_PROGRESS request REPAIRED. A zero duration is
// derived from the time since work started.
func (s *RequestService) Complete(ctx context.Context, viewer domain.Viewer, id string, durationHours float64, ipAddress string) (*domain.MaintenanceRequest, error) {
	if durationHours < 0 || math.IsNaN(durationHours) || math.IsInf(durationHours, 0) {
		return nil, ErrInvalidDuration
	}

	err := s.withLock(ctx, id, func() error {
		row, r, err := s.authorize(ctx, viewer, id, domain.StageRepaired)
		if err != nil {
			return err
		}

		now := s.now()
		hours := durationHours
		if hours == workflow.AutoDuration {
			hours = elapsedHours(row.StartedAt, now)
		}
		fields := map[string]interface{}{
			"stage":          string(domain.StageRepaired),
			"duration_hours": hours,
			"completed_at":   now,
			"is_overdue":     false,
		}
		desc := fmt.Sprintf("completed in %.2fh", hours)
		return s.apply(ctx, row, fields, models.EventComplete, r.Stage, domain.StageRepaired, desc, viewer, ipAddress, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Scrap marks an IN_PROGRESS request SCRAP and its equipment as scrapped
func (s *RequestService) Scrap(ctx context.Context, viewer domain.Viewer, id string, ipAddress string) (*domain.MaintenanceRequest, error) {
	err := s.withLock(ctx, id, func() error {
		row, r, err := s.authorize(ctx, viewer, id, domain.StageScrap)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{
			"stage":        string(domain.StageScrap),
			"completed_at": s.now(),
			"is_overdue":   false,
		}
		if err := s.apply(ctx, row, fields, models.EventScrap, r.Stage, domain.StageScrap, "", viewer, ipAddress, row.EquipmentID); err != nil {
			return err
		}
		if row.EquipmentID != nil {
			s.logger.Warn("Equipment scrapped",
				zap.Uint("equipment_id", *row.EquipmentID),
				zap.String("request_id", id),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ============================================================
// Assignment
// ============================================================

// Assign sets the technician of a request. A nil technicianID assigns the
// caller, which only an unassigned NEW request allows a technician to do.
// Managers may assign or reassign any open request.
func (s *RequestService) Assign(ctx context.Context, viewer domain.Viewer, id string, technicianID *uint, ipAddress string) (*domain.MaintenanceRequest, error) {
	err := s.withLock(ctx, id, func() error {
		row, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		r := s.toDomain(row)
		caps := workflow.CapabilitiesFor(viewer, &r)

		target := viewer.UserID
		switch {
		case technicianID == nil || *technicianID == viewer.UserID:
			if !caps.CanSelfAssign && !caps.CanAssign && !caps.CanEditAssignment {
				return domain.ErrNotPermitted
			}
		default:
			if !caps.CanAssign && !caps.CanEditAssignment {
				return domain.ErrNotPermitted
			}
			target = *technicianID
		}

		tech, err := s.users.GetByID(ctx, target)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTechnicianNotFound
			}
			return err
		}
		if domain.Role(tech.Role) != domain.RoleTechnician || !tech.IsActive {
			return ErrNotTechnician
		}

		fields := map[string]interface{}{"assigned_technician_id": tech.ID}
		desc := "assigned to " + tech.DisplayName()
		return s.apply(ctx, row, fields, models.EventAssign, r.Stage, r.Stage, desc, viewer, ipAddress, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ============================================================
// Helpers
// ============================================================

func (s *RequestService) withLock(ctx context.Context, id string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, "request:"+id, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return ErrRequestBusy
		}
		return err
	}
	defer release()
	return fn()
}

func (s *RequestService) load(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	row, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return row, nil
}

// authorize loads the request and checks both the transition table and the
// viewer's capabilities for the move
func (s *RequestService) authorize(ctx context.Context, viewer domain.Viewer, id string, to domain.Stage) (*models.MaintenanceRequest, domain.MaintenanceRequest, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, domain.MaintenanceRequest{}, err
	}
	r := s.toDomain(row)
	if err := workflow.ValidateTransition(r.Stage, to); err != nil {
		return nil, r, err
	}
	if !workflow.CapabilitiesFor(viewer, &r).Allows(to) {
		return nil, r, domain.ErrNotPermitted
	}
	return row, r, nil
}

func (s *RequestService) apply(
	ctx context.Context,
	row *models.MaintenanceRequest,
	fields map[string]interface{},
	eventType string,
	from, to domain.Stage,
	description string,
	viewer domain.Viewer,
	ipAddress string,
	scrapEquipmentID *uint,
) error {
	fromStage, toStage := string(from), string(to)
	change := repositories.RequestChange{
		RequestID:   row.ID,
		ExpectStage: row.Stage,
		Fields:      fields,
		Event: &models.RequestEvent{
			EventType:   eventType,
			FromStage:   &fromStage,
			ToStage:     &toStage,
			Description: description,
			PerformedBy: viewer.UserID,
			IPAddress:   ipAddress,
		},
		ScrapEquipmentID: scrapEquipmentID,
		At:               s.now(),
	}
	if err := s.requests.Apply(ctx, change); err != nil {
		switch {
		case errors.Is(err, repositories.ErrStageConflict):
			return ErrRequestConflict
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrRequestNotFound
		}
		return err
	}

	s.logger.Info("Request updated",
		zap.String("request_id", row.ID),
		zap.String("event", eventType),
		zap.String("from", fromStage),
		zap.String("to", toStage),
		zap.Uint("user_id", viewer.UserID),
	)
	return nil
}

func (s *RequestService) toDomain(row *models.MaintenanceRequest) domain.MaintenanceRequest {
	r := row.ToDomain()
	r.IsOverdue = workflow.IsOverdue(&r, s.now())
	return r
}

func toDomainList(rows []*models.MaintenanceRequest, now time.Time) []domain.MaintenanceRequest {
	out := make([]domain.MaintenanceRequest, 0, len(rows))
	for _, row := range rows {
		r := row.ToDomain()
		r.IsOverdue = workflow.IsOverdue(&r, now)
		out = append(out, r)
	}
	return out
}

// elapsedHours rounds to two decimals; a request that never recorded a
// start time yields zero
func elapsedHours(startedAt *time.Time, now time.Time) float64 {
	if startedAt == nil || now.Before(*startedAt) {
		return 0
	}
	return math.Round(now.Sub(*startedAt).Hours()*100) / 100
}
