package repositories

import (
	"context"
	"fmt"
	"time"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/core/domain"

	"gorm.io/gorm"
)

var openStages = []string{string(domain.StageNew), string(domain.StageInProgress)}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new maintenance request repository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create inserts the request and its CREATE event in one transaction
func (r *requestRepository) Create(ctx context.Context, req *models.MaintenanceRequest, event *models.RequestEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		event.RequestID = req.ID
		return tx.Create(event).Error
	})
}

func (r *requestRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Equipment").
		Preload("WorkCenter").
		Preload("Team").
		Preload("AssignedTechnician")
}

// GetByID gets a request with its relations
func (r *requestRepository) GetByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	var req models.MaintenanceRequest
	err := r.withRelations(r.db.WithContext(ctx)).Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests in creation order
func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]*models.MaintenanceRequest, error) {
	var reqs []*models.MaintenanceRequest

	query := r.withRelations(r.db.WithContext(ctx))
	if filter.EquipmentID != nil {
		query = query.Where("equipment_id = ?", *filter.EquipmentID)
	}
	if filter.TechnicianID != nil {
		query = query.Where("assigned_technician_id = ?", *filter.TechnicianID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ScheduledFrom != nil {
		query = query.Where("scheduled_date >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		query = query.Where("scheduled_date < ?", *filter.ScheduledTo)
	}

	err := query.Order("created_at ASC").Find(&reqs).Error
	return reqs, err
}

// Apply runs a guarded update, the optional equipment scrap and the audit
// event in a single transaction
func (r *requestRepository) Apply(ctx context.Context, change RequestChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.MaintenanceRequest{}).Where("id = ?", change.RequestID)
		if change.ExpectStage != "" {
			query = query.Where("stage = ?", change.ExpectStage)
		}
		result := query.Updates(change.Fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := r.checkUnchanged(tx, change); err != nil {
				return err
			}
		}

		if change.ScrapEquipmentID != nil {
			err := tx.Model(&models.Equipment{}).
				Where("id = ?", *change.ScrapEquipmentID).
				Updates(map[string]interface{}{"is_scrapped": true, "scrapped_at": change.At}).Error
			if err != nil {
				return err
			}
		}

		if change.Event != nil {
			change.Event.RequestID = change.RequestID
			return tx.Create(change.Event).Error
		}
		return nil
	})
}

// checkUnchanged tells a no-op update apart from a missing row or a stage
// that moved since it was read
func (r *requestRepository) checkUnchanged(tx *gorm.DB, change RequestChange) error {
	var stages []string
	err := tx.Model(&models.MaintenanceRequest{}).
		Where("id = ?", change.RequestID).
		Pluck("stage", &stages).Error
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		return gorm.ErrRecordNotFound
	}
	if change.ExpectStage != "" && stages[0] != change.ExpectStage {
		return ErrStageConflict
	}
	return nil
}

// History lists the audit events of a request, oldest first
func (r *requestRepository) History(ctx context.Context, id string) ([]*models.RequestEvent, error) {
	var events []*models.RequestEvent
	err := r.db.WithContext(ctx).
		Preload("Performer").
		Where("request_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// CountOpenByEquipment counts NEW and IN_PROGRESS requests on a piece of equipment
func (r *requestRepository) CountOpenByEquipment(ctx context.Context, equipmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MaintenanceRequest{}).
		Where("equipment_id = ?", equipmentID).
		Where("stage IN ?", openStages).
		Count(&count).Error
	return count, err
}

// CountOpenByTechnician returns the open workload per assigned technician
func (r *requestRepository) CountOpenByTechnician(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		TechnicianID uint
		Total        int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.MaintenanceRequest{}).
		Select("assigned_technician_id AS technician_id, COUNT(*) AS total").
		Where("assigned_technician_id IS NOT NULL").
		Where("stage IN ?", openStages).
		Group("assigned_technician_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	load := make(map[uint]int64, len(rows))
	for _, row := range rows {
		load[row.TechnicianID] = row.Total
	}
	return load, nil
}

// Count dimensions
const (
	DimensionStage    = "stage"
	DimensionType     = "type"
	DimensionTeam     = "team"
	DimensionCategory = "category"
)

// CountBy groups request counts by one report dimension
func (r *requestRepository) CountBy(ctx context.Context, dimension string) ([]StageCount, error) {
	query := r.db.WithContext(ctx).Model(&models.MaintenanceRequest{})

	switch dimension {
	case DimensionStage:
		query = query.Select("maintenance_requests.stage AS label, COUNT(*) AS total").
			Group("maintenance_requests.stage")
	case DimensionType:
		query = query.Select("maintenance_requests.type AS label, COUNT(*) AS total").
			Group("maintenance_requests.type")
	case DimensionTeam:
		query = query.
			Joins("LEFT JOIN maintenance_teams ON maintenance_teams.id = maintenance_requests.team_id").
			Select("COALESCE(maintenance_teams.name, 'Unassigned') AS label, COUNT(*) AS total").
			Group("label")
	case DimensionCategory:
		query = query.
			Joins("LEFT JOIN equipment ON equipment.id = maintenance_requests.equipment_id").
			Select("COALESCE(NULLIF(equipment.category, ''), 'Uncategorized') AS label, COUNT(*) AS total").
			Group("label")
	default:
		return nil, fmt.Errorf("unknown count dimension %q", dimension)
	}

	var rows []struct {
		Label string
		Total int64
	}
	if err := query.Order("label ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make([]StageCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, StageCount{Key: row.Label, Count: row.Total})
	}
	return counts, nil
}

// CountOverdue counts requests currently flagged overdue
func (r *requestRepository) CountOverdue(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MaintenanceRequest{}).
		Where("is_overdue = ?", true).
		Count(&count).Error
	return count, err
}

func (r *requestRepository) SweepOverdue(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	var marked, cleared int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MaintenanceRequest{}).
			Where("is_overdue = ?", false).
			Where("stage IN ?", openStages).
			Where("scheduled_date < ?", cutoff).
			UpdateColumn("is_overdue", true)
		if result.Error != nil {
			return result.Error
		}
		marked = result.RowsAffected

		result = tx.Model(&models.MaintenanceRequest{}).
			Where("is_overdue = ?", true).
			Where("stage NOT IN ? OR scheduled_date IS NULL OR scheduled_date >= ?", openStages, cutoff).
			UpdateColumn("is_overdue", false)
		if result.Error != nil {
			return result.Error
		}
		cleared = result.RowsAffected
		return nil
	})
	return marked, cleared, err
}
