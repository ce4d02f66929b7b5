package repositories

import (
	"context"

	"gearguard/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type equipmentRepository struct {
	db *gorm.DB
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, e *models.Equipment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// GetByID gets equipment with its default team, technician and work center
func (r *equipmentRepository) GetByID(ctx context.Context, id uint) (*models.Equipment, error) {
	var e models.Equipment
	err := r.db.WithContext(ctx).
		Preload("DefaultTeam").
		Preload("DefaultTechnician").
		Preload("DefaultWorkCenter").
		First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List searches equipment by name, serial number or location
func (r *equipmentRepository) List(ctx context.Context, filter EquipmentFilter, offset, limit int) ([]*models.Equipment, int64, error) {
	var items []*models.Equipment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Equipment{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR serial_number LIKE ? OR location LIKE ?", like, like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Scrapped != nil {
		query = query.Where("is_scrapped = ?", *filter.Scrapped)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("DefaultTeam").
		Preload("DefaultTechnician").
		Preload("DefaultWorkCenter").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}
