package repositories

import (
	"context"

	"gearguard/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type workCenterRepository struct {
	db *gorm.DB
}

// NewWorkCenterRepository creates a new work center repository
func NewWorkCenterRepository(db *gorm.DB) WorkCenterRepository {
	return &workCenterRepository{db: db}
}

func (r *workCenterRepository) Create(ctx context.Context, wc *models.WorkCenter) error {
	return r.db.WithContext(ctx).Create(wc).Error
}

func (r *workCenterRepository) GetByID(ctx context.Context, id uint) (*models.WorkCenter, error) {
	var wc models.WorkCenter
	if err := r.db.WithContext(ctx).First(&wc, id).Error; err != nil {
		return nil, err
	}
	return &wc, nil
}

func (r *workCenterRepository) List(ctx context.Context) ([]*models.WorkCenter, error) {
	var wcs []*models.WorkCenter
	err := r.db.WithContext(ctx).Order("code ASC").Find(&wcs).Error
	return wcs, err
}
