package repositories

import (
	"context"
	"errors"
	"time"

	"gearguard/internal/adapters/persistence/models"
)

// ErrStageConflict is returned when a conditional stage update matched no
// row because the request moved under us
var ErrStageConflict = errors.New("request stage changed concurrently")

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	List(ctx context.Context, role string, offset, limit int) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, id uint, role string) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// ListTechnicians returns active technicians, optionally limited to one team
	ListTechnicians(ctx context.Context, teamID *uint) ([]*models.User, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// TeamRepository defines maintenance team repository interface
type TeamRepository interface {
	Create(ctx context.Context, team *models.MaintenanceTeam) error
	GetByID(ctx context.Context, id uint) (*models.MaintenanceTeam, error)
	List(ctx context.Context) ([]*models.MaintenanceTeam, error)
	ReplaceMembers(ctx context.Context, team *models.MaintenanceTeam, members []*models.User) error
	IsMember(ctx context.Context, teamID, userID uint) (bool, error)
}

// WorkCenterRepository defines work center repository interface
type WorkCenterRepository interface {
	Create(ctx context.Context, wc *models.WorkCenter) error
	GetByID(ctx context.Context, id uint) (*models.WorkCenter, error)
	List(ctx context.Context) ([]*models.WorkCenter, error)
}

// EquipmentFilter narrows equipment listings
type EquipmentFilter struct {
	Search   string
	Category string
	// nil means both active and scrapped
	Scrapped *bool
}

// EquipmentRepository defines equipment repository interface
type EquipmentRepository interface {
	Create(ctx context.Context, e *models.Equipment) error
	GetByID(ctx context.Context, id uint) (*models.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter, offset, limit int) ([]*models.Equipment, int64, error)
}

// RequestFilter narrows request listings
type RequestFilter struct {
	EquipmentID   *uint
	TechnicianID  *uint
	Type          string
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
}

// RequestChange is one atomic mutation of a request plus its audit event
type RequestChange struct {
	RequestID string
	// ExpectStage guards the update; empty skips the check
	ExpectStage string
	Fields      map[string]interface{}
	Event       *models.RequestEvent
	// ScrapEquipmentID marks the equipment scrapped in the same transaction
	ScrapEquipmentID *uint
	At               time.Time
}

// StageCount is one row of a grouped count
type StageCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// RequestRepository defines maintenance request repository interface
type RequestRepository interface {
	Create(ctx context.Context, req *models.MaintenanceRequest, event *models.RequestEvent) error
	GetByID(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*models.MaintenanceRequest, error)
	Apply(ctx context.Context, change RequestChange) error
	History(ctx context.Context, id string) ([]*models.RequestEvent, error)

	CountOpenByEquipment(ctx context.Context, equipmentID uint) (int64, error)
	CountOpenByTechnician(ctx context.Context) (map[uint]int64, error)
	CountBy(ctx context.Context, dimension string) ([]StageCount, error)
	CountOverdue(ctx context.Context) (int64, error)

	// SweepOverdue sets is_overdue on open requests scheduled before cutoff
	// and clears it everywhere else
	SweepOverdue(ctx context.Context, cutoff time.Time) (marked, cleared int64, err error)
}
