package repositories

import (
	"context"

	"gearguard/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *models.MaintenanceTeam) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (*models.MaintenanceTeam, error) {
	var team models.MaintenanceTeam
	err := r.db.WithContext(ctx).Preload("Members").First(&team, id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) List(ctx context.Context) ([]*models.MaintenanceTeam, error) {
	var teams []*models.MaintenanceTeam
	err := r.db.WithContext(ctx).Preload("Members").Order("name ASC").Find(&teams).Error
	return teams, err
}

// ReplaceMembers sets the team's membership to exactly members
func (r *teamRepository) ReplaceMembers(ctx context.Context, team *models.MaintenanceTeam, members []*models.User) error {
	users := make([]models.User, 0, len(members))
	for _, m := range members {
		users = append(users, *m)
	}
	if err := r.db.WithContext(ctx).Model(team).Association("Members").Replace(users); err != nil {
		return err
	}
	team.Members = users
	return nil
}

func (r *teamRepository) IsMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("team_members").
		Where("maintenance_team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}
