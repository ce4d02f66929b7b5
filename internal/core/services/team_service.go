package services

import (
	"context"
	"errors"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Team service errors
var (
	ErrTeamNotFound      = errors.New("maintenance team not found")
	ErrTeamAlreadyExists = errors.New("a team with this name already exists")
	ErrMemberNotFound    = errors.New("one or more members do not exist")
)

// TeamService manages maintenance teams and their members
type TeamService struct {
	teams  repositories.TeamRepository
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewTeamService creates a new team service
func NewTeamService(teams repositories.TeamRepository, users repositories.UserRepository, logger *zap.Logger) *TeamService {
	return &TeamService{teams: teams, users: users, logger: logger}
}

// CreateTeamInput represents create team input
type CreateTeamInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// SetMembersInput replaces a team's membership
type SetMembersInput struct {
	UserIDs []uint `json:"user_ids" validate:"dive,gt=0"`
}

func (s *TeamService) List(ctx context.Context) ([]*models.TeamResponse, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.TeamResponse, len(teams))
	for i, t := range teams {
		out[i] = t.ToResponse()
	}
	return out, nil
}

func (s *TeamService) Get(ctx context.Context, id uint) (*models.TeamResponse, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team.ToResponse(), nil
}

func (s *TeamService) Create(ctx context.Context, input *CreateTeamInput) (*models.TeamResponse, error) {
	team := &models.MaintenanceTeam{Name: input.Name, Description: input.Description}
	if err := s.teams.Create(ctx, team); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTeamAlreadyExists
		}
		return nil, err
	}
	s.logger.Info("Team created", zap.Uint("team_id", team.ID), zap.String("name", team.Name))
	return team.ToResponse(), nil
}

// SetMembers replaces the membership of a team with exactly the given users
func (s *TeamService) SetMembers(ctx context.Context, id uint, input *SetMembersInput) (*models.TeamResponse, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	ids := uniqueIDs(input.UserIDs)
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrMemberNotFound
	}

	if err := s.teams.ReplaceMembers(ctx, team, users); err != nil {
		return nil, err
	}
	s.logger.Info("Team members replaced", zap.Uint("team_id", id), zap.Int("members", len(users)))
	return team.ToResponse(), nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
