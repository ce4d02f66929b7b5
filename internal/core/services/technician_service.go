package services

import (
	"context"
	"errors"
	"sort"

	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/core/domain"

	"gorm.io/gorm"
)

// TechnicianService answers "who can take this job" for the assignment picker
type TechnicianService struct {
	users    repositories.UserRepository
	teams    repositories.TeamRepository
	requests repositories.RequestRepository
}

// NewTechnicianService creates a new technician service
func NewTechnicianService(
	users repositories.UserRepository,
	teams repositories.TeamRepository,
	requests repositories.RequestRepository,
) *TechnicianService {
	return &TechnicianService{users: users, teams: teams, requests: requests}
}

// Available lists active technicians, least loaded first. Load is the
// number of open requests assigned to each.
func (s *TechnicianService) Available(ctx context.Context, teamID *uint) ([]domain.Technician, error) {
	if teamID != nil {
		if _, err := s.teams.GetByID(ctx, *teamID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
	}

	users, err := s.users.ListTechnicians(ctx, teamID)
	if err != nil {
		return nil, err
	}
	load, err := s.requests.CountOpenByTechnician(ctx)
	if err != nil {
		return nil, err
	}

	techs := make([]domain.Technician, 0, len(users))
	for _, u := range users {
		t := domain.Technician{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			Teams:    make([]domain.TeamRef, 0, len(u.Teams)),
			Load:     load[u.ID],
		}
		for _, team := range u.Teams {
			t.Teams = append(t.Teams, domain.TeamRef{ID: team.ID, Name: team.Name})
		}
		techs = append(techs, t)
	}

	sort.SliceStable(techs, func(i, j int) bool {
		if techs[i].Load != techs[j].Load {
			return techs[i].Load < techs[j].Load
		}
		return techs[i].DisplayName() < techs[j].DisplayName()
	})
	return techs, nil
}
