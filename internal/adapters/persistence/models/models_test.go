package models

import (
	"testing"
	"time"

	"gearguard/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestMaintenanceRequestToDomain(t *testing.T) {
	techID := uint(7)
	m := &MaintenanceRequest{
		ID:                   "abc",
		Subject:              "Hydraulic leak",
		Type:                 "CORRECTIVE",
		Stage:                "IN_PROGRESS",
		AssignedTechnicianID: &techID,
		Equipment:            &Equipment{Name: "Press #2"},
		Team:                 &MaintenanceTeam{Name: "Mechanics"},
		AssignedTechnician:   &User{Username: "alice", FullName: "Alice Martin"},
	}

	r := m.ToDomain()
	require.Equal(t, domain.StageInProgress, r.Stage)
	require.Equal(t, domain.RequestTypeCorrective, r.Type)
	require.Equal(t, "Press #2", r.EquipmentName)
	require.Equal(t, "Mechanics", r.TeamName)
	require.Equal(t, "Alice Martin", r.AssignedTechnicianName)
	require.True(t, r.AssignedTo(7))
}

func TestEquipmentToResponse(t *testing.T) {
	future := time.Now().AddDate(1, 0, 0)
	e := &Equipment{
		Name:              "CNC Mill",
		WarrantyEnd:       &future,
		DefaultTechnician: &User{Username: "bob"},
	}

	resp := e.ToResponse()
	require.True(t, resp.UnderWarranty)
	require.Equal(t, "bob", resp.DefaultTechnicianName)
}

func TestUserToResponseIncludesTeams(t *testing.T) {
	u := &User{ID: 1, Username: "alice", Teams: []MaintenanceTeam{{ID: 3, Name: "Electrical"}}}
	resp := u.ToResponse()
	require.Equal(t, []TeamRef{{ID: 3, Name: "Electrical"}}, resp.Teams)
}
