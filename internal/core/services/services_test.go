package services

import (
	"context"
	"testing"
	"time"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/config"
	"gearguard/internal/core/domain"
	"gearguard/internal/pkg/pagination"
	"gearguard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ============================================================
// Auth
// ============================================================

func newAuthService(users *testutil.UserRepo, tokens *testutil.TokenRepo) *AuthService {
	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:           "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessTokenMins:  15,
		RefreshTokenDays: 7,
	}}
	return NewAuthService(users, tokens, cfg, zap.NewNop())
}

func TestAuthService_RegisterLoginRefresh(t *testing.T) {
	users, tokens := testutil.NewUserRepo(), testutil.NewTokenRepo()
	svc := newAuthService(users, tokens)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterInput{Username: "alice", Email: "Alice@Plant.io", Password: "wrench-123"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleUser), reg.User.Role)
	assert.Equal(t, "alice@plant.io", reg.User.Email)
	assert.NotEmpty(t, reg.AccessToken)

	_, err = svc.Register(ctx, &RegisterInput{Username: "alice", Email: "other@plant.io", Password: "wrench-123"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = svc.Register(ctx, &RegisterInput{Username: "bob", Email: "b@plant.io", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Login(ctx, &LoginInput{Username: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &LoginInput{Username: "nobody", Password: "wrench-123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, &LoginInput{Username: "alice", Password: "wrench-123"})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// the presented token is single use
	_, err = svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.LogoutAll(ctx, reg.User.ID))
	_, err = svc.RefreshToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_InactiveUser(t *testing.T) {
	users, tokens := testutil.NewUserRepo(), testutil.NewTokenRepo()
	svc := newAuthService(users, tokens)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterInput{Username: "carol", Email: "c@plant.io", Password: "wrench-123"})
	require.NoError(t, err)
	users.Users[reg.User.ID].IsActive = false

	_, err = svc.Login(ctx, &LoginInput{Username: "carol", Password: "wrench-123"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

// ============================================================
// Users & teams
// ============================================================

func TestUserService_ChangeRole(t *testing.T) {
	users := testutil.NewUserRepo(
		&models.User{ID: 1, Username: "manager", Role: "MANAGER", IsActive: true},
		&models.User{ID: 2, Username: "alice", Role: "USER", IsActive: true},
	)
	svc := NewUserService(users, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, 2, 1, "ADMIN")
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = svc.ChangeRole(ctx, 1, 1, domain.RoleUser)
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)
	_, err = svc.ChangeRole(ctx, 9, 1, domain.RoleTechnician)
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := svc.ChangeRole(ctx, 2, 1, domain.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, "TECHNICIAN", got.Role)

	_, err = svc.ListUsers(ctx, "OWNER", &pagination.Params{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestTeamService_SetMembers(t *testing.T) {
	users := testutil.NewUserRepo(
		&models.User{ID: 2, Username: "alice", Role: "TECHNICIAN", IsActive: true},
		&models.User{ID: 3, Username: "bob", Role: "TECHNICIAN", IsActive: true},
	)
	teams := &testutil.TeamRepo{Teams: map[uint]*models.MaintenanceTeam{}}
	svc := NewTeamService(teams, users, zap.NewNop())
	ctx := context.Background()

	team, err := svc.Create(ctx, &CreateTeamInput{Name: "Electricians"})
	require.NoError(t, err)

	got, err := svc.SetMembers(ctx, team.ID, &SetMembersInput{UserIDs: []uint{2, 3, 2}})
	require.NoError(t, err)
	assert.Len(t, got.Members, 2)

	_, err = svc.SetMembers(ctx, team.ID, &SetMembersInput{UserIDs: []uint{2, 77}})
	assert.ErrorIs(t, err, ErrMemberNotFound)
	_, err = svc.SetMembers(ctx, 99, &SetMembersInput{})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	assert.Equal(t, []uint{4, 1}, uniqueIDs([]uint{4, 1, 4}))
}

// ============================================================
// Technicians, reports, scheduler
// ============================================================

func TestTechnicianService_AvailableOrdersByLoad(t *testing.T) {
	mechanics := models.MaintenanceTeam{ID: 1, Name: "Mechanics"}
	users := testutil.NewUserRepo(
		&models.User{ID: 2, Username: "alice", FullName: "Alice", Role: "TECHNICIAN", IsActive: true, Teams: []models.MaintenanceTeam{mechanics}},
		&models.User{ID: 3, Username: "bob", FullName: "Bob", Role: "TECHNICIAN", IsActive: true, Teams: []models.MaintenanceTeam{mechanics}},
		&models.User{ID: 4, Username: "cy", FullName: "Cy", Role: "TECHNICIAN", IsActive: true},
		&models.User{ID: 5, Username: "dan", Role: "USER", IsActive: true},
	)
	teams := &testutil.TeamRepo{Teams: map[uint]*models.MaintenanceTeam{1: &mechanics}}
	requests := testutil.NewRequestRepo()
	requests.Load = map[uint]int64{2: 3, 3: 1}

	svc := NewTechnicianService(users, teams, requests)
	ctx := context.Background()

	all, err := svc.Available(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Cy", all[0].FullName)
	assert.Equal(t, int64(0), all[0].Load)
	assert.Equal(t, "Bob", all[1].FullName)
	assert.Equal(t, "Alice", all[2].FullName)

	teamID := uint(1)
	inTeam, err := svc.Available(ctx, &teamID)
	require.NoError(t, err)
	require.Len(t, inTeam, 2)
	assert.Equal(t, []domain.TeamRef{{ID: 1, Name: "Mechanics"}}, inTeam[0].Teams)

	missing := uint(9)
	_, err = svc.Available(ctx, &missing)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestReportService_SummaryFillsEveryKey(t *testing.T) {
	requests := testutil.NewRequestRepo()
	requests.Overdue = 2
	requests.Counts = map[string][]repositories.StageCount{
		repositories.DimensionStage: {{Key: "NEW", Count: 4}, {Key: "IN_PROGRESS", Count: 2}, {Key: "SCRAP", Count: 1}},
		repositories.DimensionType:  {{Key: "CORRECTIVE", Count: 7}},
		repositories.DimensionTeam:  {{Key: "Mechanics", Count: 7}},
	}

	summary, err := NewReportService(requests).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.ByStage["REPAIRED"])
	assert.Len(t, summary.ByStage, 4)
	assert.Equal(t, int64(0), summary.ByType["PREVENTIVE"])
	assert.Equal(t, int64(6), summary.Open)
	assert.Equal(t, int64(7), summary.Total)
	assert.Equal(t, int64(2), summary.Overdue)
	assert.Len(t, summary.ByTeam, 1)
}

func TestMaintenanceScheduler_SweepUsesStartOfDay(t *testing.T) {
	requests := testutil.NewRequestRepo()
	s := NewMaintenanceScheduler(requests, testutil.NewTokenRepo(), "*/15 * * * *", zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC) }

	marked, cleared, err := s.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)
	assert.Equal(t, int64(1), cleared)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), requests.Cutoff)
}

func TestMaintenanceScheduler_RejectsBadSpec(t *testing.T) {
	s := NewMaintenanceScheduler(testutil.NewRequestRepo(), testutil.NewTokenRepo(), "every tuesday", zap.NewNop())
	assert.Error(t, s.Start())
}
