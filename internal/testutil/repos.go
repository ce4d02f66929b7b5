// Package testutil holds in-memory repository fakes shared by service and
// handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// ============================================================
// Requests
// ============================================================

var (
	_ repositories.RequestRepository      = (*RequestRepo)(nil)
	_ repositories.UserRepository         = (*UserRepo)(nil)
	_ repositories.TeamRepository         = (*TeamRepo)(nil)
	_ repositories.EquipmentRepository    = (*EquipmentRepo)(nil)
	_ repositories.WorkCenterRepository   = (*WorkCenterRepo)(nil)
	_ repositories.RefreshTokenRepository = (*TokenRepo)(nil)
)

// RequestRepo is an in-memory RequestRepository. Apply records every change
// and honours ExpectStage; ApplyErr forces a failure.
type RequestRepo struct {
	mu       sync.Mutex
	Rows     map[string]*models.MaintenanceRequest
	Events   []*models.RequestEvent
	Changes  []repositories.RequestChange
	ApplyErr error
	Counts   map[string][]repositories.StageCount
	Overdue  int64
	Load     map[uint]int64
	Cutoff   time.Time

	// Equipment, when set, receives the scrap flag of a scrapping change
	Equipment *EquipmentRepo
}

func NewRequestRepo(rows ...*models.MaintenanceRequest) *RequestRepo {
	f := &RequestRepo{Rows: make(map[string]*models.MaintenanceRequest)}
	for _, r := range rows {
		f.Rows[r.ID] = r
	}
	return f
}

func (f *RequestRepo) Create(_ context.Context, req *models.MaintenanceRequest, event *models.RequestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.CreatedAt = time.Now()
	f.Rows[req.ID] = req
	if event != nil {
		event.RequestID = req.ID
		f.Events = append(f.Events, event)
	}
	return nil
}

func (f *RequestRepo) GetByID(_ context.Context, id string) (*models.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *RequestRepo) List(_ context.Context, filter repositories.RequestFilter) ([]*models.MaintenanceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MaintenanceRequest
	for _, r := range f.Rows {
		if filter.EquipmentID != nil && (r.EquipmentID == nil || *r.EquipmentID != *filter.EquipmentID) {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.ScheduledFrom != nil && (r.ScheduledDate == nil || r.ScheduledDate.Before(*filter.ScheduledFrom)) {
			continue
		}
		if filter.ScheduledTo != nil && (r.ScheduledDate == nil || !r.ScheduledDate.Before(*filter.ScheduledTo)) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *RequestRepo) Apply(_ context.Context, change repositories.RequestChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Changes = append(f.Changes, change)
	if f.ApplyErr != nil {
		return f.ApplyErr
	}
	r, ok := f.Rows[change.RequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if change.ExpectStage != "" && r.Stage != change.ExpectStage {
		return repositories.ErrStageConflict
	}
	for k, v := range change.Fields {
		switch k {
		case "stage":
			r.Stage = v.(string)
		case "started_at":
			t := v.(time.Time)
			r.StartedAt = &t
		case "completed_at":
			t := v.(time.Time)
			r.CompletedAt = &t
		case "duration_hours":
			h := v.(float64)
			r.DurationHours = &h
		case "is_overdue":
			r.IsOverdue = v.(bool)
		case "assigned_technician_id":
			id := v.(uint)
			r.AssignedTechnicianID = &id
		}
	}
	if change.ScrapEquipmentID != nil && f.Equipment != nil {
		if e, ok := f.Equipment.Items[*change.ScrapEquipmentID]; ok {
			e.IsScrapped = true
		}
	}
	if change.Event != nil {
		change.Event.RequestID = change.RequestID
		f.Events = append(f.Events, change.Event)
	}
	return nil
}

func (f *RequestRepo) History(_ context.Context, id string) ([]*models.RequestEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.RequestEvent
	for _, e := range f.Events {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *RequestRepo) CountOpenByEquipment(_ context.Context, equipmentID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.Rows {
		if r.EquipmentID != nil && *r.EquipmentID == equipmentID && (r.Stage == "NEW" || r.Stage == "IN_PROGRESS") {
			n++
		}
	}
	return n, nil
}

func (f *RequestRepo) CountOpenByTechnician(context.Context) (map[uint]int64, error) {
	return f.Load, nil
}

func (f *RequestRepo) CountBy(_ context.Context, dimension string) ([]repositories.StageCount, error) {
	return f.Counts[dimension], nil
}

func (f *RequestRepo) CountOverdue(context.Context) (int64, error) {
	return f.Overdue, nil
}

func (f *RequestRepo) SweepOverdue(_ context.Context, cutoff time.Time) (int64, int64, error) {
	f.Cutoff = cutoff
	return 2, 1, nil
}

// ============================================================
// Users, teams, equipment, work centers, tokens
// ============================================================

// UserRepo is an in-memory UserRepository
type UserRepo struct {
	mu     sync.Mutex
	Users  map[uint]*models.User
	nextID uint
}

func NewUserRepo(users ...*models.User) *UserRepo {
	f := &UserRepo{Users: make(map[uint]*models.User), nextID: 100}
	for _, u := range users {
		f.Users[u.ID] = u
	}
	return f
}

func (f *UserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	f.Users[user.ID] = user
	return nil
}

func (f *UserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *UserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *UserRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, err := f.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *UserRepo) List(context.Context, string, int, int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (f *UserRepo) UpdateRole(_ context.Context, id uint, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (f *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	return err == nil, nil
}

func (f *UserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *UserRepo) ListTechnicians(_ context.Context, teamID *uint) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.Users {
		if u.Role != "TECHNICIAN" || !u.IsActive {
			continue
		}
		if teamID != nil && !inTeam(u, *teamID) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func inTeam(u *models.User, teamID uint) bool {
	for _, t := range u.Teams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

// TeamRepo is an in-memory TeamRepository
type TeamRepo struct {
	Teams map[uint]*models.MaintenanceTeam
}

func (f *TeamRepo) Create(_ context.Context, team *models.MaintenanceTeam) error {
	team.ID = uint(len(f.Teams) + 1)
	f.Teams[team.ID] = team
	return nil
}

func (f *TeamRepo) GetByID(_ context.Context, id uint) (*models.MaintenanceTeam, error) {
	t, ok := f.Teams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *TeamRepo) List(context.Context) ([]*models.MaintenanceTeam, error) {
	var out []*models.MaintenanceTeam
	for _, t := range f.Teams {
		out = append(out, t)
	}
	return out, nil
}

func (f *TeamRepo) ReplaceMembers(_ context.Context, team *models.MaintenanceTeam, members []*models.User) error {
	team.Members = team.Members[:0]
	for _, m := range members {
		team.Members = append(team.Members, *m)
	}
	return nil
}

func (f *TeamRepo) IsMember(_ context.Context, teamID, userID uint) (bool, error) {
	t, ok := f.Teams[teamID]
	if !ok {
		return false, nil
	}
	for _, m := range t.Members {
		if m.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// EquipmentRepo is an in-memory EquipmentRepository
type EquipmentRepo struct {
	Items map[uint]*models.Equipment
}

func (f *EquipmentRepo) Create(_ context.Context, e *models.Equipment) error {
	e.ID = uint(len(f.Items) + 1)
	f.Items[e.ID] = e
	return nil
}

func (f *EquipmentRepo) GetByID(_ context.Context, id uint) (*models.Equipment, error) {
	e, ok := f.Items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (f *EquipmentRepo) List(context.Context, repositories.EquipmentFilter, int, int) ([]*models.Equipment, int64, error) {
	var out []*models.Equipment
	for _, e := range f.Items {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

// WorkCenterRepo is an in-memory WorkCenterRepository
type WorkCenterRepo struct {
	Items map[uint]*models.WorkCenter
}

func (f *WorkCenterRepo) Create(_ context.Context, wc *models.WorkCenter) error {
	wc.ID = uint(len(f.Items) + 1)
	f.Items[wc.ID] = wc
	return nil
}

func (f *WorkCenterRepo) GetByID(_ context.Context, id uint) (*models.WorkCenter, error) {
	wc, ok := f.Items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return wc, nil
}

func (f *WorkCenterRepo) List(context.Context) ([]*models.WorkCenter, error) {
	var out []*models.WorkCenter
	for _, wc := range f.Items {
		out = append(out, wc)
	}
	return out, nil
}

// TokenRepo is an in-memory RefreshTokenRepository
type TokenRepo struct {
	mu     sync.Mutex
	Tokens map[string]*models.RefreshToken
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{Tokens: make(map[string]*models.RefreshToken)}
}

func (f *TokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tokens[token.TokenHash] = token
	return nil
}

func (f *TokenRepo) GetActiveByTokenHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tokens[hash]
	if !ok || t.IsRevoked() || t.IsExpired() {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *TokenRepo) RevokeByTokenHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.Tokens[hash]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *TokenRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.Tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *TokenRepo) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}
