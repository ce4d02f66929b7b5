package tui

import (
	"context"
	"sync"
	"testing"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	mu    sync.Mutex
	rows  []domain.MaintenanceRequest
	calls []string
}

func (s *stubAPI) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubAPI) setStage(id string, stage domain.Stage) *domain.MaintenanceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Stage = stage
			r := s.rows[i]
			return &r
		}
	}
	return nil
}

func (s *stubAPI) List(context.Context, workflow.ListFilter) (*workflow.Listing, error) {
	s.record("list")
	s.mu.Lock()
	defer s.mu.Unlock()
	grouped := map[domain.Stage][]domain.MaintenanceRequest{}
	for _, r := range s.rows {
		grouped[r.Stage] = append(grouped[r.Stage], r)
	}
	return &workflow.Listing{Grouped: grouped}, nil
}

func (s *stubAPI) Create(context.Context, domain.RequestDraft) (*domain.MaintenanceRequest, error) {
	s.record("create")
	return &domain.MaintenanceRequest{}, nil
}

func (s *stubAPI) UpdateStage(_ context.Context, id string, stage domain.Stage) (*domain.MaintenanceRequest, error) {
	s.record("stage:" + string(stage))
	return s.setStage(id, stage), nil
}

func (s *stubAPI) Assign(_ context.Context, id string, _ *uint) (*domain.MaintenanceRequest, error) {
	s.record("assign")
	return s.setStage(id, domain.StageNew), nil
}

func (s *stubAPI) Complete(_ context.Context, id string, _ float64) (*domain.MaintenanceRequest, error) {
	s.record("complete")
	return s.setStage(id, domain.StageRepaired), nil
}

func (s *stubAPI) Scrap(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	s.record("scrap")
	return s.setStage(id, domain.StageScrap), nil
}

func (s *stubAPI) AvailableTechnicians(context.Context, *uint) ([]domain.Technician, error) {
	s.record("technicians")
	return []domain.Technician{{ID: 2, Username: "alice"}, {ID: 3, Username: "bob"}}, nil
}

func (s *stubAPI) callNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls...)
}

func uintPtr(v uint) *uint { return &v }

func newTestModel(t *testing.T, viewer domain.Viewer, opts ...workflow.Option) (Model, *stubAPI) {
	t.Helper()
	api := &stubAPI{rows: []domain.MaintenanceRequest{
		{ID: "r1", Subject: "Oil leak", Stage: domain.StageNew, AssignedTechnicianID: uintPtr(2), AssignedTechnicianName: "Alice"},
		{ID: "r3", Subject: "Squeaky door", Stage: domain.StageNew},
		{ID: "r2", Subject: "Belt worn", Stage: domain.StageInProgress, AssignedTechnicianID: uintPtr(2)},
	}}
	ctrl := workflow.NewController(api, viewer, opts...)
	m := NewModel(context.Background(), ctrl)
	m = run(t, m, m.Init())
	return m, api
}

// run executes cmd synchronously and feeds its message back into the model
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var alice = domain.Viewer{UserID: 2, Role: domain.RoleTechnician}

func TestModel_InitialLoadRendersColumns(t *testing.T) {
	m, api := newTestModel(t, alice)

	view := m.View()
	assert.Contains(t, view, "New (2)")
	assert.Contains(t, view, "In Progress (1)")
	assert.Contains(t, view, "Repaired (0)")
	assert.Contains(t, view, "Oil leak")
	assert.Contains(t, view, "[s] Start Work")
	assert.Equal(t, []string{"list"}, api.callNames())
}

func TestModel_PickUpCarryAndDrop(t *testing.T) {
	m, api := newTestModel(t, alice)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, m.carry)
	assert.Equal(t, "r1", m.carry.id)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.carry.to)
	assert.Contains(t, m.View(), "Moving to In Progress")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.carry)
	m = run(t, m, cmd)

	assert.Contains(t, api.callNames(), "stage:IN_PROGRESS")
	assert.Len(t, m.board[domain.StageInProgress], 2)
	assert.Equal(t, 1, m.col)
}

func TestModel_DropOnOwnColumnIsNoop(t *testing.T) {
	m, api := newTestModel(t, alice)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Nil(t, m.carry)
	assert.Equal(t, []string{"list"}, api.callNames())
}

func TestModel_CardWithoutMovesCannotBePickedUp(t *testing.T) {
	m, _ := newTestModel(t, alice)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, m.carry)
	assert.Equal(t, "This card cannot be moved", m.status)
}

func TestModel_ScrapAsksForConfirmation(t *testing.T) {
	b := &bridge{}
	m, api := newTestModel(t, alice, workflow.WithConfirmer(b))

	var prompts []string
	b.attach(func(msg tea.Msg) {
		if c, ok := msg.(confirmMsg); ok {
			prompts = append(prompts, c.prompt)
			c.reply <- true
		}
	})

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	m, cmd := press(m, keyRune('x'))
	m = run(t, m, cmd)

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Belt worn")
	assert.Contains(t, api.callNames(), "scrap")
	assert.Len(t, m.board[domain.StageScrap], 1)
}

func TestModel_UnavailableActionKeyDoesNothing(t *testing.T) {
	m, api := newTestModel(t, domain.Viewer{UserID: 9, Role: domain.RoleUser})

	_, cmd := press(m, keyRune('s'))
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"list"}, api.callNames())
}

func TestModel_ConfirmPromptAnswers(t *testing.T) {
	m, _ := newTestModel(t, alice)

	reply := make(chan bool, 1)
	next, _ := m.Update(confirmMsg{prompt: "Mark Scrap \"Belt worn\"?", reply: reply})
	m = next.(Model)
	assert.Contains(t, m.View(), "[y/n]")

	// other keys are swallowed while the prompt is open
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 0, m.col)

	m, _ = press(m, keyRune('n'))
	assert.Nil(t, m.confirm)
	assert.False(t, <-reply)
}

func TestModel_NewPromptDeclinesPendingOne(t *testing.T) {
	m, _ := newTestModel(t, alice)

	first := make(chan bool, 1)
	second := make(chan bool, 1)
	next, _ := m.Update(confirmMsg{prompt: "Mark Scrap \"Belt worn\"?", reply: first})
	next, _ = next.(Model).Update(confirmMsg{prompt: "Mark Repaired \"Oil leak\"?", reply: second})
	m = next.(Model)

	assert.False(t, <-first)
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.confirm.prompt, "Oil leak")

	m, _ = press(m, keyRune('y'))
	assert.Nil(t, m.confirm)
	assert.True(t, <-second)
}

func TestModel_ManagerPicksTechnician(t *testing.T) {
	m, api := newTestModel(t, domain.Viewer{UserID: 1, Role: domain.RoleManager})

	// r3 is the unassigned NEW card
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(m, keyRune('t'))
	m = run(t, m, cmd)
	require.NotNil(t, m.picker)
	assert.Contains(t, m.View(), "Pick a technician")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.picker)
	run(t, m, cmd)
	assert.Contains(t, api.callNames(), "assign")
}

func TestModel_StatusExpires(t *testing.T) {
	m, _ := newTestModel(t, alice)

	next, _ := m.Update(notifyMsg{level: workflow.LevelError, text: "boom"})
	m = next.(Model)
	assert.Equal(t, "boom", m.status)
	seq := m.statusSeq

	next, _ = m.Update(notifyMsg{level: workflow.LevelInfo, text: "newer"})
	m = next.(Model)

	next, _ = m.Update(expireMsg{seq: seq})
	m = next.(Model)
	assert.Equal(t, "newer", m.status)

	next, _ = m.Update(expireMsg{seq: m.statusSeq})
	m = next.(Model)
	assert.Empty(t, m.status)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("abc", 1))
}
