package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gearguard/internal/core/domain"

	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory backend that applies the same rules as the server
type fakeAPI struct {
	mu       sync.Mutex
	requests map[string]*domain.MaintenanceRequest
	order    []string
	calls    []string
	failNext map[string]error
	listErr  error
	viewer   domain.Viewer
	flat     bool
	// block, when set, makes the named call wait until released
	block   map[string]chan struct{}
	entered chan string
}

func newFakeAPI(viewer domain.Viewer, reqs ...domain.MaintenanceRequest) *fakeAPI {
	f := &fakeAPI{
		requests: make(map[string]*domain.MaintenanceRequest),
		failNext: make(map[string]error),
		block:    make(map[string]chan struct{}),
		entered:  make(chan string, 8),
		viewer:   viewer,
	}
	for i := range reqs {
		r := reqs[i]
		f.requests[r.ID] = &r
		f.order = append(f.order, r.ID)
	}
	return f
}

func (f *fakeAPI) record(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	err := f.failNext[name]
	delete(f.failNext, name)
	ch := f.block[name]
	f.mu.Unlock()
	if ch != nil {
		f.entered <- name
		<-ch
	}
	return err
}

func (f *fakeAPI) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeAPI) mutations() []string {
	var out []string
	for _, c := range f.callNames() {
		if c != "list" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) List(_ context.Context, filter ListFilter) (*Listing, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var flat []domain.MaintenanceRequest
	for _, id := range f.order {
		r := f.requests[id]
		if filter.EquipmentID != nil && (r.EquipmentID == nil || *r.EquipmentID != *filter.EquipmentID) {
			continue
		}
		flat = append(flat, *r)
	}
	if f.flat || filter.EquipmentID != nil {
		return &Listing{Flat: flat}, nil
	}
	grouped := map[domain.Stage][]domain.MaintenanceRequest{}
	for _, r := range flat {
		grouped[r.Stage] = append(grouped[r.Stage], r)
	}
	return &Listing{Grouped: grouped}, nil
}

func (f *fakeAPI) Create(_ context.Context, draft domain.RequestDraft) (*domain.MaintenanceRequest, error) {
	if err := f.record("create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &domain.MaintenanceRequest{ID: "new-" + draft.Subject, Subject: draft.Subject, Type: draft.Type, Stage: domain.StageNew}
	f.requests[r.ID] = r
	f.order = append(f.order, r.ID)
	out := *r
	return &out, nil
}

func (f *fakeAPI) mutate(name, id string, fn func(r *domain.MaintenanceRequest)) (*domain.MaintenanceRequest, error) {
	if err := f.record(name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fn(r)
	out := *r
	return &out, nil
}

func (f *fakeAPI) UpdateStage(_ context.Context, id string, stage domain.Stage) (*domain.MaintenanceRequest, error) {
	return f.mutate("update_stage", id, func(r *domain.MaintenanceRequest) { r.Stage = stage })
}

func (f *fakeAPI) Assign(_ context.Context, id string, technicianID *uint) (*domain.MaintenanceRequest, error) {
	name := "assign"
	if technicianID == nil {
		name = "assign_self"
	}
	return f.mutate(name, id, func(r *domain.MaintenanceRequest) {
		tech := f.viewer.UserID
		if technicianID != nil {
			tech = *technicianID
		}
		r.AssignedTechnicianID = &tech
		if tech == 7 {
			r.AssignedTechnicianName = "Alice"
		}
	})
}

func (f *fakeAPI) Complete(_ context.Context, id string, hours float64) (*domain.MaintenanceRequest, error) {
	return f.mutate("complete", id, func(r *domain.MaintenanceRequest) {
		r.Stage = domain.StageRepaired
		if hours == AutoDuration {
			hours = 1.5
		}
		r.DurationHours = &hours
	})
}

func (f *fakeAPI) Scrap(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	return f.mutate("scrap", id, func(r *domain.MaintenanceRequest) { r.Stage = domain.StageScrap })
}

func (f *fakeAPI) AvailableTechnicians(context.Context, *uint) ([]domain.Technician, error) {
	if err := f.record("technicians"); err != nil {
		return nil, err
	}
	return []domain.Technician{{ID: 7, Username: "alice", FullName: "Alice"}}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, string(level)+": "+message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newLoadedController(t *testing.T, api *fakeAPI, viewer domain.Viewer, opts ...Option) *Controller {
	t.Helper()
	c := NewController(api, viewer, opts...)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func stageOf(t *testing.T, c *Controller, id string) domain.Stage {
	t.Helper()
	r, ok := c.Board().Find(id)
	require.True(t, ok, "request %s not on board", id)
	return r.Stage
}

func TestController_LoadTwiceIsIdempotent(t *testing.T) {
	api := newFakeAPI(manager,
		domain.MaintenanceRequest{ID: "a", Stage: domain.StageNew},
		domain.MaintenanceRequest{ID: "b", Stage: domain.StageInProgress},
		domain.MaintenanceRequest{ID: "c", Stage: domain.StageScrap},
	)
	c := newLoadedController(t, api, manager)
	first := c.Board()
	require.NoError(t, c.Load(context.Background()))
	second := c.Board()

	for _, s := range domain.Stages {
		var a, b []string
		for _, r := range first[s] {
			a = append(a, r.ID)
		}
		for _, r := range second[s] {
			b = append(b, r.ID)
		}
		require.ElementsMatch(t, a, b, "column %s", s)
	}
}

func TestController_LoadFailureKeepsPreviousBoard(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "a", Stage: domain.StageNew})
	c := newLoadedController(t, api, manager)

	api.failNext["list"] = errors.New("network down")
	err := c.Load(context.Background())
	require.Error(t, err)
	require.Error(t, c.LastError())
	require.Equal(t, 1, c.Board().Count())

	require.NoError(t, c.Reload(context.Background()))
	require.NoError(t, c.LastError())
}

func TestController_InitialLoadFailureLeavesEmptyBoard(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "a", Stage: domain.StageNew})
	api.failNext["list"] = errors.New("boom")
	c := NewController(api, manager)

	require.Error(t, c.Load(context.Background()))
	require.False(t, c.Loaded())
	board := c.Board()
	require.Len(t, board, 4)
	require.Zero(t, board.Count())
	// no automatic retry
	require.Equal(t, []string{"list"}, api.callNames())
}

func TestController_FlatListingWithEquipmentFilter(t *testing.T) {
	eq := uint(5)
	api := newFakeAPI(manager,
		domain.MaintenanceRequest{ID: "a", Stage: domain.StageNew, EquipmentID: &eq},
		domain.MaintenanceRequest{ID: "b", Stage: domain.StageNew},
	)
	c := newLoadedController(t, api, manager)
	require.Equal(t, 2, c.Board().Count())

	require.NoError(t, c.SetFilter(context.Background(), ListFilter{EquipmentID: &eq}))
	board := c.Board()
	require.Equal(t, 1, board.Count())
	require.Len(t, board, 4)
}

func TestController_DragNewOntoRepairedIsRejected(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techAlice, domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew, AssignedTechnicianID: &alice})
	c := newLoadedController(t, api, techAlice)
	before := c.Board()

	res, err := c.HandleDragEnd(context.Background(), DragEnd{CardID: "r1", Target: &DropTarget{Column: domain.StageRepaired}})
	require.NoError(t, err)
	require.Equal(t, MoveIgnored, res)
	require.Empty(t, api.mutations())
	require.Equal(t, before, c.Board())
}

func TestController_DropOnOwnColumnOrNowhereIsNoop(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techAlice,
		domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew, AssignedTechnicianID: &alice},
		domain.MaintenanceRequest{ID: "r9", Stage: domain.StageNew},
	)
	c := newLoadedController(t, api, techAlice)

	res, err := c.HandleDragEnd(context.Background(), DragEnd{CardID: "r1"})
	require.NoError(t, err)
	require.Equal(t, MoveIgnored, res)

	res, err = c.HandleDragEnd(context.Background(), DragEnd{CardID: "r1", Target: &DropTarget{CardID: "r9"}})
	require.NoError(t, err)
	require.Equal(t, MoveIgnored, res)
	require.Empty(t, api.mutations())
}

func TestController_DragNewToInProgressCallsUpdateStage(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techAlice,
		domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew, AssignedTechnicianID: &alice},
		domain.MaintenanceRequest{ID: "r5", Stage: domain.StageInProgress},
	)
	c := newLoadedController(t, api, techAlice)

	// dropping on a card resolves to that card's column
	res, err := c.HandleDragEnd(context.Background(), DragEnd{CardID: "r1", Target: &DropTarget{CardID: "r5"}})
	require.NoError(t, err)
	require.Equal(t, MoveApplied, res)
	require.Equal(t, []string{"update_stage"}, api.mutations())
	require.Equal(t, domain.StageInProgress, stageOf(t, c, "r1"))
	require.Empty(t, c.Board()[domain.StageNew])
}

func TestController_DragToRepairedUsesAutoDuration(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techAlice, domain.MaintenanceRequest{ID: "r2", Stage: domain.StageInProgress, AssignedTechnicianID: &alice})
	c := newLoadedController(t, api, techAlice)

	res, err := c.Move(context.Background(), "r2", domain.StageRepaired)
	require.NoError(t, err)
	require.Equal(t, MoveApplied, res)
	require.Equal(t, []string{"complete"}, api.mutations())

	r, _ := c.Board().Find("r2")
	require.NotNil(t, r.DurationHours)
	require.Equal(t, 1.5, *r.DurationHours)
}

func TestController_ScrapFailureReloadsServerStage(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "r2", Subject: "Pump", Stage: domain.StageInProgress})
	notes := &recordingNotifier{}
	c := newLoadedController(t, api, manager, WithNotifier(notes))

	api.failNext["scrap"] = errors.New("503 service unavailable")
	api.block["scrap"] = make(chan struct{})

	done := make(chan struct{})
	var res MoveResult
	var err error
	go func() {
		defer close(done)
		res, err = c.Move(context.Background(), "r2", domain.StageScrap)
	}()

	<-api.entered
	// optimistic update is visible before the backend answers
	require.Equal(t, domain.StageScrap, stageOf(t, c, "r2"))
	close(api.block["scrap"])
	<-done

	require.Error(t, err)
	require.Equal(t, MoveReverted, res)
	require.Equal(t, domain.StageInProgress, stageOf(t, c, "r2"))
	require.Equal(t, 1, notes.count())
	require.Equal(t, []string{"list", "scrap", "list"}, api.callNames())
}

func TestController_FailedMoveAndFailedReloadRestoresCard(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "r2", Stage: domain.StageInProgress})
	c := newLoadedController(t, api, manager)

	api.failNext["scrap"] = errors.New("timeout")
	api.failNext["list"] = errors.New("timeout")

	res, err := c.Move(context.Background(), "r2", domain.StageScrap)
	require.Error(t, err)
	require.Equal(t, MoveReverted, res)
	require.Equal(t, domain.StageInProgress, stageOf(t, c, "r2"))
}

func TestController_InFlightGuard(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "r2", Stage: domain.StageInProgress})
	c := newLoadedController(t, api, manager, WithConfirmer(ConfirmerFunc(func(context.Context, string) bool { return true })))

	api.block["complete"] = make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Move(context.Background(), "r2", domain.StageRepaired)
	}()
	<-api.entered

	_, err := c.Perform(context.Background(), "r2", ActionRequest{Action: ActionEditAssignment, TechnicianID: uintPtr(7)})
	require.ErrorIs(t, err, ErrMutationInFlight)

	close(api.block["complete"])
	<-done
	require.Equal(t, []string{"complete"}, api.mutations())
}

func TestController_StaleLoadIsDiscarded(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techAlice, domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew, AssignedTechnicianID: &alice})
	c := newLoadedController(t, api, techAlice)

	api.block["list"] = make(chan struct{})
	loadDone := make(chan error)
	go func() { loadDone <- c.Load(context.Background()) }()
	<-api.entered

	// the request moves on the server and locally while the old load is pending
	api.mu.Lock()
	release := api.block["list"]
	delete(api.block, "list")
	api.mu.Unlock()
	res, err := c.Move(context.Background(), "r1", domain.StageInProgress)
	require.NoError(t, err)
	require.Equal(t, MoveApplied, res)

	// release the stale load; its pre-move snapshot must not win
	api.mu.Lock()
	api.requests["r1"].Stage = domain.StageNew
	api.mu.Unlock()
	close(release)
	require.NoError(t, <-loadDone)
	require.Equal(t, domain.StageInProgress, stageOf(t, c, "r1"))
}

func TestController_AssignToMe(t *testing.T) {
	api := newFakeAPI(techAlice, domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew})
	c := newLoadedController(t, api, techAlice)

	caps, ok := c.Capabilities("r1")
	require.True(t, ok)
	require.Equal(t, []Action{ActionAssignToMe}, caps.Actions())

	called, err := c.Perform(context.Background(), "r1", ActionRequest{Action: ActionAssignToMe})
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, []string{"assign_self"}, api.mutations())

	r, _ := c.Board().Find("r1")
	require.Equal(t, domain.StageNew, r.Stage)
	require.True(t, r.AssignedTo(techAlice.UserID))

	caps, _ = c.Capabilities("r1")
	require.Equal(t, []Action{ActionStartWork}, caps.Actions())
}

func TestController_ManagerAssignsAlice(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "r3", Stage: domain.StageNew})
	c := newLoadedController(t, api, manager)

	techs, err := c.AvailableTechnicians(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, techs, 1)

	called, err := c.Perform(context.Background(), "r3", ActionRequest{Action: ActionAssign, TechnicianID: &techs[0].ID})
	require.NoError(t, err)
	require.True(t, called)

	r, _ := c.Board().Find("r3")
	require.Equal(t, "Alice", r.AssignedTechnicianName)
	require.Equal(t, []string{"list", "technicians", "assign", "list"}, api.callNames())
}

func TestController_AssignWithoutTechnician(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "r3", Stage: domain.StageNew})
	c := newLoadedController(t, api, manager)

	called, err := c.Perform(context.Background(), "r3", ActionRequest{Action: ActionAssign})
	require.ErrorIs(t, err, ErrTechnicianRequired)
	require.False(t, called)
	require.Empty(t, api.mutations())
}

func TestController_DestructiveActionNeedsConfirmation(t *testing.T) {
	api := newFakeAPI(manager, domain.MaintenanceRequest{ID: "r2", Subject: "Lathe", Stage: domain.StageInProgress})

	var prompts []string
	answer := false
	confirm := ConfirmerFunc(func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return answer
	})
	c := newLoadedController(t, api, manager, WithConfirmer(confirm))

	called, err := c.Perform(context.Background(), "r2", ActionRequest{Action: ActionMarkScrap})
	require.NoError(t, err)
	require.False(t, called)
	require.Empty(t, api.mutations())
	require.Equal(t, []string{`Mark Scrap "Lathe"?`}, prompts)

	answer = true
	called, err = c.Perform(context.Background(), "r2", ActionRequest{Action: ActionMarkRepaired, DurationHours: 3})
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, []string{"complete"}, api.mutations())
	require.Equal(t, domain.StageRepaired, stageOf(t, c, "r2"))
}

func TestController_StartWorkDoesNotConfirm(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techAlice, domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew, AssignedTechnicianID: &alice})
	confirm := ConfirmerFunc(func(context.Context, string) bool {
		t.Fatal("start work must not ask for confirmation")
		return false
	})
	c := newLoadedController(t, api, techAlice, WithConfirmer(confirm))

	called, err := c.Perform(context.Background(), "r1", ActionRequest{Action: ActionStartWork})
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, domain.StageInProgress, stageOf(t, c, "r1"))
}

func TestController_TechnicianWithoutAssignmentCannotComplete(t *testing.T) {
	alice := uint(2)
	api := newFakeAPI(techBob, domain.MaintenanceRequest{ID: "r2", Stage: domain.StageInProgress, AssignedTechnicianID: &alice})
	c := newLoadedController(t, api, techBob, WithConfirmer(ConfirmerFunc(func(context.Context, string) bool { return true })))

	require.False(t, c.Draggable("r2"))
	called, err := c.Perform(context.Background(), "r2", ActionRequest{Action: ActionMarkRepaired})
	require.NoError(t, err)
	require.False(t, called)

	res, err := c.Move(context.Background(), "r2", domain.StageScrap)
	require.NoError(t, err)
	require.Equal(t, MoveIgnored, res)
	require.Empty(t, api.mutations())
}

func TestController_ActionFailureNotifiesAndReloads(t *testing.T) {
	api := newFakeAPI(techAlice, domain.MaintenanceRequest{ID: "r1", Stage: domain.StageNew})
	notes := &recordingNotifier{}
	c := newLoadedController(t, api, techAlice, WithNotifier(notes))

	api.failNext["assign_self"] = errors.New("conflict")
	called, err := c.Perform(context.Background(), "r1", ActionRequest{Action: ActionAssignToMe})
	require.Error(t, err)
	require.True(t, called)
	require.Equal(t, 1, notes.count())
	require.Equal(t, []string{"list", "assign_self", "list"}, api.callNames())
}

func TestController_CreateReloads(t *testing.T) {
	api := newFakeAPI(plainUser)
	c := newLoadedController(t, api, plainUser)

	created, err := c.Create(context.Background(), domain.RequestDraft{Subject: "Leak", Type: domain.RequestTypeCorrective})
	require.NoError(t, err)
	require.Equal(t, domain.StageNew, created.Stage)
	require.Len(t, c.Board()[domain.StageNew], 1)
}
