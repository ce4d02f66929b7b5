package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gearguard/internal/core/domain"

	"go.uber.org/zap"
)

// Controller errors
var (
	ErrMutationInFlight   = errors.New("another change to this request is still in progress")
	ErrTechnicianRequired = errors.New("a technician must be selected")
)

// MoveResult describes what a move attempt did to the board
type MoveResult int

const (
	// MoveIgnored: rejected or no-op; the board is unchanged
	MoveIgnored MoveResult = iota
	// MoveApplied: optimistic update kept after the backend accepted it
	MoveApplied
	// MoveReverted: the backend failed and the board was reloaded
	MoveReverted
)

func (r MoveResult) String() string {
	switch r {
	case MoveApplied:
		return "applied"
	case MoveReverted:
		return "reverted"
	}
	return "ignored"
}

// ActionRequest is one button press on a card
type ActionRequest struct {
	Action        Action
	TechnicianID  *uint
	DurationHours float64
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier sets where transient notifications go
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithConfirmer sets who confirms destructive actions
func WithConfirmer(cf Confirmer) Option {
	return func(c *Controller) { c.confirmer = cf }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithEquipmentFilter sets the initial equipment filter
func WithEquipmentFilter(equipmentID uint) Option {
	return func(c *Controller) { c.filter.EquipmentID = &equipmentID }
}

// Controller owns the kanban board state for one viewer and reconciles it
// with the backend. It is safe for concurrent use; backend calls are made
// without holding the lock.
type Controller struct {
	api       RequestAPI
	viewer    domain.Viewer
	notifier  Notifier
	confirmer Confirmer
	logger    *zap.Logger

	mu       sync.Mutex
	board    Board
	filter   ListFilter
	gen      uint64
	inflight map[string]struct{}
	lastErr  error
	loaded   bool
}

// NewController creates a controller with an empty board
func NewController(api RequestAPI, viewer domain.Viewer, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		viewer:    viewer,
		notifier:  discardNotifier{},
		confirmer: denyConfirmer{},
		logger:    zap.NewNop(),
		board:     NewBoard(),
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Viewer returns the user the board is computed for
func (c *Controller) Viewer() domain.Viewer {
	return c.viewer
}

// Board returns a snapshot of the current board
func (c *Controller) Board() Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// Loaded reports whether at least one load has succeeded
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// LastError returns the error of the most recent load, nil if it succeeded
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Filter returns the current equipment filter
func (c *Controller) Filter() ListFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Load fetches the board from the backend. On failure the previous board is
// kept and the error is returned; there is no automatic retry. A response
// that arrives after a newer load, move or filter change is discarded.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	filter := c.filter
	c.mu.Unlock()

	listing, err := c.api.List(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("Discarding stale board response", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		c.lastErr = err
		c.logger.Warn("Board load failed", zap.Error(err))
		return fmt.Errorf("load board: %w", err)
	}
	if listing == nil {
		listing = &Listing{}
	}

	board, dropped := Normalize(*listing)
	for _, r := range dropped {
		c.logger.Warn("Dropping request with unknown stage",
			zap.String("request_id", r.ID),
			zap.String("stage", string(r.Stage)),
		)
	}
	c.board = board
	c.lastErr = nil
	c.loaded = true
	return nil
}

// Reload is an explicit user retry of Load
func (c *Controller) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// SetFilter changes the equipment filter and reloads. Loads started under
// the old filter are invalidated.
func (c *Controller) SetFilter(ctx context.Context, filter ListFilter) error {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	return c.Load(ctx)
}

// Capabilities returns what the viewer may do with a request on the board
func (c *Controller) Capabilities(id string) (Capabilities, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.board.Find(id)
	if !ok {
		return Capabilities{}, false
	}
	return CapabilitiesFor(c.viewer, &r), true
}

// Draggable reports whether a card may be picked up
func (c *Controller) Draggable(id string) bool {
	caps, ok := c.Capabilities(id)
	return ok && caps.Draggable()
}

// HandleDragEnd resolves where a card was dropped and moves it there.
// No target, an unknown target or the card's own column is a no-op.
func (c *Controller) HandleDragEnd(ctx context.Context, end DragEnd) (MoveResult, error) {
	c.mu.Lock()
	to, ok := ResolveDropTarget(c.board, end.Target)
	c.mu.Unlock()
	if !ok {
		return MoveIgnored, nil
	}
	return c.Move(ctx, end.CardID, to)
}

// Move transitions a request to another stage with an optimistic update.
// Illegal or unpermitted moves are silently ignored. Exactly one backend call
// is made for an accepted move; if it fails the board is reloaded from the
// server and the error returned.
func (c *Controller) Move(ctx context.Context, id string, to domain.Stage) (MoveResult, error) {
	c.mu.Lock()
	r, ok := c.board.Find(id)
	if !ok || r.Stage == to {
		c.mu.Unlock()
		return MoveIgnored, nil
	}
	if _, busy := c.inflight[id]; busy {
		c.mu.Unlock()
		return MoveIgnored, ErrMutationInFlight
	}
	caps := CapabilitiesFor(c.viewer, &r)
	if !caps.Allows(to) {
		c.mu.Unlock()
		c.logger.Debug("Ignoring move",
			zap.String("request_id", id),
			zap.String("from", string(r.Stage)),
			zap.String("to", string(to)),
		)
		return MoveIgnored, nil
	}
	c.inflight[id] = struct{}{}
	c.board.move(id, to)
	c.gen++
	c.mu.Unlock()

	updated, err := c.commitMove(ctx, id, to)

	c.mu.Lock()
	delete(c.inflight, id)
	if err == nil {
		if current, ok := c.board.Find(id); ok && current.Stage == to && updated != nil {
			c.board.replace(*updated)
		}
		c.mu.Unlock()
		c.logger.Info("Request moved",
			zap.String("request_id", id),
			zap.String("from", string(r.Stage)),
			zap.String("to", string(to)),
		)
		return MoveApplied, nil
	}
	c.mu.Unlock()

	c.notifier.Notify(LevelError, fmt.Sprintf("Could not move %q to %s: %v", r.Subject, to, err))
	if loadErr := c.Load(ctx); loadErr != nil {
		// the server copy is unreachable too; put the card back where it was
		c.mu.Lock()
		if current, ok := c.board.Find(id); ok && current.Stage == to {
			c.board.move(id, r.Stage)
		}
		c.mu.Unlock()
	}
	return MoveReverted, fmt.Errorf("move %s to %s: %w", id, to, err)
}

func (c *Controller) commitMove(ctx context.Context, id string, to domain.Stage) (*domain.MaintenanceRequest, error) {
	switch to {
	case domain.StageRepaired:
		return c.api.Complete(ctx, id, AutoDuration)
	case domain.StageScrap:
		return c.api.Scrap(ctx, id)
	default:
		return c.api.UpdateStage(ctx, id, to)
	}
}

// Perform runs a card action. Actions the viewer does not have are silently
// ignored, destructive actions must be confirmed first, and a completed
// action always reloads the board. The bool reports whether the backend
// was called.
func (c *Controller) Perform(ctx context.Context, id string, req ActionRequest) (bool, error) {
	c.mu.Lock()
	r, ok := c.board.Find(id)
	if !ok {
		c.mu.Unlock()
		return false, nil
	}
	if _, busy := c.inflight[id]; busy {
		c.mu.Unlock()
		return false, ErrMutationInFlight
	}
	caps := CapabilitiesFor(c.viewer, &r)
	if !caps.Has(req.Action) {
		c.mu.Unlock()
		return false, nil
	}
	c.inflight[id] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
	}()

	if (req.Action == ActionAssign || req.Action == ActionEditAssignment) && req.TechnicianID == nil {
		return false, ErrTechnicianRequired
	}
	if req.Action.Destructive() {
		prompt := fmt.Sprintf("%s %q?", req.Action.Label(), r.Subject)
		if !c.confirmer.Confirm(ctx, prompt) {
			return false, nil
		}
	}

	err := c.commitAction(ctx, &r, req)
	if err != nil {
		c.notifier.Notify(LevelError, fmt.Sprintf("%s failed: %v", req.Action.Label(), err))
		c.resync(ctx)
		return true, fmt.Errorf("%s %s: %w", req.Action, id, err)
	}

	c.logger.Info("Request action performed",
		zap.String("request_id", id),
		zap.String("action", string(req.Action)),
	)
	c.resync(ctx)
	return true, nil
}

func (c *Controller) commitAction(ctx context.Context, r *domain.MaintenanceRequest, req ActionRequest) error {
	var err error
	switch req.Action {
	case ActionAssignToMe:
		_, err = c.api.Assign(ctx, r.ID, nil)
	case ActionAssign, ActionEditAssignment:
		_, err = c.api.Assign(ctx, r.ID, req.TechnicianID)
	case ActionStartWork:
		if err = ValidateTransition(r.Stage, domain.StageInProgress); err == nil {
			_, err = c.api.UpdateStage(ctx, r.ID, domain.StageInProgress)
		}
	case ActionMarkRepaired:
		if err = ValidateTransition(r.Stage, domain.StageRepaired); err == nil {
			_, err = c.api.Complete(ctx, r.ID, req.DurationHours)
		}
	case ActionMarkScrap:
		if err = ValidateTransition(r.Stage, domain.StageScrap); err == nil {
			_, err = c.api.Scrap(ctx, r.ID)
		}
	default:
		err = fmt.Errorf("unknown action %q", req.Action)
	}
	return err
}

// Create submits a new request and reloads the board on success
func (c *Controller) Create(ctx context.Context, draft domain.RequestDraft) (*domain.MaintenanceRequest, error) {
	created, err := c.api.Create(ctx, draft)
	if err != nil {
		c.notifier.Notify(LevelError, fmt.Sprintf("Could not create request: %v", err))
		return nil, err
	}
	c.resync(ctx)
	return created, nil
}

// AvailableTechnicians feeds the assignment picker
func (c *Controller) AvailableTechnicians(ctx context.Context, teamID *uint) ([]domain.Technician, error) {
	return c.api.AvailableTechnicians(ctx, teamID)
}

// resync reloads after a mutation; a failed reload keeps the current board
// and is visible through LastError.
func (c *Controller) resync(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		c.logger.Warn("Resync after mutation failed", zap.Error(err))
	}
}
