package workflow

import (
	"context"

	"gearguard/internal/core/domain"
)

// AutoDuration asks the backend to derive the duration from the start time
const AutoDuration = 0.0

// ListFilter narrows a board load
type ListFilter struct {
	EquipmentID *uint
}

// RequestAPI is the backend contract the controller consumes
type RequestAPI interface {
	List(ctx context.Context, filter ListFilter) (*Listing, error)
	Create(ctx context.Context, draft domain.RequestDraft) (*domain.MaintenanceRequest, error)
	UpdateStage(ctx context.Context, id string, stage domain.Stage) (*domain.MaintenanceRequest, error)
	// Assign with a nil technicianID assigns the caller
	Assign(ctx context.Context, id string, technicianID *uint) (*domain.MaintenanceRequest, error)
	Complete(ctx context.Context, id string, durationHours float64) (*domain.MaintenanceRequest, error)
	Scrap(ctx context.Context, id string) (*domain.MaintenanceRequest, error)
	AvailableTechnicians(ctx context.Context, teamID *uint) ([]domain.Technician, error)
}

// Level is the severity of a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notifier shows transient, non-blocking messages
type Notifier interface {
	Notify(level Level, message string)
}

// Confirmer asks the user to confirm a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(level Level, message string)

// Notify calls f
func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// ConfirmerFunc adapts a function to Confirmer
type ConfirmerFunc func(ctx context.Context, prompt string) bool

// Confirm calls f
func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type discardNotifier struct{}

func (discardNotifier) Notify(Level, string) {}

type denyConfirmer struct{}

func (denyConfirmer) Confirm(context.Context, string) bool { return false }
