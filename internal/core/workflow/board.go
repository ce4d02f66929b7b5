package workflow

import (
	"time"

	"gearguard/internal/core/domain"
)

// Board maps each stage to its column of requests. All four stage keys are
// always present; column order is display-only.
type Board map[domain.Stage][]domain.MaintenanceRequest

// Listing is a list response in either of the two shapes the backend
// produces: a flat slice (equipment-filtered) or stage-grouped columns.
type Listing struct {
	Flat    []domain.MaintenanceRequest
	Grouped map[domain.Stage][]domain.MaintenanceRequest
}

// NewBoard returns a board with every column initialised and empty
func NewBoard() Board {
	b := make(Board, len(domain.Stages))
	for _, s := range domain.Stages {
		b[s] = []domain.MaintenanceRequest{}
	}
	return b
}

// Normalize turns a listing into a board. Requests with an unknown stage are
// dropped and returned separately so the caller can log them.
func Normalize(l Listing) (Board, []domain.MaintenanceRequest) {
	if l.Grouped != nil {
		return normalizeGrouped(l.Grouped)
	}
	return GroupByStage(l.Flat)
}

// GroupByStage buckets a flat list into the four columns, preserving input
// order within each column.
func GroupByStage(reqs []domain.MaintenanceRequest) (Board, []domain.MaintenanceRequest) {
	b := NewBoard()
	var dropped []domain.MaintenanceRequest
	for _, r := range reqs {
		if !r.Stage.Valid() {
			dropped = append(dropped, r)
			continue
		}
		b[r.Stage] = append(b[r.Stage], r)
	}
	return b, dropped
}

func normalizeGrouped(grouped map[domain.Stage][]domain.MaintenanceRequest) (Board, []domain.MaintenanceRequest) {
	b := NewBoard()
	var dropped []domain.MaintenanceRequest
	for stage, col := range grouped {
		if !stage.Valid() {
			dropped = append(dropped, col...)
			continue
		}
		b[stage] = append(b[stage], col...)
	}
	return b, dropped
}

// Clone returns a deep copy of the column slices
func (b Board) Clone() Board {
	out := NewBoard()
	for stage, col := range b {
		out[stage] = append([]domain.MaintenanceRequest{}, col...)
	}
	return out
}

// Find locates a request by id
func (b Board) Find(id string) (domain.MaintenanceRequest, bool) {
	for _, stage := range domain.Stages {
		for _, r := range b[stage] {
			if r.ID == id {
				return r, true
			}
		}
	}
	return domain.MaintenanceRequest{}, false
}

// Count returns the number of requests across all columns
func (b Board) Count() int {
	n := 0
	for _, col := range b {
		n += len(col)
	}
	return n
}

// Flatten returns every request in column order
func (b Board) Flatten() []domain.MaintenanceRequest {
	out := make([]domain.MaintenanceRequest, 0, b.Count())
	for _, stage := range domain.Stages {
		out = append(out, b[stage]...)
	}
	return out
}

// move removes the request from its current column and appends it, with the
// new stage, to the destination column.
func (b Board) move(id string, to domain.Stage) bool {
	for _, stage := range domain.Stages {
		col := b[stage]
		for i, r := range col {
			if r.ID != id {
				continue
			}
			b[stage] = append(col[:i:i], col[i+1:]...)
			r.Stage = to
			b[to] = append(b[to], r)
			return true
		}
	}
	return false
}

// replace swaps in the server copy of a request, placing it in the column
// of its (possibly new) stage.
func (b Board) replace(updated domain.MaintenanceRequest) {
	if !updated.Stage.Valid() {
		return
	}
	for _, stage := range domain.Stages {
		col := b[stage]
		for i, r := range col {
			if r.ID != updated.ID {
				continue
			}
			if stage == updated.Stage {
				col[i] = updated
				return
			}
			b[stage] = append(col[:i:i], col[i+1:]...)
			b[updated.Stage] = append(b[updated.Stage], updated)
			return
		}
	}
	b[updated.Stage] = append(b[updated.Stage], updated)
}

// GroupByDay buckets scheduled requests by calendar day (YYYY-MM-DD in loc).
// Requests without a scheduled date are skipped.
func GroupByDay(reqs []domain.MaintenanceRequest, loc *time.Location) map[string][]domain.MaintenanceRequest {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[string][]domain.MaintenanceRequest)
	for _, r := range reqs {
		if r.ScheduledDate == nil {
			continue
		}
		key := r.ScheduledDate.In(loc).Format("2006-01-02")
		days[key] = append(days[key], r)
	}
	return days
}

// IsOverdue reports whether a request is past its scheduled date and still
// open, relative to now.
func IsOverdue(r *domain.MaintenanceRequest, now time.Time) bool {
	if r.ScheduledDate == nil || IsTerminal(r.Stage) {
		return false
	}
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return r.ScheduledDate.Before(startOfDay)
}
