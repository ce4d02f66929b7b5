// Package workflow holds the maintenance request stage machine, the role
// capability rules and the kanban board controller built on top of them.
// The server and every client front end share these rules.
package workflow

import "gearguard/internal/core/domain"

var transitions = map[domain.Stage][]domain.Stage{
	domain.StageNew:        {domain.StageInProgress},
	domain.StageInProgress: {domain.StageRepaired, domain.StageScrap},
	domain.StageRepaired:   nil,
	domain.StageScrap:      nil,
}

// CanTransition reports whether a request may move from one stage to another.
// Same-stage moves, reverse moves, skips and unknown stages are all illegal.
func CanTransition(from, to domain.Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStages returns the legal targets from a stage
func NextStages(from domain.Stage) []domain.Stage {
	next := transitions[from]
	out := make([]domain.Stage, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether a stage has no outgoing transitions
func IsTerminal(stage domain.Stage) bool {
	return stage == domain.StageRepaired || stage == domain.StageScrap
}

// ValidateTransition is CanTransition in error form
func ValidateTransition(from, to domain.Stage) error {
	if !to.Valid() {
		return domain.ErrUnknownStage
	}
	if !CanTransition(from, to) {
		return domain.ErrInvalidTransition
	}
	return nil
}
