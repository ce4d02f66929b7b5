package workflow

import "gearguard/internal/core/domain"

// Action is a user-triggerable operation on a request card
type Action string

const (
	ActionAssign         Action = "assign"
	ActionAssignToMe     Action = "assign_to_me"
	ActionEditAssignment Action = "edit_assignment"
	ActionStartWork      Action = "start_work"
	ActionMarkRepaired   Action = "mark_repaired"
	ActionMarkScrap      Action = "mark_scrap"
)

// Destructive reports whether the action needs an explicit confirmation
func (a Action) Destructive() bool {
	return a == ActionMarkRepaired || a == ActionMarkScrap
}

// Label is the button caption for the action
func (a Action) Label() string {
	switch a {
	case ActionAssign:
		return "Assign"
	case ActionAssignToMe:
		return "Assign to Me"
	case ActionEditAssignment:
		return "Edit assignment"
	case ActionStartWork:
		return "Start Work"
	case ActionMarkRepaired:
		return "Mark Repaired"
	case ActionMarkScrap:
		return "Mark Scrap"
	}
	return string(a)
}

// Capabilities is what a viewer may do with one request. It is the only
// place role rules live: drag eligibility, button rendering and server
// authorization all read it.
type Capabilities struct {
	Stage             domain.Stage
	Assigned          bool
	CanModify         bool
	CanSelfStart      bool
	CanComplete       bool
	CanAssign         bool
	CanSelfAssign     bool
	CanEditAssignment bool
}

// CapabilitiesFor computes the capabilities of viewer on req
func CapabilitiesFor(viewer domain.Viewer, req *domain.MaintenanceRequest) Capabilities {
	isManager := viewer.Role == domain.RoleManager
	isAssignee := viewer.UserID != 0 && req.AssignedTo(viewer.UserID)

	caps := Capabilities{
		Stage:     req.Stage,
		Assigned:  req.IsAssigned(),
		CanModify: viewer.Role == domain.RoleTechnician || isManager,
	}
	if !caps.CanModify {
		// a demoted technician may still be the assignee
		return caps
	}
	caps.CanSelfStart = isAssignee && req.Stage == domain.StageNew
	caps.CanComplete = req.Stage == domain.StageInProgress && (isAssignee || isManager)
	caps.CanAssign = req.Stage == domain.StageNew && isManager
	caps.CanSelfAssign = req.Stage == domain.StageNew && !req.IsAssigned() &&
		viewer.Role == domain.RoleTechnician
	caps.CanEditAssignment = isManager && req.Stage.Valid() && !IsTerminal(req.Stage)
	return caps
}

// Allows reports whether the viewer may move the request to the given stage.
// Illegal transitions are never allowed regardless of role.
func (c Capabilities) Allows(to domain.Stage) bool {
	if !CanTransition(c.Stage, to) {
		return false
	}
	switch to {
	case domain.StageInProgress:
		return c.CanSelfStart
	case domain.StageRepaired, domain.StageScrap:
		return c.CanComplete
	}
	return false
}

// Draggable reports whether any legal move is permitted
func (c Capabilities) Draggable() bool {
	for _, next := range transitions[c.Stage] {
		if c.Allows(next) {
			return true
		}
	}
	return false
}

// Actions lists the buttons to render, in display order
func (c Capabilities) Actions() []Action {
	var actions []Action
	// an unassigned NEW card gets the picker instead of the edit action
	openForPicker := c.CanAssign && !c.Assigned
	if c.CanEditAssignment && !openForPicker {
		actions = append(actions, ActionEditAssignment)
	}
	if openForPicker {
		actions = append(actions, ActionAssign)
	}
	if c.CanSelfAssign {
		actions = append(actions, ActionAssignToMe)
	}
	if c.CanSelfStart {
		actions = append(actions, ActionStartWork)
	}
	if c.CanComplete {
		actions = append(actions, ActionMarkRepaired, ActionMarkScrap)
	}
	return actions
}

// Has reports whether the action is currently available
func (c Capabilities) Has(action Action) bool {
	for _, a := range c.Actions() {
		if a == action {
			return true
		}
	}
	return false
}
