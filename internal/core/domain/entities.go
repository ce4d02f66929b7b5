package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleUser       Role = "USER"
	RoleTechnician Role = "TECHNICIAN"
	RoleManager    Role = "MANAGER"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTechnician, RoleManager:
		return true
	}
	return false
}

// Stage is the workflow state of a maintenance request
type Stage string

const (
	StageNew        Stage = "NEW"
	StageInProgress Stage = "IN_PROGRESS"
	StageRepaired   Stage = "REPAIRED"
	StageScrap      Stage = "SCRAP"
)

// Stages lists every stage in board column order
var Stages = []Stage{StageNew, StageInProgress, StageRepaired, StageScrap}

// Valid reports whether s is one of the four stages
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageInProgress, StageRepaired, StageScrap:
		return true
	}
	return false
}

// RequestType distinguishes breakdown repairs from planned maintenance
type RequestType string

const (
	RequestTypeCorrective RequestType = "CORRECTIVE"
	RequestTypePreventive RequestType = "PREVENTIVE"
)

// Valid reports whether t is a known request type
func (t RequestType) Valid() bool {
	return t == RequestTypeCorrective || t == RequestTypePreventive
}

// User represents a user in the domain layer
type User struct {
	ID        uint
	Username  string
	Email     string
	FullName  string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Viewer is the authenticated user as seen by the workflow rules
type Viewer struct {
	UserID uint `json:"user_id"`
	Role   Role `json:"role"`
}

// MaintenanceRequest is the wire and domain shape of a request
type MaintenanceRequest struct {
	ID                     string      `json:"id"`
	Subject                string      `json:"subject"`
	Description            string      `json:"description,omitempty"`
	Type                   RequestType `json:"type"`
	Stage                  Stage       `json:"stage"`
	EquipmentID            *uint       `json:"equipment_id,omitempty"`
	EquipmentName          string      `json:"equipment_name,omitempty"`
	WorkCenterID           *uint       `json:"work_center_id,omitempty"`
	WorkCenterName         string      `json:"work_center_name,omitempty"`
	TeamID                 *uint       `json:"team_id,omitempty"`
	TeamName               string      `json:"team_name,omitempty"`
	AssignedTechnicianID   *uint       `json:"assigned_technician_id"`
	AssignedTechnicianName string      `json:"assigned_technician_name,omitempty"`
	ScheduledDate          *time.Time  `json:"scheduled_date,omitempty"`
	DurationHours          *float64    `json:"duration_hours,omitempty"`
	StartedAt              *time.Time  `json:"started_at,omitempty"`
	CompletedAt            *time.Time  `json:"completed_at,omitempty"`
	CreatedBy              uint        `json:"created_by"`
	CreatedAt              time.Time   `json:"created_at"`
	IsOverdue              bool        `json:"is_overdue"`
}

// IsAssigned reports whether a technician is assigned
func (r *MaintenanceRequest) IsAssigned() bool {
	return r.AssignedTechnicianID != nil && *r.AssignedTechnicianID != 0
}

// AssignedTo reports whether userID is the assignee
func (r *MaintenanceRequest) AssignedTo(userID uint) bool {
	return r.IsAssigned() && *r.AssignedTechnicianID == userID
}

// RequestDraft is the input for creating a request
type RequestDraft struct {
	Subject       string      `json:"subject" validate:"required,max=200"`
	Description   string      `json:"description,omitempty" validate:"max=4000"`
	Type          RequestType `json:"type" validate:"required,oneof=CORRECTIVE PREVENTIVE"`
	EquipmentID   *uint       `json:"equipment_id,omitempty"`
	WorkCenterID  *uint       `json:"work_center_id,omitempty"`
	TeamID        *uint       `json:"team_id,omitempty"`
	ScheduledDate *time.Time  `json:"scheduled_date,omitempty"`
}

// TeamRef is a short reference to a maintenance team
type TeamRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Technician is a user available for assignment with their current load
type Technician struct {
	ID       uint      `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Teams    []TeamRef `json:"teams"`
	Load     int64     `json:"load"`
}

// DisplayName returns the full name, falling back to the username
func (t *Technician) DisplayName() string {
	if t.FullName != "" {
		return t.FullName
	}
	return t.Username
}
