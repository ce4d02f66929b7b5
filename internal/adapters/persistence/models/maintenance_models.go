package models

import (
	"time"

	"gearguard/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Teams & Work Centers
// ============================================================

// MaintenanceTeam groups technicians; membership lives in team_members
type MaintenanceTeam struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Members     []User         `gorm:"many2many:team_members;" json:"members,omitempty"`
}

func (MaintenanceTeam) TableName() string {
	return "maintenance_teams"
}

// TeamRef is the short form used in nested responses
type TeamRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TeamResponse DTO
type TeamResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Members     []*UserResponse `json:"members"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (t *MaintenanceTeam) ToResponse() *TeamResponse {
	resp := &TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Members:     make([]*UserResponse, 0, len(t.Members)),
		CreatedAt:   t.CreatedAt,
	}
	for i := range t.Members {
		resp.Members = append(resp.Members, t.Members[i].ToResponse())
	}
	return resp
}

// WorkCenter is a production location that requests can be booked against
type WorkCenter struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Code               string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name               string         `gorm:"size:100;not null" json:"name"`
	CostPerHour        float64        `gorm:"type:decimal(10,2);default:0" json:"cost_per_hour"`
	CapacityEfficiency float64        `gorm:"type:decimal(5,2);default:100" json:"capacity_efficiency"`
	OEETarget          float64        `gorm:"type:decimal(5,2);default:0" json:"oee_target"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WorkCenter) TableName() string {
	return "work_centers"
}

// ============================================================
// Equipment
// ============================================================

// Equipment is a maintainable asset
type Equipment struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"size:150;not null;index" json:"name"`
	SerialNumber        string         `gorm:"size:100;uniqueIndex;not null" json:"serial_number"`
	Category            string         `gorm:"size:50;index" json:"category"`
	Department          string         `gorm:"size:100" json:"department"`
	Location            string         `gorm:"size:150" json:"location"`
	OwnerEmployee       string         `gorm:"size:150" json:"owner_employee"`
	PurchaseDate        *time.Time     `gorm:"type:date" json:"purchase_date"`
	WarrantyEnd         *time.Time     `gorm:"type:date" json:"warranty_end"`
	DefaultTeamID       *uint          `json:"default_team_id"`
	DefaultTechnicianID *uint          `json:"default_technician_id"`
	DefaultWorkCenterID *uint          `json:"default_work_center_id"`
	IsScrapped          bool           `gorm:"default:false;index" json:"is_scrapped"`
	ScrappedAt          *time.Time     `json:"scrapped_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	DefaultTeam       *MaintenanceTeam `gorm:"foreignKey:DefaultTeamID" json:"default_team,omitempty"`
	DefaultTechnician *User            `gorm:"foreignKey:DefaultTechnicianID" json:"default_technician,omitempty"`
	DefaultWorkCenter *WorkCenter      `gorm:"foreignKey:DefaultWorkCenterID" json:"default_work_center,omitempty"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// EquipmentResponse DTO
type EquipmentResponse struct {
	ID                    uint       `json:"id"`
	Name                  string     `json:"name"`
	SerialNumber          string     `json:"serial_number"`
	Category              string     `json:"category"`
	Department            string     `json:"department"`
	Location              string     `json:"location"`
	OwnerEmployee         string     `json:"owner_employee"`
	PurchaseDate          *time.Time `json:"purchase_date"`
	WarrantyEnd           *time.Time `json:"warranty_end"`
	UnderWarranty         bool       `json:"under_warranty"`
	DefaultTeamID         *uint      `json:"default_team_id"`
	DefaultTeamName       string     `json:"default_team_name,omitempty"`
	DefaultTechnicianID   *uint      `json:"default_technician_id"`
	DefaultTechnicianName string     `json:"default_technician_name,omitempty"`
	DefaultWorkCenterID   *uint      `json:"default_work_center_id"`
	DefaultWorkCenterName string     `json:"default_work_center_name,omitempty"`
	IsScrapped            bool       `json:"is_scrapped"`
	ScrappedAt            *time.Time `json:"scrapped_at"`
	OpenRequests          int64      `json:"open_requests"`
	CreatedAt             time.Time  `json:"created_at"`
}

func (e *Equipment) ToResponse() *EquipmentResponse {
	resp := &EquipmentResponse{
		ID:                  e.ID,
		Name:                e.Name,
		SerialNumber:        e.SerialNumber,
		Category:            e.Category,
		Department:          e.Department,
		Location:            e.Location,
		OwnerEmployee:       e.OwnerEmployee,
		PurchaseDate:        e.PurchaseDate,
		WarrantyEnd:         e.WarrantyEnd,
		UnderWarranty:       e.WarrantyEnd != nil && time.Now().Before(*e.WarrantyEnd),
		DefaultTeamID:       e.DefaultTeamID,
		DefaultTechnicianID: e.DefaultTechnicianID,
		DefaultWorkCenterID: e.DefaultWorkCenterID,
		IsScrapped:          e.IsScrapped,
		ScrappedAt:          e.ScrappedAt,
		CreatedAt:           e.CreatedAt,
	}
	if e.DefaultTeam != nil {
		resp.DefaultTeamName = e.DefaultTeam.Name
	}
	if e.DefaultTechnician != nil {
		resp.DefaultTechnicianName = e.DefaultTechnician.DisplayName()
	}
	if e.DefaultWorkCenter != nil {
		resp.DefaultWorkCenterName = e.DefaultWorkCenter.Name
	}
	return resp
}

// ============================================================
// Maintenance Requests
// ============================================================

// MaintenanceRequest is one card on the board. The primary key is a UUID so
// clients can treat ids as opaque strings.
type MaintenanceRequest struct {
	ID                   string         `gorm:"primaryKey;type:char(36)" json:"id"`
	Subject              string         `gorm:"size:200;not null" json:"subject"`
	Description          string         `gorm:"type:text" json:"description"`
	Type                 string         `gorm:"size:20;not null;default:'CORRECTIVE'" json:"type"`
	Stage                string         `gorm:"size:20;not null;default:'NEW';index" json:"stage"`
	EquipmentID          *uint          `gorm:"index" json:"equipment_id"`
	WorkCenterID         *uint          `gorm:"index" json:"work_center_id"`
	TeamID               *uint          `gorm:"index" json:"team_id"`
	AssignedTechnicianID *uint          `gorm:"index" json:"assigned_technician_id"`
	ScheduledDate        *time.Time     `gorm:"index" json:"scheduled_date"`
	DurationHours        *float64       `gorm:"type:decimal(8,2)" json:"duration_hours"`
	StartedAt            *time.Time     `json:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at"`
	IsOverdue            bool           `gorm:"default:false;index" json:"is_overdue"`
	CreatedBy            uint           `gorm:"not null;index" json:"created_by"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Equipment          *Equipment       `gorm:"foreignKey:EquipmentID" json:"equipment,omitempty"`
	WorkCenter         *WorkCenter      `gorm:"foreignKey:WorkCenterID" json:"work_center,omitempty"`
	Team               *MaintenanceTeam `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	AssignedTechnician *User            `gorm:"foreignKey:AssignedTechnicianID" json:"assigned_technician,omitempty"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

// ToDomain flattens the row and its preloaded relations into the wire shape.
// IsOverdue carries the persisted flag; services recompute it against now.
func (m *MaintenanceRequest) ToDomain() domain.MaintenanceRequest {
	r := domain.MaintenanceRequest{
		ID:                   m.ID,
		Subject:              m.Subject,
		Description:          m.Description,
		Type:                 domain.RequestType(m.Type),
		Stage:                domain.Stage(m.Stage),
		EquipmentID:          m.EquipmentID,
		WorkCenterID:         m.WorkCenterID,
		TeamID:               m.TeamID,
		AssignedTechnicianID: m.AssignedTechnicianID,
		ScheduledDate:        m.ScheduledDate,
		DurationHours:        m.DurationHours,
		StartedAt:            m.StartedAt,
		CompletedAt:          m.CompletedAt,
		CreatedBy:            m.CreatedBy,
		CreatedAt:            m.CreatedAt,
		IsOverdue:            m.IsOverdue,
	}
	if m.Equipment != nil {
		r.EquipmentName = m.Equipment.Name
	}
	if m.WorkCenter != nil {
		r.WorkCenterName = m.WorkCenter.Name
	}
	if m.Team != nil {
		r.TeamName = m.Team.Name
	}
	if m.AssignedTechnician != nil {
		r.AssignedTechnicianName = m.AssignedTechnician.DisplayName()
	}
	return r
}

// RequestEvent is the audit trail of a request
type RequestEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequestID   string    `gorm:"type:char(36);not null;index" json:"request_id"`
	EventType   string    `gorm:"size:30;not null" json:"event_type"`
	FromStage   *string   `gorm:"size:20" json:"from_stage"`
	ToStage     *string   `gorm:"size:20" json:"to_stage"`
	Description string    `gorm:"type:text" json:"description"`
	PerformedBy uint      `gorm:"not null" json:"performed_by"`
	IPAddress   string    `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Performer *User `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
}

func (RequestEvent) TableName() string {
	return "request_events"
}

// Request event types
const (
	EventCreate      = "CREATE"
	EventStageChange = "STAGE_CHANGE"
	EventAssign      = "ASSIGN"
	EventComplete    = "COMPLETE"
	EventScrap       = "SCRAP"
)
