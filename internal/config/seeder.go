package config

import (
	"errors"
	"time"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/core/domain"
	"gearguard/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run seeds the bootstrap manager and, when demo is set, a small plant with
// technicians, equipment and requests in every stage
func (s *Seeder) Run(demo bool) error {
	s.log.Info("Running database seeders", zap.Bool("demo", demo))

	if err := s.seedManager(); err != nil {
		return err
	}
	if !demo {
		return nil
	}

	if err := SeedReferenceData(s.db, s.log); err != nil {
		return err
	}
	if err := s.seedDemoUsers(); err != nil {
		return err
	}
	if err := s.seedEquipment(); err != nil {
		return err
	}
	if err := s.seedRequests(); err != nil {
		return err
	}

	s.log.Info("Database seeding completed")
	return nil
}

// seedManager creates the first manager account.
// Development only; change the password right after the first login.
func (s *Seeder) seedManager() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", domain.RoleManager).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.upsertUser("manager", "Plant Manager", domain.RoleManager); err != nil {
		return err
	}
	s.log.Warn("Bootstrap manager created with the default password", zap.String("username", "manager"))
	return nil
}

func (s *Seeder) seedDemoUsers() error {
	demo := []struct {
		username string
		fullName string
		role     domain.Role
		team     string
	}{
		{"alice", "Alice Novak", domain.RoleTechnician, "Mechanics"},
		{"bob", "Bob Reyes", domain.RoleTechnician, "Mechanics"},
		{"erin", "Erin Walsh", domain.RoleTechnician, "Electricians"},
		{"ivan", "Ivan Petrov", domain.RoleTechnician, "IT Support"},
		{"uma", "Uma Shah", domain.RoleUser, ""},
	}

	for _, d := range demo {
		user, err := s.upsertUser(d.username, d.fullName, d.role)
		if err != nil {
			return err
		}
		if d.team == "" {
			continue
		}
		var team models.MaintenanceTeam
		if err := s.db.Where("name = ?", d.team).First(&team).Error; err != nil {
			return err
		}
		if err := s.db.Model(&team).Association("Members").Append(user); err != nil {
			return err
		}
	}
	return nil
}

// upsertUser returns the user with the given username, creating it with
// "<username>123" as password when missing
func (s *Seeder) upsertUser(username, fullName string, role domain.Role) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := password.HashWithCost(username+"123", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Username: username,
		Email:    username + "@gearguard.local",
		FullName: fullName,
		Password: hashed,
		Role:     string(role),
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	s.log.Debug("Created user", zap.String("username", username), zap.String("role", string(role)))
	return &user, nil
}

func (s *Seeder) seedEquipment() error {
	var count int64
	if err := s.db.Model(&models.Equipment{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	team := func(name string) *uint {
		var t models.MaintenanceTeam
		if s.db.Where("name = ?", name).First(&t).Error != nil {
			return nil
		}
		return &t.ID
	}
	center := func(code string) *uint {
		var wc models.WorkCenter
		if s.db.Where("code = ?", code).First(&wc).Error != nil {
			return nil
		}
		return &wc.ID
	}
	tech := func(username string) *uint {
		var u models.User
		if s.db.Where("username = ?", username).First(&u).Error != nil {
			return nil
		}
		return &u.ID
	}

	purchased := time.Now().AddDate(-2, 0, 0)
	warranty := time.Now().AddDate(1, 0, 0)
	items := []models.Equipment{
		{
			Name: "CNC Lathe", SerialNumber: "LT-2041", Category: "Machine", Department: "Production",
			Location: "Hall B", PurchaseDate: &purchased, WarrantyEnd: &warranty,
			DefaultTeamID: team("Mechanics"), DefaultTechnicianID: tech("alice"), DefaultWorkCenterID: center("WC-CNC"),
		},
		{
			Name: "Hydraulic Press", SerialNumber: "HP-0007", Category: "Machine", Department: "Production",
			Location: "Hall A", PurchaseDate: &purchased,
			DefaultTeamID: team("Mechanics"), DefaultWorkCenterID: center("WC-ASM"),
		},
		{
			Name: "Main Distribution Panel", SerialNumber: "EL-MDP-1", Category: "Electrical", Department: "Facilities",
			Location: "Substation", DefaultTeamID: team("Electricians"), DefaultTechnicianID: tech("erin"),
		},
		{
			Name: "Label Printer", SerialNumber: "PR-5521", Category: "IT", Department: "Logistics",
			Location: "Shipping", OwnerEmployee: "Uma Shah",
			DefaultTeamID: team("IT Support"), DefaultTechnicianID: tech("ivan"), DefaultWorkCenterID: center("WC-PKG"),
		},
	}
	return s.db.Create(&items).Error
}

func (s *Seeder) seedRequests() error {
	var count int64
	if err := s.db.Model(&models.MaintenanceRequest{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var manager, alice models.User
	if err := s.db.Where("username = ?", "manager").First(&manager).Error; err != nil {
		return err
	}
	if err := s.db.Where("username = ?", "alice").First(&alice).Error; err != nil {
		return err
	}
	var equipment []models.Equipment
	if err := s.db.Order("id").Find(&equipment).Error; err != nil {
		return err
	}
	if len(equipment) < 3 {
		return nil
	}

	now := time.Now()
	day := func(offset int) *time.Time {
		t := time.Date(now.Year(), now.Month(), now.Day()+offset, 9, 0, 0, 0, now.Location())
		return &t
	}
	started := now.Add(-3 * time.Hour)
	completed := now.Add(-26 * time.Hour)
	duration := 2.5

	requests := []models.MaintenanceRequest{
		{
			Subject: "Spindle vibration at high RPM", Type: string(domain.RequestTypeCorrective),
			Stage: string(domain.StageNew), CreatedBy: manager.ID,
		},
		{
			Subject: "Quarterly lubrication", Type: string(domain.RequestTypePreventive),
			Stage: string(domain.StageNew), ScheduledDate: day(3), CreatedBy: manager.ID,
		},
		{
			Subject: "Hydraulic oil leak", Type: string(domain.RequestTypeCorrective),
			Stage: string(domain.StageInProgress), AssignedTechnicianID: &alice.ID, StartedAt: &started,
			CreatedBy: manager.ID,
		},
		{
			Subject: "Breaker trips under load", Type: string(domain.RequestTypePreventive),
			Stage: string(domain.StageNew), ScheduledDate: day(-2), IsOverdue: true, CreatedBy: manager.ID,
		},
		{
			Subject: "Replace chuck jaws", Type: string(domain.RequestTypeCorrective),
			Stage: string(domain.StageRepaired), AssignedTechnicianID: &alice.ID,
			CompletedAt: &completed, DurationHours: &duration, CreatedBy: manager.ID,
		},
	}
	targets := []int{0, 0, 1, 2, 0}

	for i := range requests {
		eq := equipment[targets[i]]
		requests[i].ID = uuid.NewString()
		requests[i].EquipmentID = &eq.ID
		requests[i].TeamID = eq.DefaultTeamID
		requests[i].WorkCenterID = eq.DefaultWorkCenterID
		if requests[i].AssignedTechnicianID == nil {
			requests[i].AssignedTechnicianID = eq.DefaultTechnicianID
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&requests).Error; err != nil {
			return err
		}
		to := string(domain.StageNew)
		for _, r := range requests {
			event := models.RequestEvent{
				RequestID:   r.ID,
				EventType:   models.EventCreate,
				ToStage:     &to,
				Description: "Seeded demo request",
				PerformedBy: manager.ID,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
