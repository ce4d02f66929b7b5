package config

import (
	"errors"

	"gearguard/internal/adapters/persistence/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedReferenceData seeds maintenance teams and work centers. Rows are looked
// up by their unique key first so the seeder can run on every boot.
func SeedReferenceData(db *gorm.DB, log *zap.Logger) error {
	if err := seedTeams(db, log); err != nil {
		return err
	}
	if err := seedWorkCenters(db, log); err != nil {
		return err
	}

	log.Info("Reference data seeded")
	return nil
}

func seedTeams(db *gorm.DB, log *zap.Logger) error {
	teams := []models.MaintenanceTeam{
		{Name: "Mechanics", Description: "Presses, lathes and conveyor drives"},
		{Name: "Electricians", Description: "Panels, motors and plant wiring"},
		{Name: "IT Support", Description: "Workstations, printers and network gear"},
	}

	for _, t := range teams {
		var existing models.MaintenanceTeam
		err := db.Where("name = ?", t.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&t).Error; err != nil {
			return err
		}
		log.Debug("Created team", zap.String("name", t.Name))
	}
	return nil
}

func seedWorkCenters(db *gorm.DB, log *zap.Logger) error {
	centers := []models.WorkCenter{
		{Code: "WC-ASM", Name: "Assembly Line 1", CostPerHour: 45, CapacityEfficiency: 100, OEETarget: 85},
		{Code: "WC-CNC", Name: "CNC Cell", CostPerHour: 80, CapacityEfficiency: 95, OEETarget: 80},
		{Code: "WC-PKG", Name: "Packaging", CostPerHour: 30, CapacityEfficiency: 100, OEETarget: 90},
	}

	for _, wc := range centers {
		var existing models.WorkCenter
		err := db.Where("code = ?", wc.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&wc).Error; err != nil {
			return err
		}
		log.Debug("Created work center", zap.String("code", wc.Code))
	}
	return nil
}
