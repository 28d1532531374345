package db

import (
	"fmt"
	"log"
	"time"

	"mcontrold/model"

	"gorm.io/gorm"
)

// Bootstrap creates the maintenance-control schema and, when seed is set,
// loads the fixed sample rows. Seeding is idempotent: existing rows for a
// station slot are left alone.
func Bootstrap(db *gorm.DB, seed bool) error {
	if err := db.AutoMigrate(
		&model.MaintenanceRecord{},
		&model.RigLog{},
		&model.AuditEntry{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	if !seed {
		log.Println("bootstrap: database schema created but no seed data loaded")
		return nil
	}

	if err := seedMaintenanceRecords(db); err != nil {
		return fmt.Errorf("bootstrap: failed to seed maintenance records: %w", err)
	}
	if err := seedRigLogs(db); err != nil {
		return fmt.Errorf("bootstrap: failed to seed rig logs: %w", err)
	}

	log.Println("bootstrap: completed and loaded seed data")
	return nil
}

func seedMaintenanceRecords(db *gorm.DB) error {
	now := time.Now()
	records := []model.MaintenanceRecord{
		{
			StationName:     "Station A",
			Slot:            "Slot 1",
			MaintenanceDate: timePtr(now.AddDate(0, 0, -15)),
			ScheduledDate:   timePtr(now.AddDate(0, 0, 15)),
			MaintainedBy:    "System",
			Status:          model.StatusScheduled,
			Notes:           "Initial maintenance record",
		},
		{
			StationName:     "Station B",
			Slot:            "Slot 2",
			MaintenanceDate: timePtr(now.AddDate(0, 0, -25)),
			ScheduledDate:   timePtr(now.AddDate(0, 0, 5)),
			MaintainedBy:    "System",
			Status:          model.StatusDueSoon,
			Notes:           "Initial maintenance record",
		},
		{
			StationName:     "Station C",
			Slot:            "Slot 1",
			MaintenanceDate: timePtr(now.AddDate(0, 0, -35)),
			ScheduledDate:   timePtr(now.AddDate(0, 0, -5)),
			MaintainedBy:    "System",
			Status:          model.StatusOverdue,
			Notes:           "Initial maintenance record",
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			lookup := model.MaintenanceRecord{StationName: record.StationName, Slot: record.Slot}
			if err := tx.Where(lookup).FirstOrCreate(&record).Error; err != nil {
				return fmt.Errorf("failed to insert maintenance record for %s/%s: %w",
					record.StationName, record.Slot, err)
			}
		}
		return nil
	})
}

func seedRigLogs(db *gorm.DB) error {
	now := time.Now()
	logs := []model.RigLog{
		{
			RigName:              "Station A",
			LogResult:            model.ResultPassed,
			SlotNumber:           "Slot 1",
			TlogUploadTime:       now,
			LastMaintenanceDate:  timePtr(now.AddDate(0, 0, -15)),
			DaysUntilMaintenance: 15,
			CycleCount:           100,
			MaintenanceStatus:    model.StatusOK,
			ScheduledDate:        timePtr(now.AddDate(0, 0, 15)),
		},
		{
			RigName:              "Station B",
			LogResult:            model.ResultFailed,
			SlotNumber:           "Slot 2",
			TlogUploadTime:       now,
			LastMaintenanceDate:  timePtr(now.AddDate(0, 0, -25)),
			DaysUntilMaintenance: 5,
			CycleCount:           200,
			MaintenanceStatus:    model.StatusDueSoon,
			ScheduledDate:        timePtr(now.AddDate(0, 0, 5)),
		},
		{
			RigName:              "Station C",
			LogResult:            model.ResultPassed,
			SlotNumber:           "Slot 1",
			TlogUploadTime:       now,
			LastMaintenanceDate:  timePtr(now.AddDate(0, 0, -35)),
			DaysUntilMaintenance: -5,
			CycleCount:           300,
			MaintenanceStatus:    model.StatusOverdue,
			ScheduledDate:        timePtr(now.AddDate(0, 0, -5)),
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range logs {
			lookup := model.RigLog{RigName: entry.RigName, SlotNumber: entry.SlotNumber}
			if err := tx.Where(lookup).FirstOrCreate(&entry).Error; err != nil {
				return fmt.Errorf("failed to insert rig log for %s/%s: %w",
					entry.RigName, entry.SlotNumber, err)
			}
		}
		return nil
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}
