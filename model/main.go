package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type MaintenanceStatus string

const (
	StatusScheduled MaintenanceStatus = "Scheduled"
	StatusOK        MaintenanceStatus = "OK"
	StatusDueSoon   MaintenanceStatus = "Due Soon"
	StatusOverdue   MaintenanceStatus = "Overdue"
	StatusCompleted MaintenanceStatus = "Completed"
)

// IsValid returns true if MaintenanceStatus is known
func (s MaintenanceStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusOK, StatusDueSoon, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

func (s *MaintenanceStatus) Scan(value any) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into MaintenanceStatus", value)
	}
	*s = MaintenanceStatus(v)
	return nil
}

func (s MaintenanceStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid MaintenanceStatus %q", s)
	}
	return string(s), nil
}

// StatusForDue derives the maintenance status from the number of days until
// maintenance is due. Negative means the window has already passed.
func StatusForDue(days int) MaintenanceStatus {
	switch {
	case days < 0:
		return StatusOverdue
	case days <= 7:
		return StatusDueSoon
	}
	return StatusOK
}

type TestResult string

const (
	ResultPassed TestResult = "PASSED"
	ResultFailed TestResult = "FAILED"
	ResultScrap  TestResult = "SCRAP"
)

func (r TestResult) IsValid() bool {
	switch r {
	case ResultPassed, ResultFailed, ResultScrap:
		return true
	}
	return false
}

func (r *TestResult) Scan(value any) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into TestResult", value)
	}
	*r = TestResult(v)
	return nil
}

func (r TestResult) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid TestResult %q", r)
	}
	return string(r), nil
}

// A MaintenanceRecord tracks one maintenance action (done or planned) for a
// station slot.
type MaintenanceRecord struct {
	gorm.Model
	StationName     string `gorm:"size:255;not null;index:idx_station_slot"`
	Slot            string `gorm:"size:50;not null;index:idx_station_slot"`
	MaintenanceDate *time.Time
	ScheduledDate   *time.Time
	MaintainedBy    string            `gorm:"size:255"`
	Status          MaintenanceStatus `gorm:"type:text;index"`
	Notes           string
}

// A RigLog is one uploaded test-log entry from a station rig. Its column
// names are the physical side of the default column mapping.
type RigLog struct {
	gorm.Model
	RigName              string     `gorm:"size:255;not null;index:idx_rig_slot"`
	LogResult            TestResult `gorm:"type:text"`
	SlotNumber           string     `gorm:"size:50;not null;index:idx_rig_slot"`
	TlogUploadTime       time.Time  `gorm:"column:tlog_upload_time;index;autoCreateTime"`
	LastMaintenanceDate  *time.Time
	DaysUntilMaintenance int
	CycleCount           int `gorm:"default:0"`
	MaintenanceStatus    MaintenanceStatus
	ScheduledDate        *time.Time
}

// StationResult is the logical record the downstream application consumes.
// It is produced by applying the column mapping to a query result row and is
// never persisted.
type StationResult struct {
	StationName     string
	Result          TestResult
	Slot            string
	TestDate        *time.Time
	LastMaintenance *time.Time
	MaintenanceDue  *int
}

// Status derives the maintenance status for this result, or StatusOK when no
// due information was mapped.
func (r StationResult) Status() MaintenanceStatus {
	if r.MaintenanceDue == nil {
		return StatusOK
	}
	return StatusForDue(*r.MaintenanceDue)
}

type AuditEntry struct {
	gorm.Model
	StationName string `gorm:"index"`
	Slot        string
	Action      string `gorm:"index"` // e.g. "BOOTSTRAP", "IMPORT", "GRANT"
	Message     string
	Metadata    string // optional JSON blob for advanced inspection
}

// StatusSummary is the per-status breakdown the overview screens show.
type StatusSummary struct {
	OK      int64
	DueSoon int64
	Overdue int64
}
