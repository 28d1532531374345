package db

import (
	"context"
	"errors"

	"mcontrold/config"
	"mcontrold/model"

	"go.uber.org/zap"
)

var (
	ErrStationNotFound = errors.New("station not found")
	// ErrNoMappedColumns is returned when none of the mapped physical columns
	// exist in the query result.
	ErrNoMappedColumns = errors.New("no columns could be mapped from the query results")
)

type Store interface {
	Ping(ctx context.Context) error
	StationResults(doc *config.Document) ([]model.StationResult, error)
	RecentRigLogs(limit int) ([]model.RigLog, error)
	MaintenanceByStation(station string) ([]model.MaintenanceRecord, error)
	UpcomingMaintenance(withinDays int) ([]model.MaintenanceRecord, error)
	StatusSummary() (model.StatusSummary, error)
	LogAudit(logger *zap.SugaredLogger, entry model.AuditEntry) error
}
