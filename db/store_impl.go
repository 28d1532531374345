package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	"mcontrold/config"
	"mcontrold/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// StationResults runs the configured query and translates its physical
// columns to the logical fields through the column mapping. Mapped columns
// missing from the result set are skipped with a warning; if nothing maps at
// all the query is useless and an error is returned.
func (s *SQLStore) StationResults(doc *config.Document) ([]model.StationResult, error) {
	query := doc.Query.Active()
	if query == "" {
		return nil, fmt.Errorf("no query specified in configuration")
	}

	rows, err := s.db.Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("warning: failed to close result rows: %v", err)
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading result columns: %w", err)
	}
	colIdx := make(map[string]int, len(cols))
	for i, c := range cols {
		colIdx[c] = i
	}

	// logical field -> result column index, for the columns that exist
	mapped := make(map[string]int, len(doc.ColumnMapping))
	for logical, physical := range doc.ColumnMapping {
		idx, ok := colIdx[physical]
		if !ok {
			log.Printf("warning: column %s not found in query results", physical)
			continue
		}
		mapped[logical] = idx
	}
	if len(mapped) == 0 {
		return nil, ErrNoMappedColumns
	}

	var results []model.StationResult
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("error scanning query results: %w", err)
		}
		var r model.StationResult
		for logical, idx := range mapped {
			switch logical {
			case "stationName":
				r.StationName = asString(values[idx])
			case "result":
				r.Result = model.TestResult(asString(values[idx]))
			case "slot":
				r.Slot = asString(values[idx])
			case "testDate":
				r.TestDate = asTime(values[idx])
			case "lastMaintenance":
				r.LastMaintenance = asTime(values[idx])
			case "maintenanceDue":
				r.MaintenanceDue = asInt(values[idx])
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query results: %w", err)
	}
	return results, nil
}

func (s *SQLStore) RecentRigLogs(limit int) ([]model.RigLog, error) {
	var logs []model.RigLog
	err := s.db.
		Order("tlog_upload_time DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (s *SQLStore) MaintenanceByStation(station string) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := s.db.
		Where("station_name = ?", station).
		Order("scheduled_date").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrStationNotFound
	}
	return records, nil
}

// UpcomingMaintenance returns the records scheduled within the next
// withinDays days, soonest first.
func (s *SQLStore) UpcomingMaintenance(withinDays int) ([]model.MaintenanceRecord, error) {
	now := time.Now()
	var records []model.MaintenanceRecord
	err := s.db.
		Where("scheduled_date BETWEEN ? AND ?", now, now.AddDate(0, 0, withinDays)).
		Order("scheduled_date").
		Find(&records).Error
	return records, err
}

// StatusSummary counts rig logs by derived maintenance status: negative days
// are overdue, up to a week out is due soon, the rest are fine.
func (s *SQLStore) StatusSummary() (model.StatusSummary, error) {
	var summary model.StatusSummary
	if err := s.db.Model(&model.RigLog{}).
		Where("days_until_maintenance < 0").
		Count(&summary.Overdue).Error; err != nil {
		return summary, err
	}
	if err := s.db.Model(&model.RigLog{}).
		Where("days_until_maintenance >= 0 AND days_until_maintenance <= 7").
		Count(&summary.DueSoon).Error; err != nil {
		return summary, err
	}
	if err := s.db.Model(&model.RigLog{}).
		Where("days_until_maintenance > 7").
		Count(&summary.OK).Error; err != nil {
		return summary, err
	}
	return summary, nil
}

// LogAudit persists an audit entry and logs it through the supplied logger.
func (s *SQLStore) LogAudit(logger *zap.SugaredLogger, entry model.AuditEntry) error {
	if err := s.db.Create(&entry).Error; err != nil {
		if logger != nil {
			logger.Errorw("failed to persist audit entry",
				"action", entry.Action,
				"station", entry.StationName,
				"error", err,
			)
		}
		return fmt.Errorf("failed to persist audit entry: %w", err)
	}
	if logger != nil {
		logger.Infow("audit",
			"action", entry.Action,
			"station", entry.StationName,
			"slot", entry.Slot,
			"message", entry.Message,
		)
	}
	return nil
}

// asString, asTime and asInt coerce driver values. Engines disagree here:
// mysql hands back []byte for text, sqlite hands back time.Time for
// datetime columns, and dates sometimes arrive as strings.

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

func asTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case sql.NullTime:
		if t.Valid {
			return &t.Time
		}
		return nil
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	}
	return nil
}

func parseTimeString(s string) *time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func asInt(v any) *int {
	switch t := v.(type) {
	case int64:
		n := int(t)
		return &n
	case int:
		return &t
	case int32:
		n := int(t)
		return &n
	case float64:
		n := int(t)
		return &n
	case []byte:
		if n, err := strconv.Atoi(string(t)); err == nil {
			return &n
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return &n
		}
	}
	return nil
}
