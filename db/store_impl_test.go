package db

import (
	"context"
	"testing"

	"mcontrold/config"
	"mcontrold/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database with the bootstrapped
// schema and seed rows.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Bootstrap(db, true))
	return db
}

func TestBootstrapSeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Bootstrap(db, true))

	var records int64
	require.NoError(t, db.Model(&model.MaintenanceRecord{}).Count(&records).Error)
	assert.EqualValues(t, 3, records)

	var logs int64
	require.NoError(t, db.Model(&model.RigLog{}).Count(&logs).Error)
	assert.EqualValues(t, 3, logs)
}

func TestBootstrapSchemaOnly(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Bootstrap(db, false))

	assert.True(t, db.Migrator().HasTable(&model.RigLog{}))
	var logs int64
	require.NoError(t, db.Model(&model.RigLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestPing(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	assert.NoError(t, store.Ping(context.Background()))

	var uninitialized *SQLStore
	assert.Error(t, uninitialized.Ping(context.Background()))
}

func TestStationResultsWithDefaultMapping(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	doc := config.Default()

	results, err := store.StationResults(doc)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byStation := make(map[string]model.StationResult, len(results))
	for _, r := range results {
		byStation[r.StationName] = r
	}

	a := byStation["Station A"]
	assert.Equal(t, model.ResultPassed, a.Result)
	assert.Equal(t, "Slot 1", a.Slot)
	require.NotNil(t, a.TestDate)
	require.NotNil(t, a.LastMaintenance)
	require.NotNil(t, a.MaintenanceDue)
	assert.Equal(t, 15, *a.MaintenanceDue)
	assert.Equal(t, model.StatusOK, a.Status())

	b := byStation["Station B"]
	assert.Equal(t, model.ResultFailed, b.Result)
	require.NotNil(t, b.MaintenanceDue)
	assert.Equal(t, 5, *b.MaintenanceDue)
	assert.Equal(t, model.StatusDueSoon, b.Status())

	c := byStation["Station C"]
	require.NotNil(t, c.MaintenanceDue)
	assert.Equal(t, -5, *c.MaintenanceDue)
	assert.Equal(t, model.StatusOverdue, c.Status())
}

func TestStationResultsSkipsMissingColumns(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	doc := config.Default()
	// Two mapped columns that do not exist in this deployment's schema.
	doc.ColumnMapping["lastMaintenance"] = "no_such_column"
	doc.ColumnMapping["maintenanceDue"] = "also_missing"

	results, err := store.StationResults(doc)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.NotEmpty(t, r.StationName)
		assert.Nil(t, r.LastMaintenance)
		assert.Nil(t, r.MaintenanceDue)
		assert.Equal(t, model.StatusOK, r.Status())
	}
}

func TestStationResultsNoMappedColumns(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	doc := config.Default()
	doc.ColumnMapping = map[string]string{
		"stationName": "ghost_a",
		"result":      "ghost_b",
	}

	_, err := store.StationResults(doc)
	assert.ErrorIs(t, err, ErrNoMappedColumns)
}

func TestStationResultsUsesCustomQueryWhenEnabled(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	doc := config.Default()
	doc.Query.CustomQuery = "SELECT rig_name, log_result, slot_number FROM rig_logs WHERE log_result = 'FAILED'"
	doc.Query.CustomQueryEnabled = true

	results, err := store.StationResults(doc)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Station B", results[0].StationName)
}

func TestStationResultsEmptyQuery(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	doc := config.Default()
	doc.Query = config.Query{}

	_, err := store.StationResults(doc)
	assert.Error(t, err)
}

func TestRecentRigLogs(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))

	logs, err := store.RecentRigLogs(2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestMaintenanceByStation(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))

	records, err := store.MaintenanceByStation("Station A")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusScheduled, records[0].Status)

	_, err = store.MaintenanceByStation("Station Z")
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestUpcomingMaintenance(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))

	// Station A is scheduled +15d, Station B +5d, Station C is in the past.
	records, err := store.UpcomingMaintenance(30)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = store.UpcomingMaintenance(7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Station B", records[0].StationName)
}

func TestStatusSummary(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))

	summary, err := store.StatusSummary()
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.OK)
	assert.EqualValues(t, 1, summary.DueSoon)
	assert.EqualValues(t, 1, summary.Overdue)
}

func TestStatusSummaryBoundaries(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Bootstrap(db, false))

	for i, days := range []int{-1, 0, 7, 8} {
		entry := model.RigLog{
			RigName:              "Station Edge",
			LogResult:            model.ResultPassed,
			SlotNumber:           "Slot " + string(rune('1'+i)),
			DaysUntilMaintenance: days,
			MaintenanceStatus:    model.StatusForDue(days),
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	store := NewSQLStore(db)
	summary, err := store.StatusSummary()
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Overdue) // -1
	assert.EqualValues(t, 2, summary.DueSoon) // 0 and 7
	assert.EqualValues(t, 1, summary.OK)      // 8

	assert.Equal(t, model.StatusOverdue, model.StatusForDue(-1))
	assert.Equal(t, model.StatusDueSoon, model.StatusForDue(0))
	assert.Equal(t, model.StatusDueSoon, model.StatusForDue(7))
	assert.Equal(t, model.StatusOK, model.StatusForDue(8))
}

func TestLogAudit(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLStore(db)

	err := store.LogAudit(zap.NewNop().Sugar(), model.AuditEntry{
		StationName: "Station A",
		Slot:        "Slot 1",
		Action:      "BOOTSTRAP",
		Message:     "test entry",
	})
	require.NoError(t, err)

	var entries []model.AuditEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "BOOTSTRAP", entries[0].Action)
}
