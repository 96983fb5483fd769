package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/partsdesk/partsdesk/internal/db"
	"github.com/partsdesk/partsdesk/internal/db/models"
	"github.com/partsdesk/partsdesk/internal/docstore"
)

// TestSetup contains all the components needed for testing
type TestSetup struct {
	DB               *gorm.DB
	Store            *docstore.Store
	ProjectService   *Project
	BOMService       *BOM
	TimesheetService *Timesheet
	CostService      *Cost
	ctx              context.Context
	cancel           context.CancelFunc
}

// NewTestSetup creates a new test setup with an in-memory database and a started store
func NewTestSetup(t *testing.T) *TestSetup {
	return newTestSetup(t, openMemoryDB(t), false)
}

// NewOptimisticTestSetup is NewTestSetup with version checked BOM writes
func NewOptimisticTestSetup(t *testing.T) *TestSetup {
	return newTestSetup(t, openMemoryDB(t), true)
}

// NewConcurrentTestSetup is NewTestSetup over a database file with several
// open connections, so that writers from different goroutines interleave
func NewConcurrentTestSetup(t *testing.T) *TestSetup {
	dsn := "file:" + filepath.Join(t.TempDir(), "partsdesk.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open database file")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	return newTestSetup(t, gdb, false)
}

func openMemoryDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create in-memory database")

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return gdb
}

func newTestSetup(t *testing.T, gdb *gorm.DB, optimistic bool) *TestSetup {
	require.NoError(t, db.Migrate(gdb), "Failed to run migrations")

	ctx, cancel := context.WithCancel(context.Background())
	store := docstore.New(gdb)
	store.Start(ctx)

	projectService := NewProjectService(store)
	bomService := NewBOMService(store, optimistic)
	timesheetService := NewTimesheetService(store, projectService)

	return &TestSetup{
		DB:               gdb,
		Store:            store,
		ProjectService:   projectService,
		BOMService:       bomService,
		TimesheetService: timesheetService,
		CostService:      NewCostService(store, projectService, bomService, timesheetService),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// CleanUp cleans up resources after test
func (ts *TestSetup) CleanUp() {
	ts.Store.Close()
	ts.cancel()
	sqlDB, err := ts.DB.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// SetClock fixes the time seen by the timesheet service
func (ts *TestSetup) SetClock(now time.Time) {
	ts.TimesheetService.now = func() time.Time { return now }
}

func (ts *TestSetup) createProject(t *testing.T, id string) *models.Project {
	project := &models.Project{
		ProjectID:   id,
		ProjectName: "Project " + id,
		ClientName:  "Acme",
		Deadline:    "2025-12-31",
	}
	require.NoError(t, ts.ProjectService.Create(ts.ctx, project))
	return project
}

// addPart adds a part to an existing or new category and fails the test on error
func (ts *TestSetup) addPart(t *testing.T, projectID, category, partID string) string {
	draft := NewPartDraft()
	draft.NewCategory = category
	draft.Name = "Part " + partID
	draft.PartID = partID
	draft.Quantity = 2
	item, err := ts.BOMService.AddPart(ts.ctx, projectID, &draft)
	require.NoError(t, err)
	return item.ID
}
