package test

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/partsdesk/partsdesk/internal/db"
)

// NewInMemoryDB opens a migrated SQLite database that lives as long as its
// single connection
func NewInMemoryDB() (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return gdb, nil
}

// SetupTestDB gives the suite a fresh database and a started document store
func SetupTestDB(suite *Suite) {
	gdb, err := NewInMemoryDB()
	suite.Require().NoError(err, "Failed to set up test database")
	suite.DB = gdb
	suite.Store = newStore(suite, gdb)
}
