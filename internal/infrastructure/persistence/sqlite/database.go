// Package sqlite provides SQLite database setup for the case base.
package sqlite

import (
	"fmt"

	gormModels "github.com/convivio/convivio/internal/infrastructure/persistence/gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase opens (or creates) the SQLite database and migrates the case
// schema. An empty path selects an in-memory database.
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&gormModels.CaseModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
