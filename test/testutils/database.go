package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDatabase opens an in-memory SQLite database for repository tests.
// The connection is private to the test and closed by the test runner when
// the process exits.
func SetupTestDatabase(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory database")

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...), "Failed to migrate test schema")
	}

	return db
}

// CountRecords counts rows in a table
func CountRecords(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
