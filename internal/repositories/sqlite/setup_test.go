package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"retail-cockpit-api/internal/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// setupTestDB opens a migrated database in a temporary directory
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), false, time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrationManager(db, false, testLogger()).Up(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
