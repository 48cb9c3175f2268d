package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ExpectedTables lists the tables the current schema version must contain
var ExpectedTables = []string{
	"stores",
	"employees",
	"monthly_targets",
	"daily_target_overrides",
	"daily_metrics",
	"sales_transactions",
	"user_profiles",
	"business_rules",
	"tasks",
}

// MigrationManager applies the embedded schema migrations to a SQLite database
type MigrationManager struct {
	db            *sql.DB
	backupEnabled bool
	logger        *logrus.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB, backupEnabled bool, logger *logrus.Logger) *MigrationManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &MigrationManager{
		db:            db,
		backupEnabled: backupEnabled,
		logger:        logger,
	}
}

// MigrationInfo describes the schema version of a database
type MigrationInfo struct {
	Version   uint      `json:"version"`
	Dirty     bool      `json:"dirty"`
	Applied   bool      `json:"applied"`
	Timestamp time.Time `json:"timestamp"`
}

// Up applies all pending migrations
func (m *MigrationManager) Up() error {
	m.logger.Info("Starting database migrations")
	m.backupBeforeChange()

	mg, release, err := m.open()
	if err != nil {
		return err
	}
	defer release()

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		m.logger.WithField("version", version).Warn("Database is dirty, forcing last known version")
		if err := mg.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, _ := mg.Version()
	m.logger.WithFields(logrus.Fields{
		"from_version": version,
		"to_version":   newVersion,
	}).Info("Migrations completed")
	return nil
}

// Down rolls back the most recent migration
func (m *MigrationManager) Down() error {
	m.backupBeforeChange()

	mg, release, err := m.open()
	if err != nil {
		return err
	}
	defer release()

	version, _, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("no migrations to roll back")
	}
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	if err := mg.Steps(-1); err != nil {
		return fmt.Errorf("failed to roll back migration %d: %w", version, err)
	}

	m.logger.WithField("from_version", version).Info("Rollback completed")
	return nil
}

// Status reports the current schema version
func (m *MigrationManager) Status() (*MigrationInfo, error) {
	mg, release, err := m.open()
	if err != nil {
		return nil, err
	}
	defer release()

	info := &MigrationInfo{Timestamp: time.Now()}
	version, dirty, err := mg.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return info, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read migration version: %w", err)
	}

	info.Version = version
	info.Dirty = dirty
	info.Applied = true
	return info, nil
}

// ValidateSchema checks that every expected table exists and foreign keys are enforced
func (m *MigrationManager) ValidateSchema() error {
	var missing []string
	for _, table := range ExpectedTables {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
		if err := m.db.QueryRow(query, table).Scan(&count); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if count == 0 {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}

	var fkEnabled int
	if err := m.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to check foreign key status: %w", err)
	}
	if fkEnabled != 1 {
		return fmt.Errorf("foreign keys are not enabled")
	}

	m.logger.Info("Schema validation passed")
	return nil
}

// Backup writes a consistent copy of the database to path
func (m *MigrationManager) Backup(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	m.logger.WithField("backup_path", path).Info("Database backup created")
	return nil
}

// open builds a migrate instance over the embedded files. The sqlite3 driver
// closes the shared *sql.DB on Close, so release only closes the source.
func (m *MigrationManager) open() (*migrate.Migrate, func(), error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return mg, func() { source.Close() }, nil
}

func (m *MigrationManager) backupBeforeChange() {
	if !m.backupEnabled {
		return
	}

	path, err := m.databaseFile()
	if err != nil {
		m.logger.WithError(err).Warn("Failed to locate database file for backup")
		return
	}
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return
	}

	backupPath := fmt.Sprintf("%s.backup_%s", path, time.Now().Format("20060102_150405"))
	if err := m.Backup(context.Background(), backupPath); err != nil {
		m.logger.WithError(err).Warn("Failed to create backup before migration")
	}
}

func (m *MigrationManager) databaseFile() (string, error) {
	rows, err := m.db.Query("PRAGMA database_list")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int
		var name, file string
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return "", err
		}
		if name == "main" {
			return file, nil
		}
	}
	return "", rows.Err()
}
