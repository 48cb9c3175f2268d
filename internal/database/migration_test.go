package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestConnectionManager_ConnectMigratesSchema(t *testing.T) {
	tempDir := t.TempDir()

	config := DefaultConnectionConfig()
	config.DatabasePath = filepath.Join(tempDir, "retail.db")
	config.BackupEnabled = false
	config.Logger = testLogger()

	cm := NewConnectionManager(config)
	if err := cm.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer cm.Close()

	if err := cm.Connect(); err == nil {
		t.Error("expected error connecting twice")
	}

	if err := cm.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	mm := cm.GetMigrationManager()
	if err := mm.ValidateSchema(); err != nil {
		t.Errorf("ValidateSchema() error = %v", err)
	}

	info, err := mm.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !info.Applied || info.Version != 2 || info.Dirty {
		t.Errorf("unexpected status %+v", info)
	}
}

func TestMigrationManager_UpIsIdempotentAndDownRollsBack(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "retail.db"), false, time.Second)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	mm := NewMigrationManager(db, false, testLogger())

	info, err := mm.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if info.Applied {
		t.Error("fresh database should have no applied migrations")
	}

	if err := mm.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if err := mm.Up(); err != nil {
		t.Fatalf("second Up() error = %v", err)
	}

	if err := mm.Down(); err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if err := mm.ValidateSchema(); err == nil {
		t.Error("expected missing tables after rollback")
	}

	info, err = mm.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if info.Version != 1 {
		t.Errorf("expected version 1 after one rollback, got %d", info.Version)
	}
}

func TestMigrationManager_Backup(t *testing.T) {
	tempDir := t.TempDir()
	db, err := Open(filepath.Join(tempDir, "retail.db"), false, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	mm := NewMigrationManager(db, false, testLogger())
	if err := mm.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	backup := filepath.Join(tempDir, "backups", "retail.db.bak")
	if err := mm.Backup(context.Background(), backup); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestDSN(t *testing.T) {
	got := DSN("/tmp/x.db", true, 5*time.Second)
	want := "/tmp/x.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got := DSN("x.db", false, 0); got != "x.db?_foreign_keys=on" {
		t.Errorf("DSN() = %q", got)
	}
}
