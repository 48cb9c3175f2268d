package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/database"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/retail.db", "Database file path")
		action  = flag.String("action", "up", "Migration action: up, down, status, validate, backup")
		out     = flag.String("out", "", "Backup file path for the backup action")
		backup  = flag.Bool("backup", true, "Back up the database file before up or down")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	logger.WithFields(logrus.Fields{
		"db_path": absDBPath,
		"action":  *action,
	}).Info("Starting migration tool")

	cm := database.NewConnectionManager(&database.ConnectionConfig{
		DatabasePath:    absDBPath,
		WALMode:         true,
		BusyTimeout:     5 * time.Second,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		BackupEnabled:   *backup,
		Logger:          logger,
	})
	if err := cm.Connect(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer cm.Close()

	if err := run(cm.GetMigrationManager(), *action, *out); err != nil {
		logger.WithError(err).Fatalf("Migration %s failed", *action)
	}
	logger.Info("Migration tool completed successfully")
}

func run(m *database.MigrationManager, action, out string) error {
	switch action {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "status":
		status, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("Migration Status:\n")
		fmt.Printf("  Version: %d\n", status.Version)
		fmt.Printf("  Applied: %t\n", status.Applied)
		fmt.Printf("  Dirty: %t\n", status.Dirty)
		return nil
	case "validate":
		if err := m.ValidateSchema(); err != nil {
			return err
		}
		fmt.Println("Schema validation passed successfully")
		return nil
	case "backup":
		if out == "" {
			out = fmt.Sprintf("./data/backup-%s.db", time.Now().Format("20060102-150405"))
		}
		if err := m.Backup(context.Background(), out); err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", out)
		return nil
	}
	return fmt.Errorf("unknown action %q (use: up, down, status, validate, backup)", action)
}
