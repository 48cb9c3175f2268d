package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/database"
	"retail-cockpit-api/internal/importer"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories/sqlite"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/retail.db", "Database file path")
		kind    = flag.String("kind", "metrics", "Import kind: metrics, transactions")
		file    = flag.String("file", "", "CSV or JSON file to import")
		format  = flag.String("format", "", "File format: csv, json (default from the file extension)")
		source  = flag.String("source", string(models.TransactionSourceImport), "Source recorded on transactions without a source column")
		dryRun  = flag.Bool("dry-run", false, "Validate rows without writing")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *file == "" {
		logger.Fatal("-file is required")
	}
	k, err := importer.ParseKind(*kind)
	if err != nil {
		logger.WithError(err).Fatal("Invalid kind")
	}
	opts := importer.Options{
		Format: importer.FormatFromPath(*file),
		DryRun: *dryRun,
		Source: models.TransactionSource(*source),
	}
	if *format != "" {
		if opts.Format, err = importer.ParseFormat(*format); err != nil {
			logger.WithError(err).Fatal("Invalid format")
		}
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	logger.WithFields(logrus.Fields{
		"db_path": absDBPath,
		"file":    *file,
		"kind":    k,
		"format":  opts.Format,
		"dry_run": opts.DryRun,
	}).Info("Starting import")

	cm := database.NewConnectionManager(&database.ConnectionConfig{
		DatabasePath:    absDBPath,
		WALMode:         true,
		BusyTimeout:     5 * time.Second,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
		Logger:          logger,
	})
	if err := cm.Connect(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer cm.Close()

	f, err := os.Open(*file)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open import file")
	}
	defer f.Close()

	repos := sqlite.NewSQLiteRepositoryManager(cm.GetDB(), logger)
	result, err := importer.NewImporter(repos, logger).Import(context.Background(), k, f, opts)
	if err != nil {
		logger.WithError(err).Fatal("Import failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.WithError(err).Fatal("Failed to write result")
	}
}
