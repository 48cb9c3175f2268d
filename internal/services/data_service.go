package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/export"
	"retail-cockpit-api/internal/importer"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

// dataService implements the DataService interface
type dataService struct {
	repos     repositories.RepositoryManager
	importer  *importer.Importer
	exporter  *export.Exporter
	dashboard DashboardService
	refresher Refresher
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewDataService creates a new data service instance
func NewDataService(repos repositories.RepositoryManager, exporter *export.Exporter, dashboard DashboardService, refresher Refresher, logger *logrus.Logger) DataService {
	logger = orDefault(logger)
	return &dataService{
		repos:     repos,
		importer:  importer.NewImporter(repos, logger),
		exporter:  exporter,
		dashboard: dashboard,
		refresher: refresher,
		validator: validator.New(),
		logger:    logger,
	}
}

// Import loads a CSV or JSON file of metrics or transactions
func (s *dataService) Import(ctx context.Context, kind importer.Kind, r io.Reader, opts importer.Options) (*importer.Result, error) {
	result, err := s.importer.Import(ctx, kind, r, opts)
	if err != nil {
		var repoErr *repositories.RepositoryError
		if errors.As(err, &repoErr) {
			return nil, fmt.Errorf("failed to import %s: %w", kind, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !opts.DryRun && result.Imported > 0 {
		refresh(ctx, s.refresher, s.logger)
	}
	return result, nil
}

// RecordMetric stores one manually entered daily metric for a known employee
func (s *dataService) RecordMetric(ctx context.Context, req *RecordMetricRequest) (*models.DailyMetric, error) {
	if req == nil {
		return nil, invalid("record metric request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	date, err := importer.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	employee, err := s.repos.Employees().GetByName(ctx, req.Employee)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee %q: %w", req.Employee, err)
	}

	store := req.Store
	if store == "" {
		store = employee.Store
	}

	metric := models.NewDailyMetric(employee.Name, store, date, req.TotalSales, req.Transactions)
	metric.Footfall = req.Footfall
	if err := metric.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repos.DailyMetrics().Create(ctx, metric); err != nil {
		return nil, fmt.Errorf("failed to record metric: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"employee": metric.Employee,
		"date":     metric.Date.Format("2006-01-02"),
		"sales":    metric.TotalSales,
	}).Info("Daily metric recorded")

	refresh(ctx, s.refresher, s.logger)
	return metric, nil
}

// ResetData deletes every daily metric and transaction in one transaction
func (s *dataService) ResetData(ctx context.Context) (*ResetResult, error) {
	result := &ResetResult{}
	err := s.repos.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if result.MetricsDeleted, err = s.repos.DailyMetrics().DeleteAll(ctx); err != nil {
			return err
		}
		result.TransactionsDeleted, err = s.repos.SalesTransactions().DeleteAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset data: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"metrics":      result.MetricsDeleted,
		"transactions": result.TransactionsDeleted,
	}).Warn("Sales data reset")

	refresh(ctx, s.refresher, s.logger)
	return result, nil
}

// Export renders the dashboard view as a workbook and archives it
func (s *dataService) Export(ctx context.Context, q DashboardQuery) (*export.Archive, []byte, error) {
	if s.exporter == nil {
		return nil, nil, fmt.Errorf("export storage is not configured")
	}
	report, err := s.dashboard.Report(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	return s.exporter.Export(ctx, report)
}

// ListExports returns archived workbooks in descending key order
func (s *dataService) ListExports(ctx context.Context, limit int) ([]export.Archive, error) {
	if s.exporter == nil {
		return []export.Archive{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.exporter.ListArchives(ctx, limit)
}

// DownloadExport returns the bytes of an archived workbook
func (s *dataService) DownloadExport(ctx context.Context, key string) ([]byte, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}
	return s.exporter.Retrieve(ctx, key)
}
