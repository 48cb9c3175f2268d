// Package recordstore loads complete datasets from the backing stores and
// delivers them to subscribers as snapshots.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

// ErrUnavailable marks a snapshot that could not be loaded
var ErrUnavailable = errors.New("data unavailable")

// Source loads a full dataset
type Source interface {
	Load(ctx context.Context) (*models.RawDataset, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (*models.RawDataset, error)

func (f SourceFunc) Load(ctx context.Context) (*models.RawDataset, error) {
	return f(ctx)
}

// SQLiteSource reads the dataset through the repository layer
type SQLiteSource struct {
	repos repositories.Repositories
	// Transactions are skipped when false, for deployments whose POS feed lives elsewhere
	withTransactions bool
}

// NewSQLiteSource creates a source over the given repositories
func NewSQLiteSource(repos repositories.Repositories, withTransactions bool) *SQLiteSource {
	return &SQLiteSource{repos: repos, withTransactions: withTransactions}
}

// Load reads employees with targets, stores, metrics and (optionally) transactions
func (s *SQLiteSource) Load(ctx context.Context) (*models.RawDataset, error) {
	employees, err := s.repos.Employees().List(ctx, models.SearchFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	stores, err := s.repos.Stores().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}
	metrics, err := s.repos.DailyMetrics().List(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load daily metrics: %w", err)
	}

	dataset := &models.RawDataset{
		Employees:    employees,
		Stores:       stores,
		DailyMetrics: metrics,
		Transactions: []*models.SalesTransaction{},
		LoadedAt:     time.Now().UTC(),
	}

	if s.withTransactions {
		txs, err := s.repos.SalesTransactions().List(ctx, time.Time{}, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}
		dataset.Transactions = txs
	}
	return dataset, nil
}

// MultiSource concatenates the datasets of several sources. Any failing
// source fails the whole load so subscribers never see a partial dataset.
type MultiSource []Source

func (m MultiSource) Load(ctx context.Context) (*models.RawDataset, error) {
	merged := &models.RawDataset{
		Employees:    []*models.Employee{},
		Stores:       []*models.Store{},
		DailyMetrics: []*models.DailyMetric{},
		Transactions: []*models.SalesTransaction{},
		LoadedAt:     time.Now().UTC(),
	}

	for i, src := range m {
		d, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		if d == nil {
			continue
		}
		merged.Employees = append(merged.Employees, d.Employees...)
		merged.Stores = append(merged.Stores, d.Stores...)
		merged.DailyMetrics = append(merged.DailyMetrics, d.DailyMetrics...)
		merged.Transactions = append(merged.Transactions, d.Transactions...)
	}
	return merged, nil
}
