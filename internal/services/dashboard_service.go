package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/analytics"
	"retail-cockpit-api/internal/charts"
	"retail-cockpit-api/internal/export"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/recordstore"
)

// SnapshotFeed delivers dataset snapshots to a subscriber
type SnapshotFeed interface {
	Subscribe(fn func(recordstore.Snapshot)) func()
}

// DashboardOptions tunes the dashboard aggregations
type DashboardOptions struct {
	TrendDays     int
	TopProducts   int
	TopPerformers int
	Now           func() time.Time
}

// dashboardService implements the DashboardService interface
type dashboardService struct {
	mu       sync.RWMutex
	snapshot recordstore.Snapshot
	received bool

	opts   DashboardOptions
	logger *logrus.Logger
}

// NewDashboardService subscribes to feed and returns the service together
// with the function that ends the subscription
func NewDashboardService(feed SnapshotFeed, opts DashboardOptions, logger *logrus.Logger) (DashboardService, func()) {
	if opts.TrendDays <= 0 {
		opts.TrendDays = models.TrendWindowDays
	}
	if opts.TopProducts <= 0 {
		opts.TopProducts = models.DefaultTopProducts
	}
	if opts.TopPerformers <= 0 {
		opts.TopPerformers = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}

	s := &dashboardService{opts: opts, logger: logger}
	if feed == nil {
		return s, func() {}
	}
	return s, feed.Subscribe(s.receive)
}

// receive replaces the held snapshot; the latest delivery wins
func (s *dashboardService) receive(snap recordstore.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.received = true
	s.mu.Unlock()

	if !snap.Available() {
		s.logger.WithError(snap.Err).WithField("version", snap.Version).Warn("Dashboard data unavailable")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"version":      snap.Version,
		"employees":    len(snap.Dataset.Employees),
		"metrics":      len(snap.Dataset.DailyMetrics),
		"transactions": len(snap.Dataset.Transactions),
	}).Debug("Dashboard snapshot received")
}

func (s *dashboardService) current() (recordstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.received {
		return recordstore.Snapshot{}, fmt.Errorf("%w: no data loaded yet", ErrDataUnavailable)
	}
	if !s.snapshot.Available() {
		return recordstore.Snapshot{}, fmt.Errorf("%w: %v", ErrDataUnavailable, s.snapshot.Err)
	}
	return s.snapshot, nil
}

// prepare checks the request and returns the dataset to aggregate
func (s *dashboardService) prepare(ctx context.Context, f analytics.DateFilter) (recordstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return recordstore.Snapshot{}, err
	}
	if err := f.Validate(); err != nil {
		return recordstore.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.current()
}

// Summary builds the main dashboard view
func (s *dashboardService) Summary(ctx context.Context, q DashboardQuery) (*DashboardSummary, error) {
	snap, err := s.prepare(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	d := snap.Dataset

	employees := analytics.ComputeEmployeeSummaries(d, q.Filter, q.Scope)
	stores := analytics.ComputeStoreSummaries(d, q.Filter, q.Scope)

	below := 0
	for _, e := range employees {
		if e.EffectiveTarget > 0 && e.Achievement < models.AchievementWarningPercent {
			below++
		}
	}

	return &DashboardSummary{
		Filter:         q.Filter,
		Scope:          q.Scope,
		KPIs:           analytics.ComputeKPIs(d, q.Filter, q.Scope),
		Comparison:     analytics.ComparePeriods(d, q.Filter, q.Scope),
		Employees:      employees,
		Stores:         stores,
		TopPerformers:  analytics.TopByAchievement(employees, s.opts.TopPerformers),
		Series:         analytics.SalesSeries(d, q.Filter, q.Scope),
		DataVersion:    snap.Version,
		DataLoadedAt:   d.LoadedAt,
		EmployeeCount:  len(employees),
		StoreCount:     len(stores),
		BelowThreshold: below,
	}, nil
}

// EmployeeDetail builds the drill-down of one employee
func (s *dashboardService) EmployeeDetail(ctx context.Context, employeeID string, f analytics.DateFilter, category string) (*analytics.EmployeeDetail, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, invalid("employee ID cannot be empty")
	}
	snap, err := s.prepare(ctx, f)
	if err != nil {
		return nil, err
	}

	detail, ok := analytics.ComputeEmployeeDetail(snap.Dataset, employeeID, f, analytics.DetailOptions{
		Now:           s.opts.Now(),
		TrendDays:     s.opts.TrendDays,
		TopN:          s.opts.TopProducts,
		FocusCategory: category,
	})
	if !ok {
		return nil, fmt.Errorf("employee %s %w", employeeID, ErrNotFound)
	}
	return detail, nil
}

// Categories returns the category breakdown of the filtered window
func (s *dashboardService) Categories(ctx context.Context, q DashboardQuery, seller string) ([]analytics.CategorySales, error) {
	snap, err := s.prepare(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryBreakdown(snap.Dataset, q.Filter, q.Scope, strings.TrimSpace(seller)), nil
}

// Compare returns deltas against the preceding period
func (s *dashboardService) Compare(ctx context.Context, q DashboardQuery) (*analytics.KPIComparison, error) {
	snap, err := s.prepare(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	cmp := analytics.ComparePeriods(snap.Dataset, q.Filter, q.Scope)
	return &cmp, nil
}

// Chart renders one dashboard chart as SVG
func (s *dashboardService) Chart(ctx context.Context, kind ChartKind, q DashboardQuery, employee string) (string, error) {
	snap, err := s.prepare(ctx, q.Filter)
	if err != nil {
		return "", err
	}
	d := snap.Dataset

	switch kind {
	case ChartSalesByStore:
		stores := analytics.ComputeStoreSummaries(d, q.Filter, q.Scope)
		data := make([]charts.Datum, 0, len(stores))
		for _, st := range stores {
			data = append(data, charts.Datum{Name: st.Name, Value: st.TotalSales})
		}
		return charts.Bar(data, nil), nil

	case ChartCategories:
		cats := analytics.CategoryBreakdown(d, q.Filter, q.Scope, "")
		data := make([]charts.Datum, 0, len(cats))
		for _, c := range cats {
			data = append(data, charts.Datum{Name: c.Category, Value: c.TotalSales})
		}
		return charts.Pie(data), nil

	case ChartDailySales:
		return charts.LineFromSeries(analytics.SalesSeries(d, q.Filter, q.Scope)), nil

	case ChartATVTrend:
		emp := findEmployee(d, employee)
		if emp == nil {
			return "", fmt.Errorf("employee %q %w", employee, ErrNotFound)
		}
		trend := analytics.TrailingTrend(d.DailyMetrics, d.Transactions, emp.Name, s.opts.Now(), s.opts.TrendDays)
		return charts.Sparkline(trend.ATV), nil

	default:
		return "", invalid("unknown chart %q", kind)
	}
}

// Report aggregates the content of an export workbook
func (s *dashboardService) Report(ctx context.Context, q DashboardQuery) (*export.Report, error) {
	snap, err := s.prepare(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	return export.BuildReport(snap.Dataset, q.Filter, q.Scope, s.opts.TopProducts*2, s.opts.Now()), nil
}

// Status reports the state of the held snapshot
func (s *dashboardService) Status() DataStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := DataStatus{Version: s.snapshot.Version}
	switch {
	case !s.received:
		status.Error = "no data loaded yet"
	case !s.snapshot.Available():
		status.Error = s.snapshot.Err.Error()
	default:
		d := s.snapshot.Dataset
		status.Available = true
		status.LoadedAt = d.LoadedAt
		status.Employees = len(d.Employees)
		status.Metrics = len(d.DailyMetrics)
		status.Transactions = len(d.Transactions)
	}
	return status
}

// findEmployee matches by ID first, then by case-insensitive name
func findEmployee(d *models.RawDataset, key string) *models.Employee {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if emp := d.FindEmployee(key); emp != nil {
		return emp
	}
	for _, e := range d.Employees {
		if e != nil && strings.EqualFold(e.Name, key) {
			return e
		}
	}
	return nil
}
