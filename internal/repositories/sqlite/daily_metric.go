package sqlite

import (
	"context"
	"database/sql"
	"time"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const dailyMetricColumns = `id, employee, store, date, total_sales, transaction_count, footfall, created_at`

// DailyMetricRepository implements the DailyMetricRepository interface for SQLite
type DailyMetricRepository struct {
	*BaseRepository[models.DailyMetric]
}

// NewDailyMetricRepository creates a new SQLite daily metric repository
func NewDailyMetricRepository(db *sql.DB, logger *logrus.Logger) repositories.DailyMetricRepository {
	return &DailyMetricRepository{
		BaseRepository: NewBaseRepository[models.DailyMetric](db, "daily_metrics", "daily_metric", logger),
	}
}

func scanDailyMetric(row rowScanner) (*models.DailyMetric, error) {
	m := &models.DailyMetric{}
	var footfall sql.NullInt64
	err := row.Scan(&m.ID, &m.Employee, &m.Store, &m.Date, &m.TotalSales, &m.TransactionCount, &footfall, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if footfall.Valid {
		v := int(footfall.Int64)
		m.Footfall = &v
	}
	return m, nil
}

// Create stores one metric. Duplicates for the same employee and day are kept
// as separate rows and summed by the aggregator.
func (r *DailyMetricRepository) Create(ctx context.Context, metric *models.DailyMetric) error {
	if err := metric.Validate(); err != nil {
		return repositories.ValidationError("daily_metric", metric.ID, err)
	}

	var footfall sql.NullInt64
	if metric.Footfall != nil {
		footfall = sql.NullInt64{Int64: int64(*metric.Footfall), Valid: true}
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now()
	}

	query := `INSERT INTO daily_metrics (` + dailyMetricColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.executeExec(ctx, "create", query,
		metric.ID,
		metric.Employee,
		metric.Store,
		metric.Date.UTC(),
		metric.TotalSales,
		metric.TransactionCount,
		footfall,
		metric.CreatedAt.UTC(),
	)
	return err
}

// CreateBatch stores all metrics or none
func (r *DailyMetricRepository) CreateBatch(ctx context.Context, metrics []*models.DailyMetric) (int, error) {
	written := 0
	err := r.withinTx(ctx, func(ctx context.Context) error {
		for _, m := range metrics {
			if err := r.Create(ctx, m); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// List returns metrics dated within [from, to] ordered by date
func (r *DailyMetricRepository) List(ctx context.Context, from, to time.Time) ([]*models.DailyMetric, error) {
	where, args := rangeClause("date", from, to)
	query := `SELECT ` + dailyMetricColumns + ` FROM daily_metrics` + where + ` ORDER BY date, employee`
	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list", scanDailyMetric)
}

// ListByEmployee returns the metrics of one employee ordered by date
func (r *DailyMetricRepository) ListByEmployee(ctx context.Context, employee string) ([]*models.DailyMetric, error) {
	query := `SELECT ` + dailyMetricColumns + ` FROM daily_metrics WHERE employee = ? ORDER BY date`
	rows, err := r.executeQuery(ctx, "list_by_employee", query, employee)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list_by_employee", scanDailyMetric)
}

// DeleteAll removes every metric
func (r *DailyMetricRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.deleteAll(ctx)
}
