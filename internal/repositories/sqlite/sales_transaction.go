package sqlite

import (
	"context"
	"database/sql"
	"time"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const salesTransactionColumns = `id, seller_name, store_name, item_name, item_alias, quantity, rate, bill_date, source, created_at`

// SalesTransactionRepository implements the SalesTransactionRepository interface for SQLite.
// Rows are never updated; they leave the table only through DeleteAll.
type SalesTransactionRepository struct {
	*BaseRepository[models.SalesTransaction]
}

// NewSalesTransactionRepository creates a new SQLite sales transaction repository
func NewSalesTransactionRepository(db *sql.DB, logger *logrus.Logger) repositories.SalesTransactionRepository {
	return &SalesTransactionRepository{
		BaseRepository: NewBaseRepository[models.SalesTransaction](db, "sales_transactions", "sales_transaction", logger),
	}
}

func scanSalesTransaction(row rowScanner) (*models.SalesTransaction, error) {
	t := &models.SalesTransaction{}
	err := row.Scan(&t.ID, &t.SellerName, &t.StoreName, &t.ItemName, &t.ItemAlias,
		&t.Quantity, &t.Rate, &t.BillDate, &t.Source, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create stores one transaction
func (r *SalesTransactionRepository) Create(ctx context.Context, t *models.SalesTransaction) error {
	if err := t.Validate(); err != nil {
		return repositories.ValidationError("sales_transaction", t.ID, err)
	}
	if t.Source == "" {
		t.Source = models.TransactionSourcePOS
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query := `INSERT INTO sales_transactions (` + salesTransactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.executeExec(ctx, "create", query,
		t.ID,
		t.SellerName,
		t.StoreName,
		t.ItemName,
		t.ItemAlias,
		t.Quantity,
		t.Rate,
		t.BillDate.UTC(),
		t.Source,
		t.CreatedAt.UTC(),
	)
	return err
}

// CreateBatch stores all transactions or none
func (r *SalesTransactionRepository) CreateBatch(ctx context.Context, transactions []*models.SalesTransaction) (int, error) {
	written := 0
	err := r.withinTx(ctx, func(ctx context.Context) error {
		for _, t := range transactions {
			if err := r.Create(ctx, t); err != nil {
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

// List returns transactions billed within [from, to] ordered by bill date
func (r *SalesTransactionRepository) List(ctx context.Context, from, to time.Time) ([]*models.SalesTransaction, error) {
	where, args := rangeClause("bill_date", from, to)
	query := `SELECT ` + salesTransactionColumns + ` FROM sales_transactions` + where + ` ORDER BY bill_date, id`
	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list", scanSalesTransaction)
}

// ListBySeller returns the transactions of one seller ordered by bill date
func (r *SalesTransactionRepository) ListBySeller(ctx context.Context, seller string) ([]*models.SalesTransaction, error) {
	query := `SELECT ` + salesTransactionColumns + ` FROM sales_transactions WHERE seller_name = ? ORDER BY bill_date, id`
	rows, err := r.executeQuery(ctx, "list_by_seller", query, seller)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list_by_seller", scanSalesTransaction)
}

// DeleteAll removes every transaction
func (r *SalesTransactionRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.deleteAll(ctx)
}
