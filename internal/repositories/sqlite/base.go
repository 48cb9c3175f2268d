package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

func contextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// BaseRepository provides common functionality for all SQLite repositories
type BaseRepository[T any] struct {
	db     *sql.DB
	table  string
	entity string
	logger *logrus.Logger
}

// NewBaseRepository creates a new base repository
func NewBaseRepository[T any](db *sql.DB, table, entity string, logger *logrus.Logger) *BaseRepository[T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &BaseRepository[T]{
		db:     db,
		table:  table,
		entity: entity,
		logger: logger,
	}
}

// conn returns the transaction carried by ctx, or the pool
func (r *BaseRepository[T]) conn(ctx context.Context) DBTX {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Exists checks if an entity with the given ID exists
func (r *BaseRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ? LIMIT 1", r.table)

	var exists int
	err := r.conn(ctx).QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, repositories.NewRepositoryError("exists", r.entity, id, err)
	}

	return exists == 1, nil
}

// deleteByID removes one row and reports NotFound when nothing matched
func (r *BaseRepository[T]) deleteByID(ctx context.Context, id string) error {
	if err := r.validateID(id); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)
	result, err := r.executeExec(ctx, "delete", query, id)
	if err != nil {
		return err
	}
	return r.checkRowsAffected(result, "delete", id)
}

// deleteAll empties the table
func (r *BaseRepository[T]) deleteAll(ctx context.Context) (int64, error) {
	result, err := r.executeExec(ctx, "delete_all", fmt.Sprintf("DELETE FROM %s", r.table))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// withinTx runs fn in the transaction carried by ctx, or in a new one
func (r *BaseRepository[T]) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return repositories.TransactionError("begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(contextWithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.WithError(rbErr).Error("Failed to rollback transaction after error")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return repositories.TransactionError("commit", err)
	}
	return nil
}

// logQuery logs a query with its execution time
func (r *BaseRepository[T]) logQuery(operation string, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     r.table,
		"query":     strings.Join(strings.Fields(query), " "),
		"args":      len(args),
		"duration":  duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Query failed")
	} else {
		r.logger.WithFields(fields).Debug("Query executed")
	}
}

// executeQuery executes a query and logs the result
func (r *BaseRepository[T]) executeQuery(ctx context.Context, operation, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	r.logQuery(operation, query, args, time.Since(start), err)

	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.entity, "", err)
	}
	return rows, nil
}

// executeQueryRow executes a single-row query and logs the result
func (r *BaseRepository[T]) executeQueryRow(ctx context.Context, operation, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := r.conn(ctx).QueryRowContext(ctx, query, args...)
	r.logQuery(operation, query, args, time.Since(start), nil)
	return row
}

// executeExec executes a non-query statement and logs the result
func (r *BaseRepository[T]) executeExec(ctx context.Context, operation, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	r.logQuery(operation, query, args, time.Since(start), err)

	if err != nil {
		return nil, r.writeError(operation, err)
	}
	return result, nil
}

// writeError maps SQLite constraint failures to typed repository errors
func (r *BaseRepository[T]) writeError(operation string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		field := "id"
		if i := strings.LastIndex(msg, "."); i >= 0 {
			field = msg[i+1:]
		}
		return repositories.DuplicateError(r.entity, field, "")
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return repositories.ConstraintError(r.entity, "foreign key", err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return repositories.ConstraintError(r.entity, "check", err)
	}
	return repositories.NewRepositoryError(operation, r.entity, "", err)
}

// getOne scans a single row and maps sql.ErrNoRows to NotFound
func (r *BaseRepository[T]) getOne(row *sql.Row, key string, scan func(rowScanner) (*T, error)) (*T, error) {
	entity, err := scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError(r.entity, key)
		}
		return nil, repositories.NewRepositoryError("get", r.entity, key, err)
	}
	return entity, nil
}

// collect scans every row of a result set
func (r *BaseRepository[T]) collect(rows *sql.Rows, operation string, scan func(rowScanner) (*T, error)) ([]*T, error) {
	defer rows.Close()

	var list []*T
	for rows.Next() {
		entity, err := scan(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, r.entity, "", err)
		}
		list = append(list, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, r.entity, "", err)
	}
	return list, nil
}

// checkRowsAffected checks if the expected number of rows were affected
func (r *BaseRepository[T]) checkRowsAffected(result sql.Result, operation, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError(operation, r.entity, id, err)
	}
	if rowsAffected == 0 {
		return repositories.NotFoundError(r.entity, id)
	}
	return nil
}

// validateID validates that an ID is not empty
func (r *BaseRepository[T]) validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return repositories.NewRepositoryError("validate", r.entity, id, repositories.ErrInvalidID)
	}
	return nil
}

// rangeClause builds a WHERE clause bounding column to [from, to]; zero bounds are open
func rangeClause(column string, from, to time.Time) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if !from.IsZero() {
		conditions = append(conditions, column+" >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conditions = append(conditions, column+" <= ?")
		args = append(args, to.UTC())
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
