package repositories

import (
	"context"
)

// Transaction represents a database transaction shared by every repository
// called with its Context
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context that routes repository calls through the transaction
	Context() context.Context
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// BeginTransaction starts a new transaction
	BeginTransaction(ctx context.Context) (Transaction, error)

	// WithTransaction runs fn inside a transaction, committing on success and
	// rolling back on error or panic
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories provides access to every record repository
type Repositories interface {
	Employees() EmployeeRepository
	Stores() StoreRepository
	DailyMetrics() DailyMetricRepository
	SalesTransactions() SalesTransactionRepository
	UserProfiles() UserProfileRepository
	BusinessRules() BusinessRuleRepository
	Tasks() TaskRepository
}

// RepositoryManager provides access to all repositories and transaction management
type RepositoryManager interface {
	TransactionManager
	Repositories

	// Close closes the underlying database
	Close() error

	// Health checks the database connection
	Health(ctx context.Context) error
}
