package repositories

import (
	"context"
	"time"

	"retail-cockpit-api/internal/models"
)

// BaseRepository defines common CRUD operations for mutable records
type BaseRepository[T any] interface {
	// Create creates a new entity
	Create(ctx context.Context, entity *T) error

	// GetByID retrieves an entity by its ID
	GetByID(ctx context.Context, id string) (*T, error)

	// Update updates an existing entity
	Update(ctx context.Context, entity *T) error

	// Delete deletes an entity by its ID
	Delete(ctx context.Context, id string) error

	// Exists checks if an entity with the given ID exists
	Exists(ctx context.Context, id string) (bool, error)
}

// EmployeeRepository stores employees together with their monthly targets.
// Employees returned by the repository always carry their full Targets map.
type EmployeeRepository interface {
	BaseRepository[models.Employee]

	// List returns employees matching the store, status and paging filters, ordered by name
	List(ctx context.Context, filters models.SearchFilters) ([]*models.Employee, error)

	// Count returns the number of employees matching the filters, ignoring paging
	Count(ctx context.Context, filters models.SearchFilters) (int, error)

	// Search performs a case-insensitive substring match on the name
	Search(ctx context.Context, query string, limit int) ([]*models.Employee, error)

	// GetByName retrieves an employee by exact, case-insensitive name
	GetByName(ctx context.Context, name string) (*models.Employee, error)

	// ListByStore retrieves the employees assigned to a store
	ListByStore(ctx context.Context, store string) ([]*models.Employee, error)

	// SaveTarget inserts or replaces a monthly target and its per-day overrides
	SaveTarget(ctx context.Context, target *models.MonthlyTarget) error

	// ListTargets returns every monthly target of an employee
	ListTargets(ctx context.Context, employeeID string) (models.Targets, error)

	// DeleteTarget removes the target of one month
	DeleteTarget(ctx context.Context, employeeID string, year, month int) error
}

// StoreRepository stores retail outlets
type StoreRepository interface {
	BaseRepository[models.Store]

	// List returns every store ordered by name
	List(ctx context.Context) ([]*models.Store, error)

	// GetByName retrieves a store by exact name
	GetByName(ctx context.Context, name string) (*models.Store, error)
}

// DailyMetricRepository stores aggregated daily activity per employee
type DailyMetricRepository interface {
	// Create stores one metric
	Create(ctx context.Context, metric *models.DailyMetric) error

	// CreateBatch stores metrics atomically and returns the number written
	CreateBatch(ctx context.Context, metrics []*models.DailyMetric) (int, error)

	// List returns metrics dated within [from, to]; a zero bound is open
	List(ctx context.Context, from, to time.Time) ([]*models.DailyMetric, error)

	// ListByEmployee returns the metrics of one employee ordered by date
	ListByEmployee(ctx context.Context, employee string) ([]*models.DailyMetric, error)

	// DeleteAll removes every metric and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// SalesTransactionRepository stores immutable point-of-sale line items
type SalesTransactionRepository interface {
	// Create stores one transaction
	Create(ctx context.Context, transaction *models.SalesTransaction) error

	// CreateBatch stores transactions atomically and returns the number written
	CreateBatch(ctx context.Context, transactions []*models.SalesTransaction) (int, error)

	// List returns transactions billed within [from, to]; a zero bound is open
	List(ctx context.Context, from, to time.Time) ([]*models.SalesTransaction, error)

	// ListBySeller returns the transactions of one seller ordered by bill date
	ListBySeller(ctx context.Context, seller string) ([]*models.SalesTransaction, error)

	// DeleteAll removes every transaction and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// UserProfileRepository stores application users
type UserProfileRepository interface {
	BaseRepository[models.UserProfile]

	// GetByUID retrieves a profile by external identity id
	GetByUID(ctx context.Context, uid string) (*models.UserProfile, error)

	// GetByEmail retrieves a profile by email address
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	// List returns every profile ordered by name
	List(ctx context.Context) ([]*models.UserProfile, error)

	// ListByStatus returns the profiles in one status ordered by name
	ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.UserProfile, error)
}

// BusinessRuleRepository stores free-text coaching rules
type BusinessRuleRepository interface {
	Create(ctx context.Context, rule *models.BusinessRule) error
	List(ctx context.Context) ([]*models.BusinessRule, error)
	Delete(ctx context.Context, id string) error
}

// TaskRepository stores tasks sent to employees
type TaskRepository interface {
	BaseRepository[models.Task]

	// ListByEmployee returns an employee's tasks, newest first; an empty status selects all
	ListByEmployee(ctx context.Context, employeeID string, status models.TaskStatus) ([]*models.Task, error)
}
