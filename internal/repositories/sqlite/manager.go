package sqlite

import (
	"context"
	"database/sql"

	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// SQLiteRepositoryManager implements the RepositoryManager interface for SQLite
type SQLiteRepositoryManager struct {
	*SQLiteTransactionManager

	db                   *sql.DB
	employeeRepo         repositories.EmployeeRepository
	storeRepo            repositories.StoreRepository
	dailyMetricRepo      repositories.DailyMetricRepository
	salesTransactionRepo repositories.SalesTransactionRepository
	userProfileRepo      repositories.UserProfileRepository
	businessRuleRepo     repositories.BusinessRuleRepository
	taskRepo             repositories.TaskRepository
}

// NewSQLiteRepositoryManager creates a repository manager over an open, migrated database
func NewSQLiteRepositoryManager(db *sql.DB, logger *logrus.Logger) *SQLiteRepositoryManager {
	if logger == nil {
		logger = logrus.New()
	}

	return &SQLiteRepositoryManager{
		SQLiteTransactionManager: NewSQLiteTransactionManager(db, logger),
		db:                       db,
		employeeRepo:             NewEmployeeRepository(db, logger),
		storeRepo:                NewStoreRepository(db, logger),
		dailyMetricRepo:          NewDailyMetricRepository(db, logger),
		salesTransactionRepo:     NewSalesTransactionRepository(db, logger),
		userProfileRepo:          NewUserProfileRepository(db, logger),
		businessRuleRepo:         NewBusinessRuleRepository(db, logger),
		taskRepo:                 NewTaskRepository(db, logger),
	}
}

func (m *SQLiteRepositoryManager) Employees() repositories.EmployeeRepository {
	return m.employeeRepo
}

func (m *SQLiteRepositoryManager) Stores() repositories.StoreRepository {
	return m.storeRepo
}

func (m *SQLiteRepositoryManager) DailyMetrics() repositories.DailyMetricRepository {
	return m.dailyMetricRepo
}

func (m *SQLiteRepositoryManager) SalesTransactions() repositories.SalesTransactionRepository {
	return m.salesTransactionRepo
}

func (m *SQLiteRepositoryManager) UserProfiles() repositories.UserProfileRepository {
	return m.userProfileRepo
}

func (m *SQLiteRepositoryManager) BusinessRules() repositories.BusinessRuleRepository {
	return m.businessRuleRepo
}

func (m *SQLiteRepositoryManager) Tasks() repositories.TaskRepository {
	return m.taskRepo
}

// Close closes the underlying database
func (m *SQLiteRepositoryManager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Health pings the database and runs a trivial query
func (m *SQLiteRepositoryManager) Health(ctx context.Context) error {
	if m.db == nil {
		return repositories.ConnectionError(repositories.ErrConnection)
	}
	if err := m.db.PingContext(ctx); err != nil {
		return repositories.ConnectionError(err)
	}

	var result int
	if err := m.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return repositories.ConnectionError(err)
	}
	return nil
}

var _ repositories.RepositoryManager = (*SQLiteRepositoryManager)(nil)
