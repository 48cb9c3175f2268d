package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const employeeColumns = `id, name, store, status, created_at, updated_at`

// EmployeeRepository implements the EmployeeRepository interface for SQLite
type EmployeeRepository struct {
	*BaseRepository[models.Employee]
}

// NewEmployeeRepository creates a new SQLite employee repository
func NewEmployeeRepository(db *sql.DB, logger *logrus.Logger) repositories.EmployeeRepository {
	return &EmployeeRepository{
		BaseRepository: NewBaseRepository[models.Employee](db, "employees", "employee", logger),
	}
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	e := &models.Employee{Targets: make(models.Targets)}
	err := row.Scan(&e.ID, &e.Name, &e.Store, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create stores a new employee and any targets it already carries
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if err := employee.Validate(); err != nil {
		return repositories.ValidationError("employee", employee.ID, err)
	}

	return r.withinTx(ctx, func(ctx context.Context) error {
		query := `INSERT INTO employees (` + employeeColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
		if _, err := r.executeExec(ctx, "create", query,
			employee.ID,
			employee.Name,
			employee.Store,
			employee.Status,
			employee.CreatedAt.UTC(),
			employee.UpdatedAt.UTC(),
		); err != nil {
			return err
		}

		for _, target := range employee.Targets.List() {
			target.EmployeeID = employee.ID
			if err := r.saveTarget(ctx, target); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves an employee with its targets
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`
	employee, err := r.getOne(r.executeQueryRow(ctx, "get_by_id", query, id), id, scanEmployee)
	if err != nil {
		return nil, err
	}
	return employee, r.attachTargets(ctx, employee)
}

// GetByName retrieves an employee by exact, case-insensitive name
func (r *EmployeeRepository) GetByName(ctx context.Context, name string) (*models.Employee, error) {
	name = strings.TrimSpace(name)
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE name = ? COLLATE NOCASE ORDER BY status, created_at LIMIT 1`
	employee, err := r.getOne(r.executeQueryRow(ctx, "get_by_name", query, name), name, scanEmployee)
	if err != nil {
		return nil, err
	}
	return employee, r.attachTargets(ctx, employee)
}

// Update updates the employee record; targets are saved through SaveTarget
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	if err := employee.Validate(); err != nil {
		return repositories.ValidationError("employee", employee.ID, err)
	}

	employee.UpdatedAt = time.Now()
	query := `UPDATE employees SET name = ?, store = ?, status = ?, updated_at = ? WHERE id = ?`
	result, err := r.executeExec(ctx, "update", query,
		employee.Name,
		employee.Store,
		employee.Status,
		employee.UpdatedAt.UTC(),
		employee.ID,
	)
	if err != nil {
		return err
	}
	return r.checkRowsAffected(result, "update", employee.ID)
}

// Delete deletes an employee; targets and tasks cascade
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}

// List returns employees matching the filters ordered by name
func (r *EmployeeRepository) List(ctx context.Context, filters models.SearchFilters) ([]*models.Employee, error) {
	where, args := employeeWhere(filters)
	query := `SELECT ` + employeeColumns + ` FROM employees` + where + ` ORDER BY name COLLATE NOCASE, id`
	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	employees, err := r.collect(rows, "list", scanEmployee)
	if err != nil {
		return nil, err
	}
	return employees, r.attachAllTargets(ctx, employees)
}

// Count returns the number of employees matching the filters
func (r *EmployeeRepository) Count(ctx context.Context, filters models.SearchFilters) (int, error) {
	where, args := employeeWhere(filters)
	var count int
	if err := r.executeQueryRow(ctx, "count", `SELECT COUNT(*) FROM employees`+where, args...).Scan(&count); err != nil {
		return 0, repositories.NewRepositoryError("count", "employee", "", err)
	}
	return count, nil
}

// Search performs a case-insensitive substring match on the name
func (r *EmployeeRepository) Search(ctx context.Context, query string, limit int) ([]*models.Employee, error) {
	return r.List(ctx, models.SearchFilters{Query: query, Limit: limit})
}

// ListByStore retrieves the employees assigned to a store
func (r *EmployeeRepository) ListByStore(ctx context.Context, store string) ([]*models.Employee, error) {
	return r.List(ctx, models.SearchFilters{Store: store})
}

func employeeWhere(filters models.SearchFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q := strings.TrimSpace(filters.Query); q != "" {
		conditions = append(conditions, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q)+"%")
	}
	if store := strings.TrimSpace(filters.Store); store != "" {
		conditions = append(conditions, `store = ?`)
		args = append(args, store)
	}
	if filters.Active != nil {
		status := models.EmployeeStatusInactive
		if *filters.Active {
			status = models.EmployeeStatusActive
		}
		conditions = append(conditions, `status = ?`)
		args = append(args, status)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SaveTarget inserts or replaces a monthly target and its per-day overrides
func (r *EmployeeRepository) SaveTarget(ctx context.Context, target *models.MonthlyTarget) error {
	if err := target.Validate(); err != nil {
		return repositories.ValidationError("monthly_target", target.EmployeeID, err)
	}
	return r.withinTx(ctx, func(ctx context.Context) error {
		return r.saveTarget(ctx, target)
	})
}

func (r *EmployeeRepository) saveTarget(ctx context.Context, target *models.MonthlyTarget) error {
	if target.UpdatedAt.IsZero() {
		target.UpdatedAt = time.Now()
	}

	upsert := `
		INSERT INTO monthly_targets (employee_id, year, month, amount, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, year, month) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`
	if _, err := r.executeExec(ctx, "save_target", upsert,
		target.EmployeeID, target.Year, target.Month, target.Amount, target.UpdatedAt.UTC()); err != nil {
		return err
	}

	clearOverrides := `DELETE FROM daily_target_overrides WHERE employee_id = ? AND year = ? AND month = ?`
	if _, err := r.executeExec(ctx, "clear_overrides", clearOverrides, target.EmployeeID, target.Year, target.Month); err != nil {
		return err
	}

	insert := `INSERT INTO daily_target_overrides (employee_id, year, month, day, amount) VALUES (?, ?, ?, ?, ?)`
	for _, day := range target.OverrideDays() {
		if _, err := r.executeExec(ctx, "save_override", insert,
			target.EmployeeID, target.Year, target.Month, day, target.DailyOverrides[day]); err != nil {
			return err
		}
	}
	return nil
}

// ListTargets returns every monthly target of an employee
func (r *EmployeeRepository) ListTargets(ctx context.Context, employeeID string) (models.Targets, error) {
	byEmployee, err := r.loadTargets(ctx, `WHERE employee_id = ?`, employeeID)
	if err != nil {
		return nil, err
	}
	if targets, ok := byEmployee[employeeID]; ok {
		return targets, nil
	}
	return make(models.Targets), nil
}

// DeleteTarget removes the target of one month; overrides cascade
func (r *EmployeeRepository) DeleteTarget(ctx context.Context, employeeID string, year, month int) error {
	query := `DELETE FROM monthly_targets WHERE employee_id = ? AND year = ? AND month = ?`
	result, err := r.executeExec(ctx, "delete_target", query, employeeID, year, month)
	if err != nil {
		return err
	}
	return r.checkRowsAffected(result, "delete_target", models.NewYearMonth(year, month).String())
}

func (r *EmployeeRepository) attachTargets(ctx context.Context, employee *models.Employee) error {
	targets, err := r.ListTargets(ctx, employee.ID)
	if err != nil {
		return err
	}
	employee.Targets = targets
	return nil
}

func (r *EmployeeRepository) attachAllTargets(ctx context.Context, employees []*models.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	byEmployee, err := r.loadTargets(ctx, "")
	if err != nil {
		return err
	}
	for _, e := range employees {
		if targets, ok := byEmployee[e.ID]; ok {
			e.Targets = targets
		}
	}
	return nil
}

// loadTargets reads targets and overrides grouped by employee
func (r *EmployeeRepository) loadTargets(ctx context.Context, where string, args ...interface{}) (map[string]models.Targets, error) {
	result := make(map[string]models.Targets)

	rows, err := r.executeQuery(ctx, "list_targets",
		`SELECT employee_id, year, month, amount, updated_at FROM monthly_targets `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t := &models.MonthlyTarget{}
		if err := rows.Scan(&t.EmployeeID, &t.Year, &t.Month, &t.Amount, &t.UpdatedAt); err != nil {
			return nil, repositories.NewRepositoryError("list_targets", "monthly_target", "", err)
		}
		if result[t.EmployeeID] == nil {
			result[t.EmployeeID] = make(models.Targets)
		}
		result[t.EmployeeID].Set(t)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list_targets", "monthly_target", "", err)
	}
	rows.Close()

	overrides, err := r.executeQuery(ctx, "list_overrides",
		`SELECT employee_id, year, month, day, amount FROM daily_target_overrides `+where, args...)
	if err != nil {
		return nil, err
	}
	defer overrides.Close()

	for overrides.Next() {
		var employeeID string
		var year, month, day int
		var amount float64
		if err := overrides.Scan(&employeeID, &year, &month, &day, &amount); err != nil {
			return nil, repositories.NewRepositoryError("list_overrides", "monthly_target", "", err)
		}
		if target := result[employeeID].Get(year, month); target != nil {
			target.SetOverride(day, amount)
		}
	}
	if err := overrides.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list_overrides", "monthly_target", "", err)
	}
	return result, nil
}
