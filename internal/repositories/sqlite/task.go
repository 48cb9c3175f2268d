package sqlite

import (
	"context"
	"database/sql"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const taskColumns = `id, employee_id, title, message, sender_id, status, created_at, completed_at`

// TaskRepository implements the TaskRepository interface for SQLite
type TaskRepository struct {
	*BaseRepository[models.Task]
}

// NewTaskRepository creates a new SQLite task repository
func NewTaskRepository(db *sql.DB, logger *logrus.Logger) repositories.TaskRepository {
	return &TaskRepository{
		BaseRepository: NewBaseRepository[models.Task](db, "tasks", "task", logger),
	}
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var completedAt sql.NullTime
	err := row.Scan(&t.ID, &t.EmployeeID, &t.Title, &t.Message, &t.SenderID, &t.Status, &t.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}

func nullableTime(t *models.Task) sql.NullTime {
	if t.CompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.CompletedAt.UTC(), Valid: true}
}

// Create stores a new task for an existing employee
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return repositories.ValidationError("task", task.ID, err)
	}
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.executeExec(ctx, "create", query,
		task.ID,
		task.EmployeeID,
		task.Title,
		task.Message,
		task.SenderID,
		task.Status,
		task.CreatedAt.UTC(),
		nullableTime(task),
	)
	return err
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return r.getOne(r.executeQueryRow(ctx, "get_by_id", query, id), id, scanTask)
}

// Update updates the task text and completion state
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return repositories.ValidationError("task", task.ID, err)
	}
	query := `UPDATE tasks SET title = ?, message = ?, status = ?, completed_at = ? WHERE id = ?`
	result, err := r.executeExec(ctx, "update", query, task.Title, task.Message, task.Status, nullableTime(task), task.ID)
	if err != nil {
		return err
	}
	return r.checkRowsAffected(result, "update", task.ID)
}

// Delete deletes a task by ID
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}

// ListByEmployee returns an employee's tasks, newest first
func (r *TaskRepository) ListByEmployee(ctx context.Context, employeeID string, status models.TaskStatus) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE employee_id = ?`
	args := []interface{}{employeeID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.executeQuery(ctx, "list_by_employee", query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(rows, "list_by_employee", scanTask)
}
