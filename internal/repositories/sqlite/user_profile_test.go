package sqlite

import (
	"context"
	"errors"
	"testing"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

func TestUserProfileRepository(t *testing.T) {
	db := setupTestDB(t)
	employees := NewEmployeeRepository(db, testLogger())
	repo := NewUserProfileRepository(db, testLogger())
	ctx := context.Background()

	employee := models.NewEmployee("Ali", "S1")
	if err := employees.Create(ctx, employee); err != nil {
		t.Fatalf("Create employee error = %v", err)
	}

	pending := models.NewUserProfile("Ali", "Ali@Example.com")
	pending.EmployeeID = &employee.ID
	pending.PasswordHash = "hash"
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	admin := models.NewUserProfile("Boss", "boss@example.com")
	admin.UID = "external-uid-1"
	admin.Role = models.RoleAdmin
	admin.Approve()
	if err := repo.Create(ctx, admin); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Create(ctx, models.NewUserProfile("Dup", "ALI@example.com")); !repositories.IsDuplicate(err) {
		t.Errorf("expected duplicate email error, got %v", err)
	}

	got, err := repo.GetByEmail(ctx, " ali@EXAMPLE.com ")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != pending.ID || got.PasswordHash != "hash" || got.EmployeeID == nil || *got.EmployeeID != employee.ID {
		t.Errorf("unexpected profile %+v", got)
	}

	byUID, err := repo.GetByUID(ctx, "external-uid-1")
	if err != nil || byUID.ID != admin.ID || byUID.Role != models.RoleAdmin {
		t.Errorf("GetByUID() = %+v, %v", byUID, err)
	}
	if _, err := repo.GetByUID(ctx, "nope"); !repositories.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	pendingList, err := repo.ListByStatus(ctx, models.UserStatusPending)
	if err != nil || len(pendingList) != 1 || pendingList[0].ID != pending.ID {
		t.Errorf("ListByStatus(pending) = %+v, %v", pendingList, err)
	}

	pending.Approve()
	pending.Role = models.RoleAreaManager
	if err := repo.Update(ctx, pending); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	active, err := repo.ListByStatus(ctx, models.UserStatusActive)
	if err != nil || len(active) != 2 {
		t.Errorf("ListByStatus(active) = %d, %v", len(active), err)
	}

	if err := employees.Delete(ctx, employee.ID); err != nil {
		t.Fatalf("Delete employee error = %v", err)
	}
	unlinked, err := repo.GetByID(ctx, pending.ID)
	if err != nil || unlinked.EmployeeID != nil {
		t.Errorf("employee link should be cleared on delete, got %+v, %v", unlinked, err)
	}
}

func TestTaskRepository(t *testing.T) {
	db := setupTestDB(t)
	employees := NewEmployeeRepository(db, testLogger())
	repo := NewTaskRepository(db, testLogger())
	ctx := context.Background()

	employee := models.NewEmployee("Ali", "S1")
	if err := employees.Create(ctx, employee); err != nil {
		t.Fatalf("Create employee error = %v", err)
	}

	first := models.NewTask(employee.ID, "manager-1", "Upsell pillows", "Pair every duvet with a pillow")
	second := models.NewTask(employee.ID, "manager-1", "Check stock", "")
	for _, task := range []*models.Task{first, second} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := repo.Create(ctx, models.NewTask("missing", "m", "x", "")); !repositories.IsConstraint(err) {
		t.Errorf("expected constraint error for unknown employee, got %v", err)
	}

	first.Complete()
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	done, err := repo.ListByEmployee(ctx, employee.ID, models.TaskStatusDone)
	if err != nil || len(done) != 1 {
		t.Fatalf("ListByEmployee(done) = %d, %v", len(done), err)
	}
	if done[0].CompletedAt == nil {
		t.Error("completion time should round trip")
	}

	open, err := repo.ListByEmployee(ctx, employee.ID, models.TaskStatusOpen)
	if err != nil || len(open) != 1 || open[0].ID != second.ID {
		t.Errorf("ListByEmployee(open) = %+v, %v", open, err)
	}

	all, err := repo.ListByEmployee(ctx, employee.ID, "")
	if err != nil || len(all) != 2 {
		t.Errorf("ListByEmployee(all) = %d, %v", len(all), err)
	}
}

func TestBusinessRuleRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBusinessRuleRepository(db, testLogger())
	ctx := context.Background()

	rule := models.NewBusinessRule("Always mention the loyalty card", "admin-1")
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, models.NewBusinessRule("   ", "admin-1")); !repositories.IsValidation(err) {
		t.Errorf("expected validation error for empty rule, got %v", err)
	}

	rules, err := repo.List(ctx)
	if err != nil || len(rules) != 1 || rules[0].Rule != rule.Rule {
		t.Fatalf("List() = %+v, %v", rules, err)
	}

	if err := repo.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, rule.ID); !repositories.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRepositoryManager_WithTransaction(t *testing.T) {
	db := setupTestDB(t)
	manager := NewSQLiteRepositoryManager(db, testLogger())
	ctx := context.Background()

	if err := manager.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	boom := errors.New("boom")
	err := manager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := manager.Stores().Create(ctx, models.NewStore("Rolled Back", "")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if _, err := manager.Stores().GetByName(ctx, "Rolled Back"); !repositories.IsNotFound(err) {
		t.Errorf("store should have been rolled back, got %v", err)
	}

	err = manager.WithTransaction(ctx, func(ctx context.Context) error {
		employee := models.NewEmployee("Committed", "S1")
		if err := manager.Employees().Create(ctx, employee); err != nil {
			return err
		}
		return manager.Employees().SaveTarget(ctx, models.NewMonthlyTarget(employee.ID, 2024, 1, 10))
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}
	got, err := manager.Employees().GetByName(ctx, "Committed")
	if err != nil || got.Targets.Get(2024, 1) == nil {
		t.Errorf("committed employee missing or without target: %+v, %v", got, err)
	}
}
