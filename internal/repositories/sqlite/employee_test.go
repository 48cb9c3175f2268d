package sqlite

import (
	"context"
	"testing"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

func TestEmployeeRepository_CreateAndGetWithTargets(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmployeeRepository(db, testLogger())
	ctx := context.Background()

	employee := models.NewEmployee("Ali Khan", "Mall Store")
	target := models.NewMonthlyTarget("", 2024, 4, 30000)
	target.SetOverride(1, 2000)
	target.SetOverride(15, 500)
	employee.SetTarget(target)
	employee.SetTarget(models.NewMonthlyTarget("", 2024, 3, 25000))

	if err := repo.Create(ctx, employee); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, employee.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Ali Khan" || got.Store != "Mall Store" || !got.IsActive() {
		t.Errorf("unexpected employee %+v", got)
	}
	if len(got.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(got.Targets))
	}

	april := got.Targets.Get(2024, 4)
	if april == nil || april.Amount != 30000 {
		t.Fatalf("unexpected April target %+v", april)
	}
	if april.DailyOverrides[1] != 2000 || april.DailyOverrides[15] != 500 || len(april.DailyOverrides) != 2 {
		t.Errorf("overrides did not round trip: %v", april.DailyOverrides)
	}
	if got.Targets.Get(2024, 3).HasOverrides() {
		t.Error("March target should have no overrides")
	}
}

func TestEmployeeRepository_SaveTargetReplacesOverrides(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmployeeRepository(db, testLogger())
	ctx := context.Background()

	employee := models.NewEmployee("Sara", "S1")
	if err := repo.Create(ctx, employee); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first := models.NewMonthlyTarget(employee.ID, 2024, 5, 10000)
	first.SetOverride(3, 900)
	if err := repo.SaveTarget(ctx, first); err != nil {
		t.Fatalf("SaveTarget() error = %v", err)
	}

	second := models.NewMonthlyTarget(employee.ID, 2024, 5, 12000)
	second.SetOverride(4, 100)
	if err := repo.SaveTarget(ctx, second); err != nil {
		t.Fatalf("SaveTarget() error = %v", err)
	}

	targets, err := repo.ListTargets(ctx, employee.ID)
	if err != nil {
		t.Fatalf("ListTargets() error = %v", err)
	}
	may := targets.Get(2024, 5)
	if may.Amount != 12000 {
		t.Errorf("expected amount 12000, got %v", may.Amount)
	}
	if _, ok := may.DailyOverrides[3]; ok || may.DailyOverrides[4] != 100 {
		t.Errorf("expected overrides to be replaced, got %v", may.DailyOverrides)
	}

	if err := repo.DeleteTarget(ctx, employee.ID, 2024, 5); err != nil {
		t.Fatalf("DeleteTarget() error = %v", err)
	}
	if err := repo.DeleteTarget(ctx, employee.ID, 2024, 5); !repositories.IsNotFound(err) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestEmployeeRepository_SaveTargetValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmployeeRepository(db, testLogger())
	ctx := context.Background()

	tests := []struct {
		name   string
		target *models.MonthlyTarget
		check  func(error) bool
	}{
		{"month out of range", models.NewMonthlyTarget("x", 2024, 13, 1), repositories.IsValidation},
		{"override beyond month end", func() *models.MonthlyTarget {
			mt := models.NewMonthlyTarget("x", 2024, 2, 1)
			mt.SetOverride(30, 5)
			return mt
		}(), repositories.IsValidation},
		{"unknown employee", models.NewMonthlyTarget("missing", 2024, 2, 1), repositories.IsConstraint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.SaveTarget(ctx, tt.target)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestEmployeeRepository_ListAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmployeeRepository(db, testLogger())
	ctx := context.Background()

	inactive := models.NewEmployee("Zed", "S2")
	inactive.Deactivate()
	for _, e := range []*models.Employee{
		models.NewEmployee("ali", "S1"),
		models.NewEmployee("Bilal", "S1"),
		models.NewEmployee("Alina", "S2"),
		inactive,
	} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create(%s) error = %v", e.Name, err)
		}
	}

	active := true
	tests := []struct {
		name    string
		filters models.SearchFilters
		want    []string
	}{
		{"all ordered by name", models.SearchFilters{}, []string{"ali", "Alina", "Bilal", "Zed"}},
		{"by store", models.SearchFilters{Store: "S1"}, []string{"ali", "Bilal"}},
		{"active only", models.SearchFilters{Active: &active}, []string{"ali", "Alina", "Bilal"}},
		{"query is case insensitive", models.SearchFilters{Query: "ALI"}, []string{"ali", "Alina"}},
		{"paging", models.SearchFilters{Limit: 2, Offset: 1}, []string{"Alina", "Bilal"}},
		{"like wildcards are literal", models.SearchFilters{Query: "%"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d employees, got %d", len(tt.want), len(got))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("position %d: expected %s, got %s", i, name, got[i].Name)
				}
			}
		})
	}

	count, err := repo.Count(ctx, models.SearchFilters{Store: "S2", Limit: 1})
	if err != nil || count != 2 {
		t.Errorf("Count() = %d, %v; want 2", count, err)
	}

	found, err := repo.GetByName(ctx, "  BILAL ")
	if err != nil || found.Name != "Bilal" {
		t.Errorf("GetByName() = %+v, %v", found, err)
	}
	if _, err := repo.GetByName(ctx, "nobody"); !repositories.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	byStore, err := repo.ListByStore(ctx, "S2")
	if err != nil || len(byStore) != 2 {
		t.Errorf("ListByStore() = %d, %v", len(byStore), err)
	}
}

func TestEmployeeRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmployeeRepository(db, testLogger())
	ctx := context.Background()

	employee := models.NewEmployee("Omar", "S1")
	employee.SetTarget(models.NewMonthlyTarget("", 2024, 1, 100))
	if err := repo.Create(ctx, employee); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	employee.Store = "S9"
	employee.Deactivate()
	if err := repo.Update(ctx, employee); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := repo.GetByID(ctx, employee.ID)
	if got.Store != "S9" || got.IsActive() {
		t.Errorf("update not persisted: %+v", got)
	}

	ghost := models.NewEmployee("Ghost", "S1")
	if err := repo.Update(ctx, ghost); !repositories.IsNotFound(err) {
		t.Errorf("expected not found updating missing employee, got %v", err)
	}

	if err := repo.Delete(ctx, employee.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, employee.ID); !repositories.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	targets, err := repo.ListTargets(ctx, employee.ID)
	if err != nil || len(targets) != 0 {
		t.Errorf("targets should cascade on delete, got %v (%v)", targets, err)
	}

	exists, err := repo.Exists(ctx, employee.ID)
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v", exists, err)
	}
}
