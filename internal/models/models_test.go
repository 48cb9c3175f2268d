package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEmployeeCreation(t *testing.T) {
	emp := NewEmployee("  Ali   Hassan ", "Riyadh Mall")
	if err := emp.Validate(); err != nil {
		t.Fatalf("employee validation failed: %v", err)
	}
	if emp.Name != "Ali Hassan" {
		t.Errorf("Expected sanitized name 'Ali Hassan', got '%s'", emp.Name)
	}
	if !emp.IsActive() {
		t.Error("new employee should be active")
	}

	emp.Deactivate()
	if emp.IsActive() {
		t.Error("deactivated employee should not be active")
	}
}

func TestMonthlyTargetValidation(t *testing.T) {
	tests := []struct {
		name    string
		target  *MonthlyTarget
		wantErr bool
	}{
		{"valid flat target", NewMonthlyTarget("e1", 2024, 3, 30000), false},
		{"month out of range", NewMonthlyTarget("e1", 2024, 13, 30000), true},
		{"negative amount", NewMonthlyTarget("e1", 2024, 3, -1), true},
		{
			name: "override on day 31 of April",
			target: func() *MonthlyTarget {
				mt := NewMonthlyTarget("e1", 2024, 4, 1000)
				mt.SetOverride(31, 10)
				return mt
			}(),
			wantErr: true,
		},
		{
			name: "override on leap day",
			target: func() *MonthlyTarget {
				mt := NewMonthlyTarget("e1", 2024, 2, 1000)
				mt.SetOverride(29, 10)
				return mt
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2024, 3, 31},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestTargetsJSONKeys(t *testing.T) {
	targets := make(Targets)
	mt := NewMonthlyTarget("e1", 2024, 3, 30000)
	mt.SetOverride(15, 2000)
	targets.Set(mt)

	data, err := json.Marshal(targets)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Targets
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	got := decoded.Get(2024, 3)
	if got == nil {
		t.Fatal("expected target for 2024-03")
	}
	if got.DailyOverrides[15] != 2000 {
		t.Errorf("expected override 2000 on day 15, got %v", got.DailyOverrides[15])
	}
}

func TestYearMonthPrevious(t *testing.T) {
	if got := NewYearMonth(2024, 1).Previous(); got.String() != "2023-12" {
		t.Errorf("expected 2023-12, got %s", got)
	}
	if got := NewYearMonth(2024, 7).Previous(); got.String() != "2024-06" {
		t.Errorf("expected 2024-06, got %s", got)
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role        Role
		manage      bool
		manageUsers bool
		resetData   bool
	}{
		{RoleAdmin, true, true, true},
		{RoleGeneralManager, true, true, false},
		{RoleAreaManager, true, false, false},
		{RoleEmployee, false, false, false},
		{Role("guest"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := CanManage(tt.role); got != tt.manage {
				t.Errorf("CanManage(%s) = %v, want %v", tt.role, got, tt.manage)
			}
			if got := CanManageUsers(tt.role); got != tt.manageUsers {
				t.Errorf("CanManageUsers(%s) = %v, want %v", tt.role, got, tt.manageUsers)
			}
			if got := CanResetData(tt.role); got != tt.resetData {
				t.Errorf("CanResetData(%s) = %v, want %v", tt.role, got, tt.resetData)
			}
		})
	}
}

func TestFallbackProfile(t *testing.T) {
	p := FallbackProfile("uid-1", "sara@example.com", "")
	if p.Name != "sara" {
		t.Errorf("expected name derived from email, got %q", p.Name)
	}
	if p.Role != RoleEmployee {
		t.Errorf("expected employee role, got %s", p.Role)
	}

	p = FallbackProfile("uid-2", "", "")
	if p.Name != "User" {
		t.Errorf("expected default name 'User', got %q", p.Name)
	}
}

func TestDailyMetricValidation(t *testing.T) {
	m := NewDailyMetric("Ali", "Riyadh Mall", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 1000, 10)
	if err := m.Validate(); err != nil {
		t.Errorf("valid metric rejected: %v", err)
	}

	m.Date = time.Time{}
	if err := m.Validate(); err == nil {
		t.Error("metric without date should fail validation")
	}
}

func TestSalesTransactionValue(t *testing.T) {
	tx := NewSalesTransaction("Ali", "Riyadh Mall", "King Size Duvet", 3, 250, time.Now())
	if tx.Value() != 750 {
		t.Errorf("expected value 750, got %v", tx.Value())
	}
}
