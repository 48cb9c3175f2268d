package recordstore

import (
	"testing"
	"time"

	"retail-cockpit-api/internal/models"
)

func TestDecodeEmployee(t *testing.T) {
	doc := employeeDoc{
		Name:   " Sara ",
		Store:  "Airport",
		Status: "Inactive",
		Targets: map[string]interface{}{
			"2024-03": float64(25000),
			"2024-04": map[string]interface{}{
				"amount": int64(30000),
				"daily":  map[string]interface{}{"1": "2,000", "15": int64(500)},
			},
		},
	}

	e, err := decodeEmployee("emp-1", doc)
	if err != nil {
		t.Fatalf("decodeEmployee() error = %v", err)
	}
	if e.ID != "emp-1" || e.Name != "Sara" || e.IsActive() {
		t.Errorf("unexpected employee %+v", e)
	}
	if e.Targets.Get(2024, 3).Amount != 25000 || e.Targets.Get(2024, 3).HasOverrides() {
		t.Errorf("unexpected March target %+v", e.Targets.Get(2024, 3))
	}
	april := e.Targets.Get(2024, 4)
	if april.Amount != 30000 || april.DailyOverrides[1] != 2000 || april.DailyOverrides[15] != 500 {
		t.Errorf("unexpected April target %+v", april)
	}
	if april.EmployeeID != "emp-1" {
		t.Errorf("target should carry the employee id, got %q", april.EmployeeID)
	}
}

func TestDecodeTargets_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"bad key", map[string]interface{}{"March": float64(1)}},
		{"bad day", map[string]interface{}{"2024-02": map[string]interface{}{"amount": float64(1), "daily": map[string]interface{}{"x": float64(1)}}}},
		{"day past month end", map[string]interface{}{"2024-02": map[string]interface{}{"amount": float64(1), "daily": map[string]interface{}{"30": float64(1)}}}},
		{"negative amount", map[string]interface{}{"2024-02": float64(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeTargets("e", tt.raw); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeMetric(t *testing.T) {
	date := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	m, err := decodeMetric("m1", metricDoc{
		Employee:         "Ali",
		Store:            "S1",
		Date:             date,
		TotalSales:       int64(1200),
		TransactionCount: float64(4),
		Footfall:         int64(30),
	})
	if err != nil {
		t.Fatalf("decodeMetric() error = %v", err)
	}
	if m.ID != "m1" || !m.Date.Equal(date) || m.TotalSales != 1200 || m.TransactionCount != 4 || *m.Footfall != 30 {
		t.Errorf("unexpected metric %+v", m)
	}

	undated, err := decodeMetric("m2", metricDoc{Employee: "Ali", Date: "garbage"})
	if err != nil {
		t.Fatalf("decodeMetric() error = %v", err)
	}
	if undated.HasDate() || undated.Footfall != nil || undated.TotalSales != 0 {
		t.Errorf("undated metric should decode with zero values: %+v", undated)
	}

	if _, err := decodeMetric("m3", metricDoc{TotalSales: "lots"}); err == nil {
		t.Error("expected error for non-numeric sales")
	}
}

func TestDecodeTransaction(t *testing.T) {
	tx, err := decodeTransaction("t1", transactionDoc{
		SellerName: "Ali",
		StoreName:  "S1",
		ItemName:   "King Duvet",
		ItemAlias:  " KD-1 ",
		Quantity:   "2",
		Rate:       float64(450.5),
		BillDate:   "05/03/2024",
	}, models.TransactionSourceKingDuvet)
	if err != nil {
		t.Fatalf("decodeTransaction() error = %v", err)
	}
	if tx.ID != "t1" || tx.Value() != 901 || tx.ItemAlias != "KD-1" || tx.Source != models.TransactionSourceKingDuvet {
		t.Errorf("unexpected transaction %+v", tx)
	}
	if tx.BillDate.Month() != time.May || tx.BillDate.Day() != 3 {
		t.Errorf("bill date should parse month-first, got %v", tx.BillDate)
	}
}

func TestCollectionsNames(t *testing.T) {
	c := DefaultCollections()
	if len(c.names()) != 5 {
		t.Errorf("expected 5 default collections, got %v", c.names())
	}
	c.KingDuvetSales = ""
	c.Stores = ""
	if len(c.names()) != 3 {
		t.Errorf("empty names should be skipped, got %v", c.names())
	}
}
