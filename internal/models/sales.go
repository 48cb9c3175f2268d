package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DailyMetric is one aggregated day of activity for an employee
type DailyMetric struct {
	ID               string    `json:"id" db:"id" validate:"required,uuid"`
	Employee         string    `json:"employee" db:"employee" validate:"required,max=255"`
	Store            string    `json:"store" db:"store" validate:"max=255"`
	Date             time.Time `json:"date" db:"date" validate:"required"`
	TotalSales       float64   `json:"total_sales" db:"total_sales" validate:"gte=0"`
	TransactionCount int       `json:"transaction_count" db:"transaction_count" validate:"gte=0"`
	Footfall         *int      `json:"footfall,omitempty" db:"footfall" validate:"omitempty,gte=0"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// NewDailyMetric creates a daily metric record with generated ID
func NewDailyMetric(employee, store string, date time.Time, totalSales float64, transactions int) *DailyMetric {
	return &DailyMetric{
		ID:               uuid.New().String(),
		Employee:         SanitizeString(employee),
		Store:            SanitizeString(store),
		Date:             date,
		TotalSales:       totalSales,
		TransactionCount: transactions,
		CreatedAt:        time.Now(),
	}
}

// HasDate reports whether the record carries a usable date
func (m *DailyMetric) HasDate() bool {
	return !m.Date.IsZero()
}

// Validate validates the daily metric at the data-access boundary
func (m *DailyMetric) Validate() error {
	if strings.TrimSpace(m.Employee) == "" {
		return fmt.Errorf("employee name is required")
	}
	if !m.HasDate() {
		return fmt.Errorf("metric date is required")
	}
	if err := ValidateNonNegative(m.TotalSales, "total_sales"); err != nil {
		return err
	}
	if m.TransactionCount < 0 {
		return fmt.Errorf("transaction_count cannot be negative")
	}
	if m.Footfall != nil && *m.Footfall < 0 {
		return fmt.Errorf("footfall cannot be negative")
	}
	return nil
}

// SalesTransaction is a single line-item sale from a point-of-sale feed.
// Transactions are immutable once recorded.
type SalesTransaction struct {
	ID         string            `json:"id" db:"id" validate:"required,uuid"`
	SellerName string            `json:"seller_name" db:"seller_name" validate:"required,max=255"`
	StoreName  string            `json:"store_name" db:"store_name" validate:"max=255"`
	ItemName   string            `json:"item_name" db:"item_name" validate:"max=500"`
	ItemAlias  string            `json:"item_alias" db:"item_alias" validate:"max=500"`
	Quantity   int               `json:"quantity" db:"quantity"`
	Rate       float64           `json:"rate" db:"rate"`
	BillDate   time.Time         `json:"bill_date" db:"bill_date" validate:"required"`
	Source     TransactionSource `json:"source" db:"source"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// NewSalesTransaction creates a transaction record with generated ID
func NewSalesTransaction(seller, store, itemName string, quantity int, rate float64, billDate time.Time) *SalesTransaction {
	return &SalesTransaction{
		ID:         uuid.New().String(),
		SellerName: SanitizeString(seller),
		StoreName:  SanitizeString(store),
		ItemName:   SanitizeString(itemName),
		Quantity:   quantity,
		Rate:       rate,
		BillDate:   billDate,
		Source:     TransactionSourcePOS,
		CreatedAt:  time.Now(),
	}
}

// HasDate reports whether the record carries a usable bill date
func (t *SalesTransaction) HasDate() bool {
	return !t.BillDate.IsZero()
}

// Value returns quantity multiplied by unit rate
func (t *SalesTransaction) Value() float64 {
	return float64(t.Quantity) * t.Rate
}

// Validate validates the transaction at the data-access boundary
func (t *SalesTransaction) Validate() error {
	if strings.TrimSpace(t.SellerName) == "" {
		return fmt.Errorf("seller name is required")
	}
	if !t.HasDate() {
		return fmt.Errorf("bill date is required")
	}
	if strings.TrimSpace(t.ItemName) == "" && strings.TrimSpace(t.ItemAlias) == "" {
		return fmt.Errorf("item name or alias is required")
	}
	return nil
}

// RawDataset is a complete snapshot of the record store
type RawDataset struct {
	Employees    []*Employee         `json:"employees"`
	DailyMetrics []*DailyMetric      `json:"daily_metrics"`
	Transactions []*SalesTransaction `json:"transactions"`
	Stores       []*Store            `json:"stores"`
	LoadedAt     time.Time           `json:"loaded_at"`
}

// FindEmployee returns the employee with the given ID
func (d *RawDataset) FindEmployee(id string) *Employee {
	for _, e := range d.Employees {
		if e != nil && e.ID == id {
			return e
		}
	}
	return nil
}

// StoreAreas maps store names to their area
func (d *RawDataset) StoreAreas() map[string]string {
	areas := make(map[string]string, len(d.Stores))
	for _, s := range d.Stores {
		if s != nil {
			areas[s.Name] = s.Area
		}
	}
	return areas
}
