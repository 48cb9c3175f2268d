package models

import (
	"fmt"
	"sort"
	"time"
)

// YearMonth identifies a calendar month
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth creates a YearMonth from numeric parts
func NewYearMonth(year, month int) YearMonth {
	return YearMonth{Year: year, Month: time.Month(month)}
}

// YearMonthOf returns the calendar month containing t
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String formats the month as YYYY-MM
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// DaysInMonth returns the number of days in the month
func (ym YearMonth) DaysInMonth() int {
	return DaysInMonth(ym.Year, int(ym.Month))
}

// Previous returns the month before ym
func (ym YearMonth) Previous() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// MarshalText lets YearMonth act as a JSON object key
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText parses YYYY-MM
func (ym *YearMonth) UnmarshalText(text []byte) error {
	parsed, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// ParseYearMonth parses a YYYY-MM string
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return YearMonthOf(t), nil
}

// DaysInMonth returns the number of days in the given month (1-12)
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthlyTarget is the sales target of one employee for one calendar month
type MonthlyTarget struct {
	EmployeeID     string          `json:"employee_id" db:"employee_id"`
	Year           int             `json:"year" db:"year" validate:"required,min=2000,max=2100"`
	Month          int             `json:"month" db:"month" validate:"required,min=1,max=12"`
	Amount         float64         `json:"amount" db:"amount" validate:"gte=0"`
	DailyOverrides map[int]float64 `json:"daily_overrides,omitempty" db:"-"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// NewMonthlyTarget creates a flat monthly target with no per-day overrides
func NewMonthlyTarget(employeeID string, year, month int, amount float64) *MonthlyTarget {
	return &MonthlyTarget{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		Amount:     amount,
		UpdatedAt:  time.Now(),
	}
}

// Key returns the month this target applies to
func (t *MonthlyTarget) Key() YearMonth {
	return NewYearMonth(t.Year, t.Month)
}

// HasOverrides reports whether any per-day override is configured
func (t *MonthlyTarget) HasOverrides() bool {
	return t != nil && len(t.DailyOverrides) > 0
}

// SetOverride sets the target for a single day of the month
func (t *MonthlyTarget) SetOverride(day int, amount float64) {
	if t.DailyOverrides == nil {
		t.DailyOverrides = make(map[int]float64)
	}
	t.DailyOverrides[day] = amount
}

// OverrideDays returns the overridden days in ascending order
func (t *MonthlyTarget) OverrideDays() []int {
	days := make([]int, 0, len(t.DailyOverrides))
	for day := range t.DailyOverrides {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// Validate validates the monthly target
func (t *MonthlyTarget) Validate() error {
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", t.Month)
	}
	if t.Year < 2000 || t.Year > 2100 {
		return fmt.Errorf("year out of range: %d", t.Year)
	}
	if err := ValidateNonNegative(t.Amount, "amount"); err != nil {
		return err
	}

	days := DaysInMonth(t.Year, t.Month)
	for day, amount := range t.DailyOverrides {
		if day < 1 || day > days {
			return fmt.Errorf("override day %d is outside %s", day, t.Key())
		}
		if amount < 0 {
			return fmt.Errorf("override for day %d cannot be negative", day)
		}
	}
	return nil
}

// Targets holds the monthly targets of one employee keyed by month
type Targets map[YearMonth]*MonthlyTarget

// Get returns the target for a month, or nil when none is configured
func (t Targets) Get(year, month int) *MonthlyTarget {
	if t == nil {
		return nil
	}
	return t[NewYearMonth(year, month)]
}

// Set stores a monthly target under its month
func (t Targets) Set(target *MonthlyTarget) {
	t[target.Key()] = target
}

// List returns the targets ordered by month
func (t Targets) List() []*MonthlyTarget {
	list := make([]*MonthlyTarget, 0, len(t))
	for _, target := range t {
		list = append(list, target)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Year != list[j].Year {
			return list[i].Year < list[j].Year
		}
		return list[i].Month < list[j].Month
	})
	return list
}
