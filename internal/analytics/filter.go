package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail-cockpit-api/internal/models"
)

// Period is a month (1-12) or day (1-31) selector. The zero value selects every period.
type Period int

// All selects every month or every day
const All Period = 0

// IsAll reports whether the period selects everything
func (p Period) IsAll() bool {
	return p == All
}

// String returns "all" or the numeric value
func (p Period) String() string {
	if p.IsAll() {
		return "all"
	}
	return strconv.Itoa(int(p))
}

// MarshalJSON encodes All as "all" and anything else as a number
func (p Period) MarshalJSON() ([]byte, error) {
	if p.IsAll() {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(int(p))), nil
}

// UnmarshalJSON accepts "all", a quoted number or a bare number
func (p *Period) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*p = Period(int(v))
		return nil
	case string:
		parsed, err := ParsePeriod(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case nil:
		*p = All
		return nil
	default:
		return fmt.Errorf("invalid period %s", string(data))
	}
}

// ParsePeriod parses a query-string period; empty and "all" select everything
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return All, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 31 {
		return All, fmt.Errorf("invalid period %q", s)
	}
	return Period(n), nil
}

// DateFilter selects a year, optionally narrowed to one month and one day
type DateFilter struct {
	Year  int    `json:"year"`
	Month Period `json:"month"`
	Day   Period `json:"day"`
}

// MonthFilter selects a whole month
func MonthFilter(year, month int) DateFilter {
	return DateFilter{Year: year, Month: Period(month), Day: All}
}

// DayFilter selects a single calendar day
func DayFilter(year, month, day int) DateFilter {
	return DateFilter{Year: year, Month: Period(month), Day: Period(day)}
}

// CurrentMonth selects the whole month containing now
func CurrentMonth(now time.Time) DateFilter {
	return MonthFilter(now.Year(), int(now.Month()))
}

// Validate checks the filter ranges
func (f DateFilter) Validate() error {
	if f.Year <= 0 {
		return fmt.Errorf("year is required")
	}
	if f.Month < 0 || f.Month > 12 {
		return fmt.Errorf("month must be 1-12 or all, got %d", f.Month)
	}
	if f.Day < 0 || f.Day > 31 {
		return fmt.Errorf("day must be 1-31 or all, got %d", f.Day)
	}
	if !f.Month.IsAll() && !f.Day.IsAll() && int(f.Day) > models.DaysInMonth(f.Year, int(f.Month)) {
		return fmt.Errorf("day %d does not exist in %04d-%02d", f.Day, f.Year, f.Month)
	}
	return nil
}

// Matches reports whether t falls inside the filter. The zero time never matches.
func (f DateFilter) Matches(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if t.Year() != f.Year {
		return false
	}
	if !f.Month.IsAll() && int(t.Month()) != int(f.Month) {
		return false
	}
	if !f.Day.IsAll() && t.Day() != int(f.Day) {
		return false
	}
	return true
}

// String formats the filter as YYYY, YYYY-MM or YYYY-MM-DD
func (f DateFilter) String() string {
	switch {
	case f.Month.IsAll():
		return fmt.Sprintf("%04d", f.Year)
	case f.Day.IsAll():
		return fmt.Sprintf("%04d-%02d", f.Year, int(f.Month))
	default:
		return fmt.Sprintf("%04d-%02d-%02d", f.Year, int(f.Month), int(f.Day))
	}
}

// PreviousPeriod returns the filter shifted back by one unit of its granularity
func (f DateFilter) PreviousPeriod() DateFilter {
	switch {
	case f.Month.IsAll():
		return DateFilter{Year: f.Year - 1, Month: All, Day: All}
	case f.Day.IsAll():
		prev := models.NewYearMonth(f.Year, int(f.Month)).Previous()
		return MonthFilter(prev.Year, int(prev.Month))
	default:
		d := time.Date(f.Year, time.Month(f.Month), int(f.Day), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		return DayFilter(d.Year(), int(d.Month()), d.Day())
	}
}

// ScopeFilter narrows aggregation to an area and/or a set of stores.
// An empty filter selects everything.
type ScopeFilter struct {
	Area   string   `json:"area,omitempty"`
	Stores []string `json:"stores,omitempty"`
}

// IsEmpty reports whether the filter selects everything
func (s ScopeFilter) IsEmpty() bool {
	return s.Area == "" && len(s.Stores) == 0
}

// Matches reports whether a store participates. areas maps store names to areas.
func (s ScopeFilter) Matches(store string, areas map[string]string) bool {
	if s.IsEmpty() {
		return true
	}
	if len(s.Stores) > 0 {
		found := false
		for _, name := range s.Stores {
			if name == store {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.Area != "" && areas[store] != s.Area {
		return false
	}
	return true
}
