package analytics

import (
	"sort"
	"strings"
	"time"

	"retail-cockpit-api/internal/models"
)

// EmployeeDetail is the full drill-down of one employee
type EmployeeDetail struct {
	Summary       EmployeeSummary   `json:"summary"`
	StoreAvgATV   float64           `json:"store_avg_atv"`
	StoreAvgUPT   float64           `json:"store_avg_upt"`
	Categories    []CategorySales   `json:"categories"`
	TopProducts   []ProductQuantity `json:"top_products"`
	Trend         Trend             `json:"trend"`
	DynamicTarget DynamicTarget     `json:"dynamic_target"`
}

// DetailOptions tunes EmployeeDetail
type DetailOptions struct {
	Now           time.Time
	TrendDays     int
	TopN          int
	FocusCategory string
}

// ComputeEmployeeDetail builds the drill-down for one employee. It returns false
// when the employee is not part of the dataset.
func ComputeEmployeeDetail(d *models.RawDataset, employeeID string, f DateFilter, opts DetailOptions) (*EmployeeDetail, bool) {
	if d == nil {
		return nil, false
	}
	emp := d.FindEmployee(employeeID)
	if emp == nil {
		return nil, false
	}
	if opts.TopN <= 0 {
		opts.TopN = models.DefaultTopProducts
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	// scope to the employee's store so contribution is relative to it
	scope := ScopeFilter{Stores: []string{emp.Store}}
	var summary EmployeeSummary
	for _, s := range ComputeEmployeeSummaries(d, f, scope) {
		if s.EmployeeID == emp.ID {
			summary = s
			break
		}
	}
	if summary.EmployeeID == "" {
		target := EffectiveTarget(emp.Targets, f)
		summary = EmployeeSummary{
			EmployeeID:      emp.ID,
			Name:            emp.Name,
			Store:           emp.Store,
			EffectiveTarget: target,
			Band:            AchievementBand(0),
		}
	}

	detail := &EmployeeDetail{
		Summary:       summary,
		Categories:    CategoryBreakdown(d, f, ScopeFilter{}, emp.Name),
		Trend:         TrailingTrend(d.DailyMetrics, d.Transactions, emp.Name, opts.Now, opts.TrendDays),
		DynamicTarget: ComputeDynamicTarget(emp.Targets, d.DailyMetrics, emp.Name, opts.Now),
	}

	for _, st := range ComputeStoreSummaries(d, f, scope) {
		if st.Name == emp.Store {
			detail.StoreAvgATV = st.ATV
			detail.StoreAvgUPT = st.UPT
			break
		}
	}

	// overall top products, or those of the focused category
	tally := make(map[string]int)
	for _, c := range detail.Categories {
		if opts.FocusCategory != "" && c.Category != opts.FocusCategory {
			continue
		}
		for name, qty := range c.Products {
			tally[name] += qty
		}
	}
	detail.TopProducts = topProducts(tally, opts.TopN)

	return detail, true
}

// SearchEmployees returns employees whose name contains query, ignoring case.
// An empty query returns every employee. Results are ordered by name.
func SearchEmployees(employees []*models.Employee, query string) []*models.Employee {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Employee, 0, len(employees))
	for _, e := range employees {
		if e == nil {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
