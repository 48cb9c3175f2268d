// Package analytics turns raw sales records into KPI summaries.
//
// Every function in this package is a pure computation over its arguments: no
// I/O, no shared state, and inputs are never mutated. Records without a date are
// skipped and missing numbers count as zero.
package analytics

import (
	"sort"

	"retail-cockpit-api/internal/models"
)

// EmployeeSummary aggregates one employee's activity over a date window
type EmployeeSummary struct {
	EmployeeID             string  `json:"employee_id"`
	Name                   string  `json:"name"`
	Store                  string  `json:"store"`
	Area                   string  `json:"area,omitempty"`
	TotalSales             float64 `json:"total_sales"`
	TotalTransactions      int     `json:"total_transactions"`
	ATV                    float64 `json:"atv"`
	TotalItemsSold         int     `json:"total_items_sold"`
	AvgItemsPerBill        float64 `json:"avg_items_per_bill"`
	EffectiveTarget        float64 `json:"effective_target"`
	Achievement            float64 `json:"achievement"`
	ContributionPercentage float64 `json:"contribution_percentage"`
	Band                   string  `json:"band"`
}

// StoreSummary aggregates all activity of one store over a date window
type StoreSummary struct {
	Name              string  `json:"name"`
	Area              string  `json:"area,omitempty"`
	TotalSales        float64 `json:"total_sales"`
	TransactionCount  int     `json:"transaction_count"`
	ATV               float64 `json:"atv"`
	TotalItemsSold    int     `json:"total_items_sold"`
	UPT               float64 `json:"upt"`
	Footfall          int     `json:"footfall"`
	ConversionRate    float64 `json:"conversion_rate"`
	EffectiveTarget   float64 `json:"effective_target"`
	TargetAchievement float64 `json:"target_achievement"`
	EmployeeCount     int     `json:"employee_count"`
}

// KPIData holds the headline figures of a dashboard view
type KPIData struct {
	TotalSales              float64 `json:"total_sales"`
	TotalTransactions       int     `json:"total_transactions"`
	AverageTransactionValue float64 `json:"average_transaction_value"`
	TotalItemsSold          int     `json:"total_items_sold"`
	UnitsPerTransaction     float64 `json:"units_per_transaction"`
	TotalFootfall           int     `json:"total_footfall"`
	ConversionRate          float64 `json:"conversion_rate"`
	SalesPerVisitor         float64 `json:"sales_per_visitor"`
}

// ratio divides guarding against a zero denominator
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// AchievementBand buckets an achievement percentage for row highlighting
func AchievementBand(achievement float64) string {
	switch {
	case achievement >= models.AchievementTargetPercent:
		return "above"
	case achievement < models.AchievementWarningPercent:
		return "below"
	default:
		return "near"
	}
}

type totals struct {
	sales        float64
	transactions int
	items        int
	footfall     int
}

// metricStore resolves the store a metric belongs to, falling back to the
// employee's assigned store
func metricStore(m *models.DailyMetric, assigned map[string]string) string {
	if m.Store != "" {
		return m.Store
	}
	return assigned[m.Employee]
}

func txStore(tx *models.SalesTransaction, assigned map[string]string) string {
	if tx.StoreName != "" {
		return tx.StoreName
	}
	return assigned[tx.SellerName]
}

type reduction struct {
	byEmployee map[string]*totals
	byStore    map[string]*totals
	overall    totals
}

// reduce sums the matching metrics and transactions per employee and per store
func reduce(d *models.RawDataset, f DateFilter, s ScopeFilter) reduction {
	areas := d.StoreAreas()
	assigned := assignedStores(d)

	r := reduction{
		byEmployee: make(map[string]*totals),
		byStore:    make(map[string]*totals),
	}
	get := func(m map[string]*totals, key string) *totals {
		t, ok := m[key]
		if !ok {
			t = &totals{}
			m[key] = t
		}
		return t
	}

	for _, m := range d.DailyMetrics {
		if m == nil || !f.Matches(m.Date) {
			continue
		}
		store := metricStore(m, assigned)
		if !s.Matches(store, areas) {
			continue
		}
		footfall := 0
		if m.Footfall != nil {
			footfall = *m.Footfall
		}
		for _, t := range []*totals{get(r.byEmployee, m.Employee), get(r.byStore, store), &r.overall} {
			t.sales += m.TotalSales
			t.transactions += m.TransactionCount
			t.footfall += footfall
		}
	}

	for _, tx := range d.Transactions {
		if tx == nil || !f.Matches(tx.BillDate) {
			continue
		}
		store := txStore(tx, assigned)
		if !s.Matches(store, areas) {
			continue
		}
		get(r.byEmployee, tx.SellerName).items += tx.Quantity
		get(r.byStore, store).items += tx.Quantity
		r.overall.items += tx.Quantity
	}

	return r
}

// ComputeEmployeeSummaries summarises every employee whose store is in scope.
// Inactive employees appear only when they have activity in the window.
func ComputeEmployeeSummaries(d *models.RawDataset, f DateFilter, s ScopeFilter) []EmployeeSummary {
	if d == nil {
		return []EmployeeSummary{}
	}
	r := reduce(d, f, s)
	areas := d.StoreAreas()

	out := make([]EmployeeSummary, 0, len(d.Employees))
	for _, e := range d.Employees {
		if e == nil || !s.Matches(e.Store, areas) {
			continue
		}
		t := r.byEmployee[e.Name]
		if t == nil {
			if !e.IsActive() {
				continue
			}
			t = &totals{}
		}

		target := EffectiveTarget(e.Targets, f)
		achievement := Achievement(t.sales, target)
		storeSales := 0.0
		if st := r.byStore[e.Store]; st != nil {
			storeSales = st.sales
		}

		out = append(out, EmployeeSummary{
			EmployeeID:             e.ID,
			Name:                   e.Name,
			Store:                  e.Store,
			Area:                   areas[e.Store],
			TotalSales:             t.sales,
			TotalTransactions:      t.transactions,
			ATV:                    ratio(t.sales, float64(t.transactions)),
			TotalItemsSold:         t.items,
			AvgItemsPerBill:        ratio(float64(t.items), float64(t.transactions)),
			EffectiveTarget:        target,
			Achievement:            achievement,
			ContributionPercentage: ratio(t.sales, storeSales) * 100,
			Band:                   AchievementBand(achievement),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ComputeStoreSummaries summarises every store in scope. Stores without a
// configuration record still appear when they carry activity.
func ComputeStoreSummaries(d *models.RawDataset, f DateFilter, s ScopeFilter) []StoreSummary {
	if d == nil {
		return []StoreSummary{}
	}
	r := reduce(d, f, s)
	areas := d.StoreAreas()

	names := make(map[string]bool)
	for _, st := range d.Stores {
		if st != nil && s.Matches(st.Name, areas) {
			names[st.Name] = true
		}
	}
	for name := range r.byStore {
		if name != "" {
			names[name] = true
		}
	}

	targets := make(map[string]float64)
	employees := make(map[string]int)
	for _, e := range d.Employees {
		if e == nil || !e.IsActive() {
			continue
		}
		targets[e.Store] += EffectiveTarget(e.Targets, f)
		employees[e.Store]++
	}

	out := make([]StoreSummary, 0, len(names))
	for name := range names {
		t := r.byStore[name]
		if t == nil {
			t = &totals{}
		}
		out = append(out, StoreSummary{
			Name:              name,
			Area:              areas[name],
			TotalSales:        t.sales,
			TransactionCount:  t.transactions,
			ATV:               ratio(t.sales, float64(t.transactions)),
			TotalItemsSold:    t.items,
			UPT:               ratio(float64(t.items), float64(t.transactions)),
			Footfall:          t.footfall,
			ConversionRate:    ratio(float64(t.transactions), float64(t.footfall)) * 100,
			EffectiveTarget:   targets[name],
			TargetAchievement: Achievement(t.sales, targets[name]),
			EmployeeCount:     employees[name],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ComputeKPIs returns the headline figures for the filtered window
func ComputeKPIs(d *models.RawDataset, f DateFilter, s ScopeFilter) KPIData {
	if d == nil {
		return KPIData{}
	}
	t := reduce(d, f, s).overall
	return KPIData{
		TotalSales:              t.sales,
		TotalTransactions:       t.transactions,
		AverageTransactionValue: ratio(t.sales, float64(t.transactions)),
		TotalItemsSold:          t.items,
		UnitsPerTransaction:     ratio(float64(t.items), float64(t.transactions)),
		TotalFootfall:           t.footfall,
		ConversionRate:          ratio(float64(t.transactions), float64(t.footfall)) * 100,
		SalesPerVisitor:         ratio(t.sales, float64(t.footfall)),
	}
}

// GroupByStore arranges employee summaries under their store name
func GroupByStore(summaries []EmployeeSummary) map[string][]EmployeeSummary {
	grouped := make(map[string][]EmployeeSummary)
	for _, s := range summaries {
		grouped[s.Store] = append(grouped[s.Store], s)
	}
	return grouped
}

// TopByAchievement returns up to n employees ordered by achievement
func TopByAchievement(summaries []EmployeeSummary, n int) []EmployeeSummary {
	sorted := make([]EmployeeSummary, len(summaries))
	copy(sorted, summaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Achievement > sorted[j].Achievement
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
