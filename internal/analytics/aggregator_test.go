package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"retail-cockpit-api/internal/models"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 10, 0, 0, 0, time.UTC)
}

func metric(emp, store string, at time.Time, sales float64, tx int) *models.DailyMetric {
	return models.NewDailyMetric(emp, store, at, sales, tx)
}

func sale(seller, store, item string, qty int, rate float64, at time.Time) *models.SalesTransaction {
	return models.NewSalesTransaction(seller, store, item, qty, rate, at)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func testDataset() *models.RawDataset {
	ali := models.NewEmployee("Ali", "Riyadh Mall")
	sara := models.NewEmployee("Sara", "Riyadh Mall")
	omar := models.NewEmployee("Omar", "Jeddah Park")
	ali.SetTarget(models.NewMonthlyTarget(ali.ID, 2024, 3, 30000))

	return &models.RawDataset{
		Employees: []*models.Employee{ali, sara, omar},
		Stores: []*models.Store{
			models.NewStore("Riyadh Mall", "Central"),
			models.NewStore("Jeddah Park", "Western"),
		},
		DailyMetrics: []*models.DailyMetric{
			metric("Ali", "Riyadh Mall", date(2024, 3, 1), 1000, 10),
			metric("Ali", "Riyadh Mall", date(2024, 3, 2), 1500, 15),
			metric("Sara", "Riyadh Mall", date(2024, 3, 2), 7500, 30),
			metric("Omar", "Jeddah Park", date(2024, 3, 5), 4000, 20),
			metric("Ali", "Riyadh Mall", date(2024, 4, 1), 9999, 99),
			{Employee: "Ali", Store: "Riyadh Mall", TotalSales: 500, TransactionCount: 5},
		},
		Transactions: []*models.SalesTransaction{
			sale("Ali", "Riyadh Mall", "King Size Duvet", 30, 100, date(2024, 3, 1)),
			sale("Ali", "Riyadh Mall", "Bath Towel", 20, 10, date(2024, 3, 2)),
			sale("Sara", "Riyadh Mall", "Sofa", 3, 1000, date(2024, 3, 2)),
			sale("Omar", "Jeddah Park", "XYZ123", 10, 5, date(2024, 3, 5)),
		},
	}
}

func findEmployee(t *testing.T, summaries []EmployeeSummary, name string) EmployeeSummary {
	t.Helper()
	for _, s := range summaries {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("employee %s not found in summaries", name)
	return EmployeeSummary{}
}

func TestComputeEmployeeSummaries(t *testing.T) {
	d := testDataset()
	summaries := ComputeEmployeeSummaries(d, MonthFilter(2024, 3), ScopeFilter{})

	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}

	ali := findEmployee(t, summaries, "Ali")
	if ali.TotalSales != 2500 {
		t.Errorf("expected total sales 2500, got %v", ali.TotalSales)
	}
	if ali.TotalTransactions != 25 {
		t.Errorf("expected 25 transactions, got %d", ali.TotalTransactions)
	}
	if ali.ATV != 100 {
		t.Errorf("expected ATV 100, got %v", ali.ATV)
	}
	if ali.TotalItemsSold != 50 {
		t.Errorf("expected 50 items sold, got %d", ali.TotalItemsSold)
	}
	if ali.AvgItemsPerBill != 2 {
		t.Errorf("expected UPT 2, got %v", ali.AvgItemsPerBill)
	}
	if ali.EffectiveTarget != 30000 {
		t.Errorf("expected effective target 30000, got %v", ali.EffectiveTarget)
	}
	if !almostEqual(ali.Achievement, 2500.0/30000*100) {
		t.Errorf("unexpected achievement %v", ali.Achievement)
	}
	if ali.Band != "below" {
		t.Errorf("expected band below, got %s", ali.Band)
	}

	sara := findEmployee(t, summaries, "Sara")
	if sara.Achievement != 0 {
		t.Errorf("employee without target should have 0 achievement, got %v", sara.Achievement)
	}
	if sara.ContributionPercentage != 75 {
		t.Errorf("expected contribution 75, got %v", sara.ContributionPercentage)
	}

	if summaries[0].Name != "Sara" {
		t.Errorf("expected summaries ordered by sales, first is %s", summaries[0].Name)
	}
}

func TestComputeEmployeeSummaries_ZeroTransactions(t *testing.T) {
	emp := models.NewEmployee("Noor", "Riyadh Mall")
	d := &models.RawDataset{
		Employees:    []*models.Employee{emp},
		DailyMetrics: []*models.DailyMetric{metric("Noor", "Riyadh Mall", date(2024, 3, 1), 800, 0)},
	}

	s := ComputeEmployeeSummaries(d, MonthFilter(2024, 3), ScopeFilter{})[0]
	if s.ATV != 0 {
		t.Errorf("ATV must be exactly 0 without transactions, got %v", s.ATV)
	}
	if s.AvgItemsPerBill != 0 {
		t.Errorf("UPT must be 0 without transactions, got %v", s.AvgItemsPerBill)
	}
}

func TestStoreContribution(t *testing.T) {
	a := models.NewEmployee("A", "S1")
	b := models.NewEmployee("B", "S1")
	d := &models.RawDataset{
		Employees: []*models.Employee{a, b},
		DailyMetrics: []*models.DailyMetric{
			metric("A", "S1", date(2024, 3, 3), 5000, 50),
			metric("B", "S1", date(2024, 3, 3), 15000, 100),
		},
	}

	s := findEmployee(t, ComputeEmployeeSummaries(d, MonthFilter(2024, 3), ScopeFilter{}), "A")
	if s.ContributionPercentage != 25 {
		t.Errorf("expected contribution 25%%, got %v", s.ContributionPercentage)
	}
}

func TestComputeStoreSummaries(t *testing.T) {
	d := testDataset()
	stores := ComputeStoreSummaries(d, MonthFilter(2024, 3), ScopeFilter{})

	if len(stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(stores))
	}

	riyadh := stores[0]
	if riyadh.Name != "Riyadh Mall" {
		t.Fatalf("expected Riyadh Mall first, got %s", riyadh.Name)
	}
	if riyadh.TotalSales != 10000 {
		t.Errorf("expected store sales 10000, got %v", riyadh.TotalSales)
	}
	if riyadh.TransactionCount != 55 {
		t.Errorf("expected 55 transactions, got %d", riyadh.TransactionCount)
	}
	if riyadh.TotalItemsSold != 53 {
		t.Errorf("expected 53 items, got %d", riyadh.TotalItemsSold)
	}
	if riyadh.EffectiveTarget != 30000 {
		t.Errorf("expected store target 30000, got %v", riyadh.EffectiveTarget)
	}
	if riyadh.EmployeeCount != 2 {
		t.Errorf("expected 2 employees, got %d", riyadh.EmployeeCount)
	}
	if riyadh.Area != "Central" {
		t.Errorf("expected area Central, got %s", riyadh.Area)
	}
}

func TestScopeFilter(t *testing.T) {
	d := testDataset()

	tests := []struct {
		name      string
		scope     ScopeFilter
		wantNames []string
	}{
		{"empty scope selects all", ScopeFilter{}, []string{"Ali", "Omar", "Sara"}},
		{"area", ScopeFilter{Area: "Western"}, []string{"Omar"}},
		{"store list", ScopeFilter{Stores: []string{"Riyadh Mall"}}, []string{"Ali", "Sara"}},
		{"store outside area", ScopeFilter{Area: "Western", Stores: []string{"Riyadh Mall"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries := ComputeEmployeeSummaries(d, MonthFilter(2024, 3), tt.scope)
			got := make(map[string]bool)
			for _, s := range summaries {
				got[s.Name] = true
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("expected %v, got %v", tt.wantNames, got)
			}
			for _, name := range tt.wantNames {
				if !got[name] {
					t.Errorf("expected %s in result", name)
				}
			}
		})
	}
}

func TestDateFilterMatches(t *testing.T) {
	at := date(2024, 3, 15)
	tests := []struct {
		name   string
		filter DateFilter
		want   bool
	}{
		{"whole year", DateFilter{Year: 2024}, true},
		{"other year", DateFilter{Year: 2023}, false},
		{"month", MonthFilter(2024, 3), true},
		{"other month", MonthFilter(2024, 4), false},
		{"day", DayFilter(2024, 3, 15), true},
		{"other day", DayFilter(2024, 3, 16), false},
		{"day in any month", DateFilter{Year: 2024, Month: All, Day: 15}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(at); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	if (DateFilter{Year: 1}).Matches(time.Time{}) {
		t.Error("zero time must never match")
	}
}

func TestRecordsWithoutDateAreExcluded(t *testing.T) {
	d := testDataset()
	kpis := ComputeKPIs(d, DateFilter{Year: 2024}, ScopeFilter{})
	// 2500 + 7500 + 4000 in March plus 9999 in April; the undated record is ignored
	if kpis.TotalSales != 23999 {
		t.Errorf("expected 23999, got %v", kpis.TotalSales)
	}
}

func TestAggregationIsIdempotent(t *testing.T) {
	d := testDataset()
	before := *d.DailyMetrics[0]

	f := MonthFilter(2024, 3)
	first := ComputeEmployeeSummaries(d, f, ScopeFilter{})
	second := ComputeEmployeeSummaries(d, f, ScopeFilter{})
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different employee summaries")
	}

	s1 := ComputeStoreSummaries(d, f, ScopeFilter{})
	s2 := ComputeStoreSummaries(d, f, ScopeFilter{})
	if !reflect.DeepEqual(s1, s2) {
		t.Error("identical inputs produced different store summaries")
	}

	if !reflect.DeepEqual(before, *d.DailyMetrics[0]) {
		t.Error("aggregation mutated an input record")
	}
}

func TestComputeKPIs(t *testing.T) {
	footfall := 100
	m := metric("Ali", "Riyadh Mall", date(2024, 3, 1), 2000, 20)
	m.Footfall = &footfall
	d := &models.RawDataset{DailyMetrics: []*models.DailyMetric{m}}

	k := ComputeKPIs(d, MonthFilter(2024, 3), ScopeFilter{})
	if k.ConversionRate != 20 {
		t.Errorf("expected conversion 20%%, got %v", k.ConversionRate)
	}
	if k.SalesPerVisitor != 20 {
		t.Errorf("expected sales per visitor 20, got %v", k.SalesPerVisitor)
	}
	if k.AverageTransactionValue != 100 {
		t.Errorf("expected ATV 100, got %v", k.AverageTransactionValue)
	}
}

func TestNilDataset(t *testing.T) {
	if got := ComputeEmployeeSummaries(nil, MonthFilter(2024, 3), ScopeFilter{}); len(got) != 0 {
		t.Errorf("expected no summaries, got %d", len(got))
	}
	if got := ComputeStoreSummaries(nil, MonthFilter(2024, 3), ScopeFilter{}); len(got) != 0 {
		t.Errorf("expected no store summaries, got %d", len(got))
	}
	if got := ComputeKPIs(nil, MonthFilter(2024, 3), ScopeFilter{}); got != (KPIData{}) {
		t.Errorf("expected zero KPIs, got %+v", got)
	}
}

func TestSalesSeries(t *testing.T) {
	d := testDataset()

	daily := SalesSeries(d, MonthFilter(2024, 3), ScopeFilter{})
	if len(daily) != 31 {
		t.Fatalf("expected 31 days, got %d", len(daily))
	}
	if daily[1].Value != 9000 {
		t.Errorf("expected 9000 on day 2, got %v", daily[1].Value)
	}
	if daily[2].Value != 0 {
		t.Errorf("expected zero-filled day 3, got %v", daily[2].Value)
	}

	monthly := SalesSeries(d, DateFilter{Year: 2024}, ScopeFilter{})
	if len(monthly) != 12 || monthly[2].Label != "Mar" {
		t.Fatalf("unexpected monthly series %+v", monthly)
	}
	if monthly[3].Value != 9999 {
		t.Errorf("expected April 9999, got %v", monthly[3].Value)
	}
}

func TestTopByAchievement(t *testing.T) {
	in := []EmployeeSummary{{Name: "a", Achievement: 10}, {Name: "b", Achievement: 90}, {Name: "c", Achievement: 50}}
	got := TopByAchievement(in, 2)
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Errorf("unexpected order %+v", got)
	}
	if in[0].Name != "a" {
		t.Error("input slice was reordered")
	}
}

func TestAchievementBand(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{120, "above"},
		{100, "above"},
		{99.9, "near"},
		{80, "near"},
		{79.9, "below"},
		{0, "below"},
	}
	for _, tt := range tests {
		if got := AchievementBand(tt.in); got != tt.want {
			t.Errorf("AchievementBand(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
