package analytics

import (
	"sort"
	"time"

	"retail-cockpit-api/internal/models"
)

const dayKeyLayout = "2006-01-02"

// Trend holds per-day ATV and UPT values for the days that have metrics.
// Days, ATV and UPT are parallel slices sorted by day.
type Trend struct {
	Days []string  `json:"days"`
	ATV  []float64 `json:"atv"`
	UPT  []float64 `json:"upt"`
}

// TrailingTrend computes the daily ATV and UPT of one employee over the window
// of windowDays ending at now. The window does not follow any date filter.
// Days without a metric record are omitted, and item counts from transactions
// are only attached to days that have one.
func TrailingTrend(metrics []*models.DailyMetric, transactions []*models.SalesTransaction, employee string, now time.Time, windowDays int) Trend {
	if windowDays <= 0 {
		windowDays = models.TrendWindowDays
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	byDay := make(map[string]*totals)
	for _, m := range metrics {
		if m == nil || m.Employee != employee || !m.HasDate() || m.Date.Before(cutoff) {
			continue
		}
		key := m.Date.UTC().Format(dayKeyLayout)
		t, ok := byDay[key]
		if !ok {
			t = &totals{}
			byDay[key] = t
		}
		t.sales += m.TotalSales
		t.transactions += m.TransactionCount
	}

	for _, tx := range transactions {
		if tx == nil || tx.SellerName != employee || !tx.HasDate() || tx.BillDate.Before(cutoff) {
			continue
		}
		if t, ok := byDay[tx.BillDate.UTC().Format(dayKeyLayout)]; ok {
			t.items += tx.Quantity
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	trend := Trend{
		Days: days,
		ATV:  make([]float64, len(days)),
		UPT:  make([]float64, len(days)),
	}
	for i, day := range days {
		t := byDay[day]
		trend.ATV[i] = ratio(t.sales, float64(t.transactions))
		trend.UPT[i] = ratio(float64(t.items), float64(t.transactions))
	}
	return trend
}
