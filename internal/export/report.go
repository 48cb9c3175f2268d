// Package export renders dashboard summaries as Excel workbooks and archives them.
package export

import (
	"time"

	"retail-cockpit-api/internal/analytics"
	"retail-cockpit-api/internal/models"

	"github.com/shopspring/decimal"
)

// Report is the content of one exported workbook
type Report struct {
	Filter      analytics.DateFilter
	Scope       analytics.ScopeFilter
	KPIs        analytics.KPIData
	Comparison  analytics.KPIComparison
	Employees   []analytics.EmployeeSummary
	Stores      []analytics.StoreSummary
	Categories  []analytics.CategorySales
	Products    []analytics.ProductSales
	GeneratedAt time.Time
}

// BuildReport runs the aggregations for one filter
func BuildReport(d *models.RawDataset, f analytics.DateFilter, s analytics.ScopeFilter, topProducts int, now time.Time) *Report {
	return &Report{
		Filter:      f,
		Scope:       s,
		KPIs:        analytics.ComputeKPIs(d, f, s),
		Comparison:  analytics.ComparePeriods(d, f, s),
		Employees:   analytics.ComputeEmployeeSummaries(d, f, s),
		Stores:      analytics.ComputeStoreSummaries(d, f, s),
		Categories:  analytics.CategoryBreakdown(d, f, s, ""),
		Products:    analytics.ProductSummary(d, f, s, topProducts),
		GeneratedAt: now.UTC(),
	}
}

// Money rounds a currency amount half away from zero to two decimals
func Money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Percent rounds a percentage to one decimal
func Percent(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
