package analytics

import (
	"math"

	"retail-cockpit-api/internal/models"
)

// Delta compares a current value with a previous one
type Delta struct {
	Current          float64 `json:"current"`
	Previous         float64 `json:"previous"`
	Difference       float64 `json:"difference"`
	PercentageChange float64 `json:"percentage_change"`
}

// Compare computes the signed difference and percentage change. A previous
// value of zero yields +100% when current is positive and 0% otherwise.
func Compare(current, previous float64) Delta {
	diff := current - previous
	var pct float64
	switch {
	case previous != 0:
		pct = diff / math.Abs(previous) * 100
	case current > 0:
		pct = 100
	}
	return Delta{
		Current:          current,
		Previous:         previous,
		Difference:       diff,
		PercentageChange: pct,
	}
}

// KPIComparison holds period-over-period deltas of the headline figures
type KPIComparison struct {
	Current      DateFilter `json:"current"`
	Previous     DateFilter `json:"previous"`
	Sales        Delta      `json:"sales"`
	Transactions Delta      `json:"transactions"`
	ATV          Delta      `json:"atv"`
	UPT          Delta      `json:"upt"`
}

// ComparePeriods compares the filtered window with the preceding one of the same size
func ComparePeriods(d *models.RawDataset, f DateFilter, s ScopeFilter) KPIComparison {
	prevFilter := f.PreviousPeriod()
	cur := ComputeKPIs(d, f, s)
	prev := ComputeKPIs(d, prevFilter, s)
	return KPIComparison{
		Current:      f,
		Previous:     prevFilter,
		Sales:        Compare(cur.TotalSales, prev.TotalSales),
		Transactions: Compare(float64(cur.TotalTransactions), float64(prev.TotalTransactions)),
		ATV:          Compare(cur.AverageTransactionValue, prev.AverageTransactionValue),
		UPT:          Compare(cur.UnitsPerTransaction, prev.UnitsPerTransaction),
	}
}

// Point is a coordinate in a chart's drawing space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sparkline drawing defaults
const (
	SparklineWidth   = 100.0
	SparklineHeight  = 30.0
	SparklinePadding = 2.0
)

// SparklinePoints normalises values into a width x height box with padding.
// The minimum maps to the bottom edge and the maximum to the top; a flat series
// sits on the bottom edge. Fewer than two values yield no points.
func SparklinePoints(values []float64, width, height, padding float64) []Point {
	if len(values) < 2 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	points := make([]Point, len(values))
	last := float64(len(values) - 1)
	for i, v := range values {
		points[i] = Point{
			X: float64(i)/last*(width-2*padding) + padding,
			Y: (height - padding) - ((v-lo)/span)*(height-2*padding),
		}
	}
	return points
}

// SparklineUpward reports whether the series ends above where it started
func SparklineUpward(values []float64) bool {
	return len(values) >= 2 && values[len(values)-1] > values[0]
}

// ClampPercent limits a percentage to the 0..100 range of a progress bar
func ClampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
