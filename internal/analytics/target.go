package analytics

import (
	"time"

	"retail-cockpit-api/internal/models"
)

// EffectiveTarget returns the target applicable to the filter's granularity.
//
// For a whole month each day contributes its override when one is configured and
// an equal share of the flat monthly amount otherwise, so the month total always
// equals the sum of its days. With no overrides this is exactly the flat amount.
// A month of "all" sums the months of the year. Missing targets count as zero.
func EffectiveTarget(targets models.Targets, f DateFilter) float64 {
	if len(targets) == 0 {
		return 0
	}
	if f.Month.IsAll() {
		total := 0.0
		for month := 1; month <= 12; month++ {
			if !f.Day.IsAll() && int(f.Day) > models.DaysInMonth(f.Year, month) {
				continue
			}
			total += EffectiveTarget(targets, DateFilter{Year: f.Year, Month: Period(month), Day: f.Day})
		}
		return total
	}

	target := targets.Get(f.Year, int(f.Month))
	if target == nil {
		return 0
	}

	days := models.DaysInMonth(f.Year, int(f.Month))
	if !f.Day.IsAll() {
		return dayTarget(target, int(f.Day), days)
	}
	if !target.HasOverrides() {
		return target.Amount
	}

	total := 0.0
	for day := 1; day <= days; day++ {
		total += dayTarget(target, day, days)
	}
	return total
}

func dayTarget(target *models.MonthlyTarget, day, daysInMonth int) float64 {
	if amount, ok := target.DailyOverrides[day]; ok {
		return amount
	}
	if daysInMonth == 0 {
		return 0
	}
	return target.Amount / float64(daysInMonth)
}

// Achievement returns sales as a percentage of target, or 0 without a target
func Achievement(sales, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return sales / target * 100
}

// DynamicTarget projects what an employee must sell per remaining day of the
// current month to reach the monthly target
type DynamicTarget struct {
	MonthlyTarget        float64 `json:"monthly_target"`
	SalesMTD             float64 `json:"sales_mtd"`
	RemainingTarget      float64 `json:"remaining_target"`
	RemainingDays        int     `json:"remaining_days"`
	RequiredDailyAverage float64 `json:"required_daily_average"`
	Achieved             bool    `json:"achieved"`
}

// ComputeDynamicTarget evaluates the projection for the month containing now,
// independently of any active date filter
func ComputeDynamicTarget(targets models.Targets, metrics []*models.DailyMetric, employee string, now time.Time) DynamicTarget {
	year, month, today := now.Date()
	monthly := EffectiveTarget(targets, MonthFilter(year, int(month)))

	salesMTD := 0.0
	for _, m := range metrics {
		if m == nil || m.Employee != employee || !m.HasDate() {
			continue
		}
		if m.Date.Year() == year && m.Date.Month() == month && m.Date.Day() <= today {
			salesMTD += m.TotalSales
		}
	}

	remaining := monthly - salesMTD
	remainingDays := models.DaysInMonth(year, int(month)) - today
	if remainingDays < 0 {
		remainingDays = 0
	}

	required := 0.0
	if remainingDays > 0 && remaining > 0 {
		required = remaining / float64(remainingDays)
	}

	return DynamicTarget{
		MonthlyTarget:        monthly,
		SalesMTD:             salesMTD,
		RemainingTarget:      remaining,
		RemainingDays:        remainingDays,
		RequiredDailyAverage: required,
		Achieved:             monthly > 0 && remaining <= 0,
	}
}
