package analytics

import (
	"sort"
	"time"

	"retail-cockpit-api/internal/models"
)

// ProductQuantity is a product and the units sold of it
type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"sold_qty"`
}

// CategorySales is the sales of one merchandise category with a per-product tally
type CategorySales struct {
	Category   string         `json:"category"`
	TotalSales float64        `json:"total_sales"`
	Quantity   int            `json:"quantity"`
	Products   map[string]int `json:"products"`
}

// TopProducts returns up to n products ordered by quantity, ties broken by name
func (c CategorySales) TopProducts(n int) []ProductQuantity {
	return topProducts(c.Products, n)
}

func topProducts(tally map[string]int, n int) []ProductQuantity {
	out := make([]ProductQuantity, 0, len(tally))
	for name, qty := range tally {
		out = append(out, ProductQuantity{Name: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryBreakdown groups matching transactions by category. An empty seller
// includes every seller.
func CategoryBreakdown(d *models.RawDataset, f DateFilter, s ScopeFilter, seller string) []CategorySales {
	return categoryBreakdown(defaultClassifier, d, f, s, seller)
}

// CategoryBreakdown is the classifier-specific form of the package function
func (c *Classifier) CategoryBreakdown(d *models.RawDataset, f DateFilter, s ScopeFilter, seller string) []CategorySales {
	return categoryBreakdown(c, d, f, s, seller)
}

func categoryBreakdown(c *Classifier, d *models.RawDataset, f DateFilter, s ScopeFilter, seller string) []CategorySales {
	if d == nil {
		return []CategorySales{}
	}
	areas := d.StoreAreas()
	assigned := assignedStores(d)

	byCategory := make(map[string]*CategorySales)
	for _, tx := range d.Transactions {
		if tx == nil || !f.Matches(tx.BillDate) {
			continue
		}
		if seller != "" && tx.SellerName != seller {
			continue
		}
		if !s.Matches(txStore(tx, assigned), areas) {
			continue
		}

		category := c.Classify(tx.ItemName, tx.ItemAlias)
		entry, ok := byCategory[category]
		if !ok {
			entry = &CategorySales{Category: category, Products: make(map[string]int)}
			byCategory[category] = entry
		}
		entry.TotalSales += tx.Value()
		entry.Quantity += tx.Quantity
		entry.Products[tx.ItemName] += tx.Quantity
	}

	out := make([]CategorySales, 0, len(byCategory))
	for _, entry := range byCategory {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ProductSales is the value sold of a single product
type ProductSales struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Quantity   int     `json:"quantity"`
	TotalValue float64 `json:"total_value"`
}

// ProductSummary ranks products in the window by sales value
func ProductSummary(d *models.RawDataset, f DateFilter, s ScopeFilter, n int) []ProductSales {
	if d == nil {
		return []ProductSales{}
	}
	areas := d.StoreAreas()
	assigned := assignedStores(d)

	byName := make(map[string]*ProductSales)
	for _, tx := range d.Transactions {
		if tx == nil || !f.Matches(tx.BillDate) || !s.Matches(txStore(tx, assigned), areas) {
			continue
		}
		p, ok := byName[tx.ItemName]
		if !ok {
			p = &ProductSales{Name: tx.ItemName, Category: defaultClassifier.Classify(tx.ItemName, tx.ItemAlias)}
			byName[tx.ItemName] = p
		}
		p.Quantity += tx.Quantity
		p.TotalValue += tx.Value()
	}

	out := make([]ProductSales, 0, len(byName))
	for _, p := range byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SeriesPoint is one labelled value of a chart series
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SalesSeries returns sales per month when the filter spans a year, otherwise
// sales per day of the selected month. Periods without sales are zero.
func SalesSeries(d *models.RawDataset, f DateFilter, s ScopeFilter) []SeriesPoint {
	if f.Month.IsAll() {
		series := make([]SeriesPoint, 12)
		for i := range series {
			series[i].Label = time.Month(i + 1).String()[:3]
		}
		if d != nil {
			eachMetric(d, DateFilter{Year: f.Year}, s, func(m *models.DailyMetric) {
				series[int(m.Date.Month())-1].Value += m.TotalSales
			})
		}
		return series
	}

	days := models.DaysInMonth(f.Year, int(f.Month))
	series := make([]SeriesPoint, days)
	for i := range series {
		series[i].Label = Period(i + 1).String()
	}
	if d != nil {
		eachMetric(d, MonthFilter(f.Year, int(f.Month)), s, func(m *models.DailyMetric) {
			series[m.Date.Day()-1].Value += m.TotalSales
		})
	}
	return series
}

func eachMetric(d *models.RawDataset, f DateFilter, s ScopeFilter, fn func(*models.DailyMetric)) {
	areas := d.StoreAreas()
	assigned := assignedStores(d)
	for _, m := range d.DailyMetrics {
		if m == nil || !f.Matches(m.Date) || !s.Matches(metricStore(m, assigned), areas) {
			continue
		}
		fn(m)
	}
}

func assignedStores(d *models.RawDataset) map[string]string {
	assigned := make(map[string]string, len(d.Employees))
	for _, e := range d.Employees {
		if e != nil {
			assigned[e.Name] = e.Store
		}
	}
	return assigned
}
