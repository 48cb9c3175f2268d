package recordstore

import (
	"fmt"
	"strconv"
	"strings"

	"retail-cockpit-api/internal/importer"
	"retail-cockpit-api/internal/models"
)

// employeeDoc is an employee document. Targets are keyed "YYYY-MM" and hold
// either a flat amount or {"amount": n, "daily": {"15": n}}.
type employeeDoc struct {
	Name    string                 `firestore:"name"`
	Store   string                 `firestore:"store"`
	Status  string                 `firestore:"status"`
	Targets map[string]interface{} `firestore:"targets"`
}

type storeDoc struct {
	Name string `firestore:"name"`
	Area string `firestore:"area"`
}

type metricDoc struct {
	Employee         string      `firestore:"employee"`
	Store            string      `firestore:"store"`
	Date             interface{} `firestore:"date"`
	TotalSales       interface{} `firestore:"totalSales"`
	TransactionCount interface{} `firestore:"transactionCount"`
	Footfall         interface{} `firestore:"footfall"`
}

// transactionDoc mirrors the POS export column names
type transactionDoc struct {
	SellerName string      `firestore:"SalesMan Name"`
	StoreName  string      `firestore:"Outlet Name"`
	ItemName   string      `firestore:"Item Name"`
	ItemAlias  string      `firestore:"Item Alias"`
	Quantity   interface{} `firestore:"Sold Qty"`
	Rate       interface{} `firestore:"Item Rate"`
	BillDate   interface{} `firestore:"Bill Dt."`
}

func decodeEmployee(id string, doc employeeDoc) (*models.Employee, error) {
	e := models.NewEmployee(doc.Name, doc.Store)
	e.ID = id
	if strings.EqualFold(doc.Status, string(models.EmployeeStatusInactive)) {
		e.Status = models.EmployeeStatusInactive
	}

	targets, err := decodeTargets(id, doc.Targets)
	if err != nil {
		return nil, fmt.Errorf("employee %s: %w", id, err)
	}
	e.Targets = targets
	return e, nil
}

func decodeTargets(employeeID string, raw map[string]interface{}) (models.Targets, error) {
	targets := make(models.Targets, len(raw))
	for key, value := range raw {
		ym, err := models.ParseYearMonth(key)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", key, err)
		}
		target := models.NewMonthlyTarget(employeeID, ym.Year, int(ym.Month), 0)

		switch v := value.(type) {
		case map[string]interface{}:
			if target.Amount, err = importer.NumberValue(v["amount"]); err != nil {
				return nil, fmt.Errorf("target %q amount: %w", key, err)
			}
			daily, _ := v["daily"].(map[string]interface{})
			for dayKey, amount := range daily {
				day, err := strconv.Atoi(dayKey)
				if err != nil {
					return nil, fmt.Errorf("target %q day %q: %w", key, dayKey, err)
				}
				n, err := importer.NumberValue(amount)
				if err != nil {
					return nil, fmt.Errorf("target %q day %d: %w", key, day, err)
				}
				target.SetOverride(day, n)
			}
		default:
			if target.Amount, err = importer.NumberValue(v); err != nil {
				return nil, fmt.Errorf("target %q: %w", key, err)
			}
		}

		if err := target.Validate(); err != nil {
			return nil, fmt.Errorf("target %q: %w", key, err)
		}
		targets.Set(target)
	}
	return targets, nil
}

func decodeStore(id string, doc storeDoc) *models.Store {
	s := models.NewStore(doc.Name, doc.Area)
	s.ID = id
	return s
}

// decodeMetric returns the metric even when the date is unusable; the
// aggregator skips undated records.
func decodeMetric(id string, doc metricDoc) (*models.DailyMetric, error) {
	sales, err := importer.NumberValue(doc.TotalSales)
	if err != nil {
		return nil, fmt.Errorf("metric %s totalSales: %w", id, err)
	}
	count, err := importer.NumberValue(doc.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("metric %s transactionCount: %w", id, err)
	}

	date, _ := importer.DateValue(doc.Date)
	m := models.NewDailyMetric(doc.Employee, doc.Store, date, sales, int(count))
	m.ID = id

	if doc.Footfall != nil {
		footfall, err := importer.NumberValue(doc.Footfall)
		if err != nil {
			return nil, fmt.Errorf("metric %s footfall: %w", id, err)
		}
		n := int(footfall)
		m.Footfall = &n
	}
	return m, nil
}

func decodeTransaction(id string, doc transactionDoc, source models.TransactionSource) (*models.SalesTransaction, error) {
	qty, err := importer.NumberValue(doc.Quantity)
	if err != nil {
		return nil, fmt.Errorf("transaction %s quantity: %w", id, err)
	}
	rate, err := importer.NumberValue(doc.Rate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s rate: %w", id, err)
	}

	billDate, _ := importer.DateValue(doc.BillDate)
	tx := models.NewSalesTransaction(doc.SellerName, doc.StoreName, doc.ItemName, int(qty), rate, billDate)
	tx.ID = id
	tx.ItemAlias = models.SanitizeString(doc.ItemAlias)
	tx.Source = source
	return tx, nil
}
