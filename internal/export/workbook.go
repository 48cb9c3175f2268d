package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary    = "Summary"
	SheetEmployees  = "Employees"
	SheetStores     = "Stores"
	SheetCategories = "Categories"
	SheetProducts   = "Top Products"
)

type styles struct {
	header  int
	money   int
	percent int
}

// Workbook builds the XLSX file for r. The caller must Close it.
func Workbook(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}

	builders := []func(*excelize.File, *Report, styles) error{
		writeSummary,
		writeEmployees,
		writeStores,
		writeCategories,
		writeProducts,
	}
	for _, build := range builders {
		if err := build(f, r, st); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Render returns the workbook bytes
func Render(r *Report) ([]byte, error) {
	f, err := Workbook(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}

	moneyFmt := "#,##0.00"
	if st.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return st, fmt.Errorf("failed to create money style: %w", err)
	}

	percentFmt := "0.0\"%\""
	if st.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt}); err != nil {
		return st, fmt.Errorf("failed to create percent style: %w", err)
	}
	return st, nil
}

// table writes a header row and data rows starting at A1 of sheet.
// Column kinds select the cell style: "money", "percent" or "" for none.
type table struct {
	sheet   string
	headers []string
	kinds   []string
	widths  []float64
	rows    [][]interface{}
}

func (t table) write(f *excelize.File, st styles) error {
	if t.sheet != SheetSummary {
		if _, err := f.NewSheet(t.sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.sheet, err)
		}
	}

	for col, h := range t.headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(t.sheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(t.sheet, 1, 1, st.header); err != nil {
		return err
	}

	for i, row := range t.rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(t.sheet, cell, v); err != nil {
				return err
			}
		}
	}

	for col := range t.headers {
		name, _ := excelize.ColumnNumberToName(col + 1)
		width := 14.0
		if col < len(t.widths) && t.widths[col] > 0 {
			width = t.widths[col]
		}
		if err := f.SetColWidth(t.sheet, name, name, width); err != nil {
			return err
		}

		if len(t.rows) == 0 || col >= len(t.kinds) {
			continue
		}
		style := 0
		switch t.kinds[col] {
		case "money":
			style = st.money
		case "percent":
			style = st.percent
		}
		if style != 0 {
			top, _ := excelize.CoordinatesToCellName(col+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(col+1, len(t.rows)+1)
			if err := f.SetCellStyle(t.sheet, top, bottom, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func scopeLabel(r *Report) string {
	var parts []string
	if r.Scope.Area != "" {
		parts = append(parts, "area "+r.Scope.Area)
	}
	if len(r.Scope.Stores) > 0 {
		parts = append(parts, "stores "+strings.Join(r.Scope.Stores, ", "))
	}
	if len(parts) == 0 {
		return "all stores"
	}
	return strings.Join(parts, "; ")
}

func writeSummary(f *excelize.File, r *Report, st styles) error {
	k := r.KPIs
	c := r.Comparison
	return table{
		sheet:   SheetSummary,
		headers: []string{"Metric", "Value", "Previous", "Change %"},
		kinds:   []string{"", "money", "money", "percent"},
		widths:  []float64{28, 16, 16, 12},
		rows: [][]interface{}{
			{"Period", r.Filter.String(), c.Previous.String(), ""},
			{"Scope", scopeLabel(r), "", ""},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04 UTC"), "", ""},
			{"Total sales", Money(k.TotalSales), Money(c.Sales.Previous), Percent(c.Sales.PercentageChange)},
			{"Transactions", k.TotalTransactions, c.Transactions.Previous, Percent(c.Transactions.PercentageChange)},
			{"Average transaction value", Money(k.AverageTransactionValue), Money(c.ATV.Previous), Percent(c.ATV.PercentageChange)},
			{"Items sold", k.TotalItemsSold, "", ""},
			{"Units per transaction", Money(k.UnitsPerTransaction), Money(c.UPT.Previous), Percent(c.UPT.PercentageChange)},
			{"Footfall", k.TotalFootfall, "", ""},
			{"Conversion rate %", Percent(k.ConversionRate), "", ""},
			{"Sales per visitor", Money(k.SalesPerVisitor), "", ""},
		},
	}.write(f, st)
}

func writeEmployees(f *excelize.File, r *Report, st styles) error {
	rows := make([][]interface{}, 0, len(r.Employees))
	for _, e := range r.Employees {
		rows = append(rows, []interface{}{
			e.Name, e.Store, e.Area,
			Money(e.TotalSales), e.TotalTransactions, Money(e.ATV),
			e.TotalItemsSold, Money(e.AvgItemsPerBill),
			Money(e.EffectiveTarget), Percent(e.Achievement), Percent(e.ContributionPercentage), e.Band,
		})
	}
	return table{
		sheet: SheetEmployees,
		headers: []string{
			"Employee", "Store", "Area", "Sales", "Transactions", "ATV",
			"Items", "UPT", "Target", "Achievement %", "Contribution %", "Band",
		},
		kinds:  []string{"", "", "", "money", "", "money", "", "money", "money", "percent", "percent", ""},
		widths: []float64{24, 20, 14},
		rows:   rows,
	}.write(f, st)
}

func writeStores(f *excelize.File, r *Report, st styles) error {
	rows := make([][]interface{}, 0, len(r.Stores))
	for _, s := range r.Stores {
		rows = append(rows, []interface{}{
			s.Name, s.Area, Money(s.TotalSales), s.TransactionCount, Money(s.ATV),
			s.TotalItemsSold, Money(s.UPT), s.Footfall, Percent(s.ConversionRate),
			Money(s.EffectiveTarget), Percent(s.TargetAchievement), s.EmployeeCount,
		})
	}
	return table{
		sheet: SheetStores,
		headers: []string{
			"Store", "Area", "Sales", "Transactions", "ATV", "Items", "UPT",
			"Footfall", "Conversion %", "Target", "Achievement %", "Employees",
		},
		kinds:  []string{"", "", "money", "", "money", "", "money", "", "percent", "money", "percent", ""},
		widths: []float64{24, 14},
		rows:   rows,
	}.write(f, st)
}

func writeCategories(f *excelize.File, r *Report, st styles) error {
	rows := make([][]interface{}, 0, len(r.Categories))
	for _, c := range r.Categories {
		var top []string
		for _, p := range c.TopProducts(3) {
			top = append(top, fmt.Sprintf("%s (%d)", p.Name, p.Quantity))
		}
		rows = append(rows, []interface{}{c.Category, Money(c.TotalSales), c.Quantity, strings.Join(top, ", ")})
	}
	return table{
		sheet:   SheetCategories,
		headers: []string{"Category", "Sales", "Units", "Top products"},
		kinds:   []string{"", "money", "", ""},
		widths:  []float64{18, 14, 10, 60},
		rows:    rows,
	}.write(f, st)
}

func writeProducts(f *excelize.File, r *Report, st styles) error {
	rows := make([][]interface{}, 0, len(r.Products))
	for _, p := range r.Products {
		rows = append(rows, []interface{}{p.Name, p.Category, p.Quantity, Money(p.TotalValue)})
	}
	return table{
		sheet:   SheetProducts,
		headers: []string{"Product", "Category", "Units", "Sales"},
		kinds:   []string{"", "", "", "money"},
		widths:  []float64{36, 18},
		rows:    rows,
	}.write(f, st)
}
