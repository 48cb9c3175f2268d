package export

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"retail-cockpit-api/internal/adapters/storage"
	"retail-cockpit-api/internal/analytics"
	"retail-cockpit-api/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 10, 0, 0, 0, time.UTC)
}

func testDataset() *models.RawDataset {
	ali := models.NewEmployee("Ali", "Riyadh Mall")
	sara := models.NewEmployee("Sara", "Jeddah Park")
	ali.SetTarget(models.NewMonthlyTarget(ali.ID, 2024, 3, 10000))

	return &models.RawDataset{
		Employees: []*models.Employee{ali, sara},
		Stores: []*models.Store{
			models.NewStore("Riyadh Mall", "Central"),
			models.NewStore("Jeddah Park", "Western"),
		},
		DailyMetrics: []*models.DailyMetric{
			models.NewDailyMetric("Ali", "Riyadh Mall", day(1), 1234.567, 10),
			models.NewDailyMetric("Sara", "Jeddah Park", day(2), 800, 4),
		},
		Transactions: []*models.SalesTransaction{
			models.NewSalesTransaction("Ali", "Riyadh Mall", "King Size Duvet", 3, 300, day(1)),
			models.NewSalesTransaction("Sara", "Jeddah Park", "Bath Towel", 8, 25, day(2)),
		},
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func rawRows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", sheet, err)
	}
	return rows
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1234.567, 1234.57},
		{0.125, 0.13},
		{-2.345, -2.35},
		{10, 10},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.in, 'f', -1, 64), func(t *testing.T) {
			if got := Money(tt.in); got != tt.want {
				t.Errorf("Money(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2024, time.March, 20, 8, 30, 0, 0, time.UTC)
	r := BuildReport(testDataset(), analytics.MonthFilter(2024, 3), analytics.ScopeFilter{}, 10, now)

	data, err := Render(r)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetEmployees, SheetStores, SheetCategories, SheetProducts}
	got := f.GetSheetList()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("sheets = %v, want %v", got, want)
	}

	summary := rawRows(t, f, SheetSummary)
	if summary[0][0] != "Metric" || summary[1][1] != "2024-03" {
		t.Errorf("unexpected summary header rows: %v", summary[:2])
	}
	wantSales := strconv.FormatFloat(Money(r.KPIs.TotalSales), 'f', -1, 64)
	if summary[4][0] != "Total sales" || summary[4][1] != wantSales {
		t.Errorf("total sales row = %v, want value %s", summary[4], wantSales)
	}

	employees := rawRows(t, f, SheetEmployees)
	if len(employees) != 3 {
		t.Fatalf("expected header plus 2 employees, got %d rows", len(employees))
	}
	found := false
	for _, row := range employees[1:] {
		if row[0] == "Ali" {
			found = true
			if row[3] != "1234.57" {
				t.Errorf("Ali sales cell = %q, want rounded 1234.57", row[3])
			}
			if row[8] != "10000" {
				t.Errorf("Ali target cell = %q", row[8])
			}
		}
	}
	if !found {
		t.Error("Ali missing from employee sheet")
	}

	stores := rawRows(t, f, SheetStores)
	if len(stores) != 3 || stores[0][0] != "Store" {
		t.Errorf("unexpected store sheet: %v", stores)
	}

	products := rawRows(t, f, SheetProducts)
	if len(products) != 3 {
		t.Errorf("expected 2 products, got %v", products)
	}

	style, err := f.GetCellStyle(SheetEmployees, "A1")
	if err != nil || style == 0 {
		t.Errorf("header cell should be styled, got %d, %v", style, err)
	}
}

func TestExporter(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewMemoryFileStorage()
	e := NewExporter(fs, quietLogger())

	scope := analytics.ScopeFilter{Area: "Central"}
	first := BuildReport(testDataset(), analytics.MonthFilter(2024, 3), scope, 5, time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC))
	second := BuildReport(testDataset(), analytics.DayFilter(2024, 3, 2), analytics.ScopeFilter{}, 5, time.Date(2024, 3, 21, 8, 0, 0, 0, time.UTC))

	archive, data, err := e.Export(ctx, first)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if archive.Key != "exports/2024/kpi-202403-20240320T080000Z.xlsx" {
		t.Errorf("unexpected key %q", archive.Key)
	}
	if archive.URL != "memory://"+archive.Key {
		t.Errorf("unexpected url %q", archive.URL)
	}
	if archive.Size != int64(len(data)) || archive.Metadata["area"] != "Central" {
		t.Errorf("unexpected archive %+v", archive)
	}

	if _, _, err := e.Export(ctx, second); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	archives, err := e.ListArchives(ctx, 10)
	if err != nil {
		t.Fatalf("ListArchives() error = %v", err)
	}
	if len(archives) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(archives))
	}
	if archives[0].Metadata["period"] != "2024-03-02" {
		t.Errorf("newest archive should come first, got %+v", archives[0])
	}

	stored, err := e.Retrieve(ctx, archive.Key)
	if err != nil || !bytes.Equal(stored, data) {
		t.Errorf("Retrieve() returned different bytes, err = %v", err)
	}
	if _, err := e.Retrieve(ctx, "other/file.xlsx"); err == nil {
		t.Error("expected keys outside the export prefix to be rejected")
	}
}
