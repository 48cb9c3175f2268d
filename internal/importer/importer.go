package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Kind selects which record type a file contains
type Kind string

const (
	KindMetrics      Kind = "metrics"
	KindTransactions Kind = "transactions"
)

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMetrics, KindTransactions:
		return k, nil
	}
	return "", fmt.Errorf("unknown import kind %q (want metrics or transactions)", s)
}

// Format is the encoding of an import file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown import format %q (want csv or json)", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to CSV
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// Options control a single import run
type Options struct {
	Format Format
	DryRun bool
	// Source is recorded on transactions whose row carries no source column
	Source models.TransactionSource
}

// RowError describes a rejected row. Row is 1-based and counts the CSV header line.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result summarises an import run
type Result struct {
	Kind     Kind              `json:"kind"`
	DryRun   bool              `json:"dry_run"`
	Total    int               `json:"total"`
	Valid    int               `json:"valid"`
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Errors   []RowError        `json:"errors"`
	Resolved map[string]string `json:"resolved,omitempty"`
}

func (r *Result) reject(row int, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Row: row, Reason: reason})
}

// Importer loads daily metrics and sales transactions from CSV or JSON files
type Importer struct {
	repos  repositories.Repositories
	logger *logrus.Logger
}

// NewImporter creates an importer writing through the given repositories
func NewImporter(repos repositories.Repositories, logger *logrus.Logger) *Importer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Importer{repos: repos, logger: logger}
}

// Import dispatches on kind
func (i *Importer) Import(ctx context.Context, kind Kind, r io.Reader, opts Options) (*Result, error) {
	switch kind {
	case KindMetrics:
		return i.ImportMetrics(ctx, r, opts)
	case KindTransactions:
		return i.ImportTransactions(ctx, r, opts)
	}
	return nil, fmt.Errorf("unknown import kind %q", kind)
}

// ImportMetrics imports daily metric rows. Invalid rows are reported and skipped;
// the valid rows are written in one batch.
func (i *Importer) ImportMetrics(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	rows, err := readRecords(r, opts.Format, metricAliases)
	if err != nil {
		return nil, err
	}
	if err := rows.require(fieldEmployee, fieldDate); err != nil {
		return nil, err
	}

	resolver, err := i.newResolver(ctx)
	if err != nil {
		return nil, err
	}

	result := newResult(KindMetrics, opts)
	valid := make([]*models.DailyMetric, 0, len(rows.records))

	for _, rec := range rows.records {
		result.Total++

		metric, err := i.buildMetric(rec, resolver, result)
		if err != nil {
			i.logger.WithError(err).WithField("row", rec.row).Debug("Skipping metric row")
			result.reject(rec.row, err.Error())
			continue
		}
		valid = append(valid, metric)
	}
	result.Valid = len(valid)

	if !opts.DryRun && len(valid) > 0 {
		n, err := i.repos.DailyMetrics().CreateBatch(ctx, valid)
		if err != nil {
			return result, fmt.Errorf("failed to store metrics: %w", err)
		}
		result.Imported = n
	}

	i.logResult(result)
	return result, nil
}

func (i *Importer) buildMetric(rec record, resolver *sellerResolver, result *Result) (*models.DailyMetric, error) {
	date, err := DateValue(rec.values[fieldDate])
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	sales, err := NumberValue(rec.values[fieldTotalSales])
	if err != nil {
		return nil, fmt.Errorf("total sales: %w", err)
	}
	count, err := intValue(rec.values[fieldTransactionCount])
	if err != nil {
		return nil, fmt.Errorf("transaction count: %w", err)
	}

	employee, store := resolver.resolve(stringValue(rec.values[fieldEmployee]), result)
	if s := stringValue(rec.values[fieldStore]); s != "" {
		store = s
	}

	metric := models.NewDailyMetric(employee, store, date, sales, count)
	if raw, ok := rec.values[fieldFootfall]; ok && stringValue(raw) != "" {
		footfall, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf("footfall: %w", err)
		}
		metric.Footfall = &footfall
	}

	if err := metric.Validate(); err != nil {
		return nil, err
	}
	return metric, nil
}

// ImportTransactions imports point-of-sale line items
func (i *Importer) ImportTransactions(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	rows, err := readRecords(r, opts.Format, transactionAliases)
	if err != nil {
		return nil, err
	}
	if err := rows.require(fieldSeller, fieldBillDate); err != nil {
		return nil, err
	}
	if !rows.has(fieldItemName) && !rows.has(fieldItemAlias) {
		return nil, fmt.Errorf("missing required column: item name or item alias")
	}

	resolver, err := i.newResolver(ctx)
	if err != nil {
		return nil, err
	}

	source := opts.Source
	if source == "" {
		source = models.TransactionSourceImport
	}

	result := newResult(KindTransactions, opts)
	valid := make([]*models.SalesTransaction, 0, len(rows.records))

	for _, rec := range rows.records {
		result.Total++

		tx, err := i.buildTransaction(rec, resolver, source, result)
		if err != nil {
			i.logger.WithError(err).WithField("row", rec.row).Debug("Skipping transaction row")
			result.reject(rec.row, err.Error())
			continue
		}
		valid = append(valid, tx)
	}
	result.Valid = len(valid)

	if !opts.DryRun && len(valid) > 0 {
		n, err := i.repos.SalesTransactions().CreateBatch(ctx, valid)
		if err != nil {
			return result, fmt.Errorf("failed to store transactions: %w", err)
		}
		result.Imported = n
	}

	i.logResult(result)
	return result, nil
}

func (i *Importer) buildTransaction(rec record, resolver *sellerResolver, source models.TransactionSource, result *Result) (*models.SalesTransaction, error) {
	billDate, err := DateValue(rec.values[fieldBillDate])
	if err != nil {
		return nil, fmt.Errorf("bill date: %w", err)
	}
	qty, err := intValue(rec.values[fieldQuantity])
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	rate, err := NumberValue(rec.values[fieldRate])
	if err != nil {
		return nil, fmt.Errorf("rate: %w", err)
	}

	seller, store := resolver.resolve(stringValue(rec.values[fieldSeller]), result)
	if s := stringValue(rec.values[fieldStore]); s != "" {
		store = s
	}

	tx := models.NewSalesTransaction(seller, store, stringValue(rec.values[fieldItemName]), qty, rate, billDate)
	tx.ItemAlias = models.SanitizeString(stringValue(rec.values[fieldItemAlias]))
	tx.Source = source
	if s := stringValue(rec.values[fieldSource]); s != "" {
		tx.Source = models.TransactionSource(strings.ToLower(s))
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func newResult(kind Kind, opts Options) *Result {
	return &Result{
		Kind:     kind,
		DryRun:   opts.DryRun,
		Errors:   make([]RowError, 0),
		Resolved: make(map[string]string),
	}
}

func (i *Importer) logResult(result *Result) {
	i.logger.WithFields(logrus.Fields{
		"kind":     result.Kind,
		"total":    result.Total,
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"resolved": len(result.Resolved),
		"dry_run":  result.DryRun,
	}).Info("Import completed")
}

func (i *Importer) newResolver(ctx context.Context) (*sellerResolver, error) {
	employees, err := i.repos.Employees().List(ctx, models.SearchFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	return newSellerResolver(employees), nil
}

// Canonical field names
const (
	fieldEmployee         = "employee"
	fieldStore            = "store"
	fieldDate             = "date"
	fieldTotalSales       = "total_sales"
	fieldTransactionCount = "transaction_count"
	fieldFootfall         = "footfall"

	fieldSeller    = "seller"
	fieldItemName  = "item_name"
	fieldItemAlias = "item_alias"
	fieldQuantity  = "quantity"
	fieldRate      = "rate"
	fieldBillDate  = "bill_date"
	fieldSource    = "source"
)

// Header aliases, matched after normalizeHeader
var metricAliases = map[string]string{
	"employee":          fieldEmployee,
	"employee name":     fieldEmployee,
	"salesman":          fieldEmployee,
	"salesman name":     fieldEmployee,
	"seller":            fieldEmployee,
	"store":             fieldStore,
	"store name":        fieldStore,
	"outlet":            fieldStore,
	"outlet name":       fieldStore,
	"date":              fieldDate,
	"day":               fieldDate,
	"bill dt.":          fieldDate,
	"total sales":       fieldTotalSales,
	"totalsales":        fieldTotalSales,
	"sales":             fieldTotalSales,
	"amount":            fieldTotalSales,
	"transaction count": fieldTransactionCount,
	"transactioncount":  fieldTransactionCount,
	"transactions":      fieldTransactionCount,
	"bills":             fieldTransactionCount,
	"footfall":          fieldFootfall,
	"visitors":          fieldFootfall,
}

var transactionAliases = map[string]string{
	"salesman name": fieldSeller,
	"salesman":      fieldSeller,
	"seller":        fieldSeller,
	"seller name":   fieldSeller,
	"sellername":    fieldSeller,
	"employee":      fieldSeller,
	"outlet name":   fieldStore,
	"outlet":        fieldStore,
	"store":         fieldStore,
	"store name":    fieldStore,
	"storename":     fieldStore,
	"item name":     fieldItemName,
	"itemname":      fieldItemName,
	"item":          fieldItemName,
	"product":       fieldItemName,
	"item alias":    fieldItemAlias,
	"itemalias":     fieldItemAlias,
	"alias":         fieldItemAlias,
	"sold qty":      fieldQuantity,
	"soldqty":       fieldQuantity,
	"quantity":      fieldQuantity,
	"qty":           fieldQuantity,
	"item rate":     fieldRate,
	"itemrate":      fieldRate,
	"rate":          fieldRate,
	"unit price":    fieldRate,
	"price":         fieldRate,
	"bill dt.":      fieldBillDate,
	"bill dt":       fieldBillDate,
	"bill date":     fieldBillDate,
	"billdate":      fieldBillDate,
	"date":          fieldBillDate,
	"source":        fieldSource,
}

// normalizeHeader lowercases a header cell and strips spreadsheet artifacts
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	if strings.HasPrefix(h, "=\"") && strings.HasSuffix(h, "\"") {
		h = h[2 : len(h)-1]
	}
	h = strings.Trim(h, `"'`)
	h = strings.ReplaceAll(h, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

type record struct {
	row    int
	values map[string]interface{}
}

type recordSet struct {
	columns map[string]bool
	records []record
}

func (s *recordSet) has(field string) bool {
	return s.columns[field]
}

func (s *recordSet) require(fields ...string) error {
	var missing []string
	for _, f := range fields {
		if !s.has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func readRecords(r io.Reader, format Format, aliases map[string]string) (*recordSet, error) {
	switch format {
	case FormatJSON:
		return readJSON(r, aliases)
	case FormatCSV, "":
		return readCSV(r, aliases)
	}
	return nil, fmt.Errorf("unknown import format %q", format)
}

func readCSV(r io.Reader, aliases map[string]string) (*recordSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	set := &recordSet{columns: make(map[string]bool)}
	index := make(map[int]string, len(header))
	for pos, h := range header {
		if field, ok := aliases[normalizeHeader(h)]; ok && !set.columns[field] {
			index[pos] = field
			set.columns[field] = true
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blankRow(row) {
			continue
		}

		values := make(map[string]interface{}, len(index))
		for pos, field := range index {
			if pos < len(row) {
				values[field] = strings.TrimSpace(row[pos])
			}
		}
		set.records = append(set.records, record{row: line, values: values})
	}
	return set, nil
}

func readJSON(r io.Reader, aliases map[string]string) (*recordSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		// Accept a single wrapping object such as {"records": [...]}
		var wrapped map[string][]map[string]interface{}
		if werr := json.Unmarshal(data, &wrapped); werr != nil || len(wrapped) != 1 {
			return nil, fmt.Errorf("invalid JSON: expected an array of objects: %w", err)
		}
		for _, v := range wrapped {
			items = v
		}
	}

	set := &recordSet{columns: make(map[string]bool)}
	for n, item := range items {
		values := make(map[string]interface{}, len(item))
		for key, v := range item {
			if field, ok := aliases[normalizeHeader(key)]; ok {
				if _, dup := values[field]; !dup {
					values[field] = v
				}
				set.columns[field] = true
			}
		}
		set.records = append(set.records, record{row: n + 1, values: values})
	}
	return set, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// intValue accepts whole numbers, including "3.0" from spreadsheet exports
func intValue(v interface{}) (int, error) {
	f, err := NumberValue(v)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("expected a whole number, got %v", f)
	}
	return int(f), nil
}
