package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order. Day-first and month-first forms are
// ambiguous for values like 03/04/2024; month-first wins.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"1.2.2006",
	"01.02.2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// Excel serial numbers in this range map to roughly 1954..2119
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// ParseDate parses loosely formatted date values from spreadsheets, feeds and
// documents. Results are normalised to UTC.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), nil
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 1e11 {
		return time.UnixMilli(ms).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// DateValue converts a decoded field of unknown type into a time.
// Document stores hand back strings, numbers or native timestamps.
func DateValue(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("empty date")
	case time.Time:
		if t.IsZero() {
			return time.Time{}, fmt.Errorf("empty date")
		}
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("empty date")
		}
		return DateValue(*t)
	case string:
		return ParseDate(t)
	case float64:
		return ParseDate(strconv.FormatFloat(t, 'f', -1, 64))
	case int64:
		return ParseDate(strconv.FormatInt(t, 10))
	case int:
		return ParseDate(strconv.Itoa(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// NumberValue converts a decoded field of unknown type into a float.
// Currency symbols and thousands separators are stripped from strings.
func NumberValue(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return ParseNumber(n)
	default:
		return 0, fmt.Errorf("unsupported number type %T", v)
	}
}

var numberReplacer = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "₹", "", " ", "")

// ParseNumber parses a numeric cell, treating blanks as zero
func ParseNumber(s string) (float64, error) {
	s = numberReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return 0, nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
