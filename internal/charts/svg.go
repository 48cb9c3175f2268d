// Package charts renders small dashboard charts as standalone SVG documents.
package charts

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"

	"retail-cockpit-api/internal/analytics"
)

// Palette is the slice colour cycle used by pie charts
var Palette = []string{"#f97316", "#3b82f6", "#6366f1", "#14b8a6", "#f59e0b", "#84cc16", "#ef4444", "#8b5cf6", "#ec4899", "#22d3ee"}

// SeriesColors maps well-known line series to colours
var SeriesColors = map[string]string{
	"Sales":  "#10b981",
	"Target": "#a78bfa",
}

const (
	upColor   = "#22c55e"
	downColor = "#ef4444"
	barColor  = "#f97316"
	textColor = "#3f3f46"
	axisColor = "#6b7280"
)

// Datum is a named value
type Datum struct {
	Name  string
	Value float64
}

// Series is a named sequence of values sharing the chart's labels
type Series struct {
	Name   string
	Values []float64
}

// Empty is returned for charts with nothing to draw
const Empty = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 40"><text x="100" y="24" text-anchor="middle" font-size="12" fill="#71717a">No data to display</text></svg>`

func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// FormatAxis renders a tick value with a k suffix from one thousand upward
func FormatAxis(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.0fk", v/1000)
	}
	return fmt.Sprintf("%.0f", v)
}

// Bar renders horizontal bars scaled to the largest value
func Bar(data []Datum, format func(float64) string) string {
	if format == nil {
		format = func(v float64) string { return num(v) }
	}
	maxValue := 0.0
	for _, d := range data {
		maxValue = math.Max(maxValue, d.Value)
	}
	if len(data) == 0 || maxValue == 0 {
		return Empty
	}

	const rowHeight, gap, width = 28.0, 8.0, 400.0
	height := float64(len(data))*(rowHeight+gap) - gap

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s">`, num(width), num(height))
	for i, d := range data {
		y := float64(i) * (rowHeight + gap)
		pct := math.Max(0, d.Value) / maxValue * 100
		fmt.Fprintf(&b, `<rect x="0" y="%s" width="%s" height="%s" rx="14" fill="#e5e7eb"/>`, num(y), num(width), num(rowHeight))
		fmt.Fprintf(&b, `<rect x="0" y="%s" width="%s" height="%s" rx="14" fill="%s"><title>%s: %s</title></rect>`,
			num(y), num(width*pct/100), num(rowHeight), barColor, html.EscapeString(d.Name), html.EscapeString(format(d.Value)))
		fmt.Fprintf(&b, `<text x="12" y="%s" font-size="12" fill="%s">%s</text>`, num(y+18), textColor, html.EscapeString(d.Name))
		fmt.Fprintf(&b, `<text x="%s" y="%s" font-size="12" text-anchor="end" fill="%s">%s</text>`,
			num(width-12), num(y+18), textColor, html.EscapeString(format(d.Value)))
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// BarWidths returns each bar's width as a percentage of the largest value
func BarWidths(data []Datum) []float64 {
	maxValue := 0.0
	for _, d := range data {
		maxValue = math.Max(maxValue, d.Value)
	}
	widths := make([]float64, len(data))
	if maxValue == 0 {
		return widths
	}
	for i, d := range data {
		widths[i] = math.Max(0, d.Value) / maxValue * 100
	}
	return widths
}

// Slice describes one pie segment
type Slice struct {
	Name    string
	Percent float64
	Path    string
	Color   string
}

// PieSlices lays out arcs of radius 40 centred on (50,50), clockwise from 3 o'clock
func PieSlices(data []Datum) []Slice {
	total := 0.0
	for _, d := range data {
		if d.Value > 0 {
			total += d.Value
		}
	}
	if total == 0 {
		return nil
	}

	coords := func(angle float64) (float64, float64) {
		return 50 + 40*math.Cos(angle), 50 + 40*math.Sin(angle)
	}

	slices := make([]Slice, 0, len(data))
	cumulative := 0.0
	for i, d := range data {
		if d.Value <= 0 {
			continue
		}
		angle := d.Value / total * 2 * math.Pi
		startX, startY := coords(cumulative)
		cumulative += angle
		endX, endY := coords(cumulative)

		var path string
		if d.Value == total {
			path = "M 10,50 A 40,40 0 1,1 90,50 A 40,40 0 1,1 10,50 z"
		} else {
			largeArc := 0
			if angle > math.Pi {
				largeArc = 1
			}
			path = fmt.Sprintf("M 50,50 L %s,%s A 40,40 0 %d,1 %s,%s z", num(startX), num(startY), largeArc, num(endX), num(endY))
		}

		slices = append(slices, Slice{
			Name:    d.Name,
			Percent: d.Value / total * 100,
			Path:    path,
			Color:   Palette[i%len(Palette)],
		})
	}
	return slices
}

// Pie renders a pie chart with a percentage tooltip per slice
func Pie(data []Datum) string {
	slices := PieSlices(data)
	if len(slices) == 0 {
		return Empty
	}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">`)
	for _, s := range slices {
		fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="#fff" stroke-width="0.5"><title>%s: %.1f%%</title></path>`,
			s.Path, s.Color, html.EscapeString(s.Name), s.Percent)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// Line chart geometry
const (
	lineWidth  = 600.0
	lineHeight = 250.0
	padTop     = 10.0
	padRight   = 20.0
	padBottom  = 30.0
	padLeft    = 40.0
	yTickCount = 5
)

// LinePath returns the SVG path of a series scaled to maxVal, or "" for fewer than two points
func LinePath(values []float64, maxVal float64) string {
	if len(values) < 2 {
		return ""
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	step := (lineWidth - padLeft - padRight) / float64(len(values)-1)
	points := make([]string, len(values))
	for i, v := range values {
		x := padLeft + float64(i)*step
		y := lineHeight - padBottom - (v/maxVal)*(lineHeight-padTop-padBottom)
		points[i] = num(x) + "," + num(y)
	}
	return "M " + strings.Join(points, " L ")
}

// Line renders one or more series over shared x labels with a five-tick y axis
func Line(labels []string, series []Series) string {
	if len(labels) == 0 || len(series) == 0 {
		return Empty
	}

	maxVal := 1.0
	for _, s := range series {
		for _, v := range s.Values {
			maxVal = math.Max(maxVal, v)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s">`, num(lineWidth), num(lineHeight))

	for i := 0; i < yTickCount; i++ {
		y := lineHeight - padBottom - float64(i)*(lineHeight-padTop-padBottom)/(yTickCount-1)
		val := maxVal / (yTickCount - 1) * float64(i)
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="end" font-size="10" fill="%s">%s</text>`,
			num(padLeft-8), num(y+4), axisColor, FormatAxis(val))
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-opacity="0.2" stroke-dasharray="2 2"/>`,
			num(padLeft), num(y), num(lineWidth-padRight), num(y), axisColor)
	}

	if len(labels) > 1 {
		step := (lineWidth - padLeft - padRight) / float64(len(labels)-1)
		for i, label := range labels {
			fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%s</text>`,
				num(padLeft+float64(i)*step), num(lineHeight-padBottom+15), axisColor, html.EscapeString(label))
		}
	}

	names := make([]string, 0, len(series))
	byName := make(map[string]Series, len(series))
	for _, s := range series {
		names = append(names, s.Name)
		byName[s.Name] = s
	}
	sort.Strings(names)
	for i, name := range names {
		color, ok := SeriesColors[name]
		if !ok {
			color = Palette[i%len(Palette)]
		}
		if path := LinePath(byName[name].Values, maxVal); path != "" {
			fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, path, color)
		}
	}

	b.WriteString(`</svg>`)
	return b.String()
}

// LineFromSeries adapts an analytics sales series into a single "Sales" line
func LineFromSeries(points []analytics.SeriesPoint) string {
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Label
		values[i] = p.Value
	}
	return Line(labels, []Series{{Name: "Sales", Values: values}})
}

// Sparkline renders a 100x30 polyline, green when the series ends higher than it started
func Sparkline(values []float64) string {
	points := analytics.SparklinePoints(values, analytics.SparklineWidth, analytics.SparklineHeight, analytics.SparklinePadding)
	if len(points) == 0 {
		return Empty
	}
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = num(p.X) + "," + num(p.Y)
	}
	color := downColor
	if analytics.SparklineUpward(values) {
		color = upColor
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s"><polyline fill="none" stroke="%s" stroke-width="2" points="%s"/></svg>`,
		num(analytics.SparklineWidth), num(analytics.SparklineHeight), color, strings.Join(coords, " "))
}
