// Package charts builds frontend-ready chart configurations from the merged
// monthly table. No drawing happens here: the JSON shapes below are consumed
// by the dashboard frontend as-is.
package charts

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// Unified colors for all charts.
const (
	ColorProgram = "#1f77b4" // program (DBU) bars
	ColorOther   = "#aec7e8" // residual weight bars
	ColorPrice   = "red"     // cost line and its axis
)

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries represents a data series in a chart. Bars with Stack set are
// stacked per label; lines may carry a stroke-dash pattern and point marks.
type ChartSeries struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"` // "bar" or "line"
	Stack      bool         `json:"stack,omitempty"`
	Color      string       `json:"color,omitempty"`
	Dash       []int        `json:"dash,omitempty"`
	ShowPoints bool         `json:"showPoints,omitempty"`
	YAxis      string       `json:"yAxis"` // "weight" (left) or "price" (right)
	Data       []ChartPoint `json:"data"`
}

// Annotation is a text label anchored above a bar stack.
type Annotation struct {
	Label string  `json:"label"` // x category the text sits on
	Y     float64 `json:"y"`     // anchor height (the stack top)
	Text  string  `json:"text"`
}

// ChartConfig defines how to render one chart. The weight axis is the left
// primary axis; the price axis is independent on the right.
type ChartConfig struct {
	Title       string        `json:"title"`
	XAxis       string        `json:"xAxis"`
	YAxisLeft   string        `json:"yAxisLeft"`
	YAxisRight  string        `json:"yAxisRight"`
	Labels      []string      `json:"labels"`
	Series      []ChartSeries `json:"series"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	ShowLegend  bool          `json:"showLegend"`
}

// BuildCombined renders the multi-month overview: stacked program/other
// weight bars, the dashed cost line on the independent right axis, and a
// bold ratio label above each stack. Labels are reshaped to "MM-YYYY" and
// rows ordered by (month, year), the display order the report has always
// used, even though it interleaves years inside a month.
func BuildCombined(rows []models.MergedRow) ChartConfig {
	ordered := make([]models.MergedRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Month != ordered[j].Month {
			return ordered[i].Month < ordered[j].Month
		}
		return ordered[i].Year < ordered[j].Year
	})

	labels := make([]string, 0, len(ordered))
	programPoints := make([]ChartPoint, 0, len(ordered))
	otherPoints := make([]ChartPoint, 0, len(ordered))
	pricePoints := make([]ChartPoint, 0, len(ordered))
	var annotations []Annotation

	for _, row := range ordered {
		label := fmt.Sprintf("%02d-%d", row.Month, row.Year)
		labels = append(labels, label)
		programPoints = append(programPoints, ChartPoint{Label: label, Value: roundTo2(row.TotalWeightProgram)})
		otherPoints = append(otherPoints, ChartPoint{Label: label, Value: roundTo2(row.TotalWeightAll.Sub(row.TotalWeightProgram))})
		pricePoints = append(pricePoints, ChartPoint{Label: label, Value: roundTo2(row.TotalPrice)})
		if a, ok := ratioAnnotation(label, row); ok {
			annotations = append(annotations, a)
		}
	}

	return ChartConfig{
		Title:       "Total Weight & Waste Cost (€)",
		XAxis:       "Month",
		YAxisLeft:   "Weight (kg)",
		YAxisRight:  "Total Price (€)",
		Labels:      labels,
		Series:      weightAndPriceSeries(programPoints, otherPoints, pricePoints, "Total Price (€)"),
		Annotations: annotations,
		ShowLegend:  true,
	}
}

// BuildMonth renders one month across years: the same stacked bars and
// dashed cost line, with the year as the category axis. Returns ok=false
// when the merged table has no rows for that month.
func BuildMonth(rows []models.MergedRow, month int) (ChartConfig, bool) {
	var filtered []models.MergedRow
	for _, row := range rows {
		if row.Month == month {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		return ChartConfig{}, false
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Year < filtered[j].Year
	})

	labels := make([]string, 0, len(filtered))
	programPoints := make([]ChartPoint, 0, len(filtered))
	otherPoints := make([]ChartPoint, 0, len(filtered))
	pricePoints := make([]ChartPoint, 0, len(filtered))
	var annotations []Annotation

	for _, row := range filtered {
		label := strconv.Itoa(row.Year)
		labels = append(labels, label)
		programPoints = append(programPoints, ChartPoint{Label: label, Value: roundTo2(row.TotalWeightProgram)})
		otherPoints = append(otherPoints, ChartPoint{Label: label, Value: roundTo2(row.TotalWeightAll.Sub(row.TotalWeightProgram))})
		pricePoints = append(pricePoints, ChartPoint{Label: label, Value: roundTo2(row.TotalPrice)})
		if a, ok := ratioAnnotation(label, row); ok {
			annotations = append(annotations, a)
		}
	}

	return ChartConfig{
		Title:       fmt.Sprintf("Month %d", month),
		XAxis:       "Year",
		YAxisLeft:   "Weight (kg)",
		YAxisRight:  "Price (€)",
		Labels:      labels,
		Series:      weightAndPriceSeries(programPoints, otherPoints, pricePoints, "Price (€)"),
		Annotations: annotations,
		ShowLegend:  false,
	}, true
}

// weightAndPriceSeries assembles the three series shared by both charts.
func weightAndPriceSeries(program, other, price []ChartPoint, priceName string) []ChartSeries {
	return []ChartSeries{
		{Name: "DBU Weight", Kind: "bar", Stack: true, Color: ColorProgram, YAxis: "weight", Data: program},
		{Name: "Other Weight", Kind: "bar", Stack: true, Color: ColorOther, YAxis: "weight", Data: other},
		{Name: priceName, Kind: "line", Color: ColorPrice, Dash: []int{5, 5}, ShowPoints: true, YAxis: "price", Data: price},
	}
}

// ratioAnnotation formats the "25.0%" label above a stack. Months with a
// null ratio (zero total weight) get no label.
func ratioAnnotation(label string, row models.MergedRow) (Annotation, bool) {
	if !row.RatioPercent.Valid {
		return Annotation{}, false
	}
	return Annotation{
		Label: label,
		Y:     roundTo2(row.TotalWeightAll),
		Text:  row.RatioPercent.Decimal.StringFixed(1) + "%",
	}, true
}

// roundTo2 downgrades a decimal to a display float with two decimals.
func roundTo2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
