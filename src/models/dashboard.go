package models

import "github.com/shopspring/decimal"

// DashboardMetrics holds the headline numbers shown next to the charts.
type DashboardMetrics struct {
	TotalMonths        int                 `json:"total_months"`
	TotalWeightProgram decimal.Decimal     `json:"total_weight_dbu"`
	TotalWeightAll     decimal.Decimal     `json:"total_weight_all"`
	AvgRatioPercent    decimal.NullDecimal `json:"avg_dbu_ratio"` // mean over months with a non-null ratio
	TotalPrice         decimal.Decimal     `json:"total_price"`
}
