package processors

import (
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// PriceProcessor reduces the daily price table to monthly totals.
type PriceProcessor interface {
	AggregateMonthly(records []models.DailyPriceRecord) []models.MonthlyPrice
}

// WeightProcessor unifies the two weight sources into one ledger and
// summarizes it by (year, month, transporter).
type WeightProcessor interface {
	Unify(general, program []models.WeightRecord) []models.WeightRecord
	SummarizeMonthly(ledger []models.WeightRecord) ([]models.MonthlyTransporterSummary, error)
}

// ShareProcessor computes the program's share of each month's total weight.
type ShareProcessor interface {
	ComputeShares(summary []models.MonthlyTransporterSummary) []models.MonthlyShare
}

// MergeProcessor left-joins monthly shares with monthly prices.
type MergeProcessor interface {
	Merge(shares []models.MonthlyShare, prices []models.MonthlyPrice) []models.MergedRow
}
