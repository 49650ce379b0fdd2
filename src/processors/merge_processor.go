// src/processors/merge_processor.go
package processors

import (
	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

type mergeProcessorImpl struct{}

// NewMergeProcessor creates a new instance of MergeProcessor.
func NewMergeProcessor() MergeProcessor {
	return &mergeProcessorImpl{}
}

// Merge left-joins monthly prices onto the share table. Every share row is
// preserved and a month with no price data gets a zero price. The join is
// deliberately asymmetric: a month that appears only in the price table is
// dropped, because the weight ledger drives the report. Replicated from the
// upstream behavior and pinned by a regression test.
func (p *mergeProcessorImpl) Merge(shares []models.MonthlyShare, prices []models.MonthlyPrice) []models.MergedRow {
	type yearMonth struct{ year, month int }

	priceByMonth := make(map[yearMonth]decimal.Decimal, len(prices))
	for _, price := range prices {
		priceByMonth[yearMonth{price.Year, price.Month}] = price.TotalPrice
	}

	merged := make([]models.MergedRow, 0, len(shares))
	for _, share := range shares {
		merged = append(merged, models.MergedRow{
			Year:               share.Year,
			Month:              share.Month,
			TotalWeightAll:     share.TotalWeightAll,
			TotalWeightProgram: share.TotalWeightProgram,
			RatioPercent:       share.RatioPercent,
			Label:              share.Label,
			TotalPrice:         priceByMonth[yearMonth{share.Year, share.Month}],
		})
	}
	return merged
}
