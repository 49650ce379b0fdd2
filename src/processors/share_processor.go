package processors

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

var hundred = decimal.NewFromInt(100)

type shareProcessorImpl struct{}

// NewShareProcessor creates a new instance of ShareProcessor.
func NewShareProcessor() ShareProcessor {
	return &shareProcessorImpl{}
}

// ComputeShares reduces the per-transporter summary to one row per month:
// total weight over all transporters, the program-only subset, and the
// program's percentage share. A month without program rows keeps its row
// with a zero program weight; the ratio is null exactly when the month
// total is not positive (never a division by zero).
func (p *shareProcessorImpl) ComputeShares(summary []models.MonthlyTransporterSummary) []models.MonthlyShare {
	type yearMonth struct{ year, month int }

	shares := make(map[yearMonth]*models.MonthlyShare)
	for _, row := range summary {
		key := yearMonth{row.Year, row.Month}
		share := shares[key]
		if share == nil {
			share = &models.MonthlyShare{
				Year:  row.Year,
				Month: row.Month,
				Label: monthLabel(row.Year, row.Month),
			}
			shares[key] = share
		}
		share.TotalWeightAll = share.TotalWeightAll.Add(row.TotalWeight)
		if row.Transporter == models.ProgramTransporter {
			share.TotalWeightProgram = share.TotalWeightProgram.Add(row.TotalWeight)
		}
	}

	result := make([]models.MonthlyShare, 0, len(shares))
	for _, share := range shares {
		if share.TotalWeightAll.IsPositive() {
			ratio := share.TotalWeightProgram.Div(share.TotalWeightAll).Mul(hundred)
			share.RatioPercent = decimal.NewNullDecimal(ratio)
		}
		result = append(result, *share)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result
}
