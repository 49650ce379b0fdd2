package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

type priceProcessorImpl struct{}

// NewPriceProcessor creates a new instance of PriceProcessor.
func NewPriceProcessor() PriceProcessor {
	return &priceProcessorImpl{}
}

// AggregateMonthly groups daily records by (year, month) and sums their
// amounts. Records with an invalid amount still register their month but
// add zero, so a month of unparseable cells yields a zero total rather
// than a missing row.
func (p *priceProcessorImpl) AggregateMonthly(records []models.DailyPriceRecord) []models.MonthlyPrice {
	type yearMonth struct{ year, month int }

	totals := make(map[yearMonth]decimal.Decimal)
	for _, rec := range records {
		key := yearMonth{rec.Date.Year(), int(rec.Date.Month())}
		if rec.AmountValid {
			totals[key] = totals[key].Add(rec.Amount)
		} else if _, seen := totals[key]; !seen {
			totals[key] = decimal.Zero
		}
	}

	result := make([]models.MonthlyPrice, 0, len(totals))
	for key, total := range totals {
		result = append(result, models.MonthlyPrice{
			Year:       key.year,
			Month:      key.month,
			TotalPrice: total,
			Label:      monthLabel(key.year, key.month),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result
}

// monthLabel renders the sortable "YYYY-MM" label shared by the monthly
// price and share tables.
func monthLabel(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}
