// src/processors/weight_processor.go
package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

type weightProcessorImpl struct{}

// NewWeightProcessor creates a new instance of WeightProcessor.
func NewWeightProcessor() WeightProcessor {
	return &weightProcessorImpl{}
}

// Unify concatenates the general and program ledgers row-wise. Pure union:
// no deduplication, no key matching, no filtering. Origin stays readable
// through the transporter tag.
func (p *weightProcessorImpl) Unify(general, program []models.WeightRecord) []models.WeightRecord {
	unified := make([]models.WeightRecord, 0, len(general)+len(program))
	unified = append(unified, general...)
	unified = append(unified, program...)
	return unified
}

// SummarizeMonthly groups the unified ledger by (year, month, transporter),
// counting distinct references and summing weight and net weight. Every
// record must carry a stock-in timestamp; a zero one fails the stage with
// models.ErrMissingColumn instead of silently landing in year 1.
func (p *weightProcessorImpl) SummarizeMonthly(ledger []models.WeightRecord) ([]models.MonthlyTransporterSummary, error) {
	type groupKey struct {
		year, month int
		transporter string
	}
	type accumulator struct {
		references map[string]struct{}
		weight     decimal.Decimal
		netWeight  decimal.Decimal
	}

	groups := make(map[groupKey]*accumulator)
	for i, rec := range ledger {
		if rec.StockInAt.IsZero() {
			return nil, fmt.Errorf("%w: stock_in_at absent on record %d (reference %q)", models.ErrMissingColumn, i, rec.Reference)
		}
		key := groupKey{rec.StockInAt.Year(), int(rec.StockInAt.Month()), rec.Transporter}
		acc := groups[key]
		if acc == nil {
			acc = &accumulator{references: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.references[rec.Reference] = struct{}{}
		acc.weight = acc.weight.Add(rec.Weight)
		acc.netWeight = acc.netWeight.Add(rec.NetWeight)
	}

	result := make([]models.MonthlyTransporterSummary, 0, len(groups))
	for key, acc := range groups {
		result = append(result, models.MonthlyTransporterSummary{
			Year:           key.year,
			Month:          key.month,
			Transporter:    key.transporter,
			ReferenceCount: len(acc.references),
			TotalWeight:    acc.weight,
			TotalNetWeight: acc.netWeight,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		if result[i].Month != result[j].Month {
			return result[i].Month < result[j].Month
		}
		return result[i].Transporter < result[j].Transporter
	})
	return result, nil
}
