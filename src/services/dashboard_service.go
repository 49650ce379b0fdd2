// src/services/dashboard_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/charts"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/parsers/priceworkbook"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/processors"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/sources"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/utils"
)

const (
	ckDashboardResult = "res_dashboard_%s"
	ckWeightRecords   = "agg_weight_records"
)

// weightLedgers bundles the two fetched ledgers so one cache entry covers
// both round trips.
type weightLedgers struct {
	Program []models.WeightRecord
	General []models.WeightRecord
}

type dashboardServiceImpl struct {
	parser          WorkbookParser
	priceProcessor  processors.PriceProcessor
	weightProcessor processors.WeightProcessor
	shareProcessor  processors.ShareProcessor
	mergeProcessor  processors.MergeProcessor
	source          sources.WeightSource
	reportCache     *cache.Cache
	dashboardTTL    time.Duration
	weightsTTL      time.Duration
}

func NewDashboardService(
	parser WorkbookParser,
	priceProcessor processors.PriceProcessor,
	weightProcessor processors.WeightProcessor,
	shareProcessor processors.ShareProcessor,
	mergeProcessor processors.MergeProcessor,
	source sources.WeightSource,
	reportCache *cache.Cache,
	dashboardTTL time.Duration,
	weightsTTL time.Duration,
) DashboardService {
	return &dashboardServiceImpl{
		parser:          parser,
		priceProcessor:  priceProcessor,
		weightProcessor: weightProcessor,
		shareProcessor:  shareProcessor,
		mergeProcessor:  mergeProcessor,
		source:          source,
		reportCache:     reportCache,
		dashboardTTL:    dashboardTTL,
		weightsTTL:      weightsTTL,
	}
}

// ProcessUpload runs the full pipeline for one workbook payload: parse,
// aggregate, fetch and summarize weights, compute shares, merge and build
// charts. The result is cached under the payload hash, so re-uploading the
// same bytes is a cache hit.
func (s *dashboardServiceImpl) ProcessUpload(ctx context.Context, data []byte) (*DashboardResult, error) {
	uploadID := utils.HashBytes(data)
	cacheKey := fmt.Sprintf(ckDashboardResult, uploadID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("ProcessUpload cache hit", "uploadID", uploadID)
		return cached.(*DashboardResult), nil
	}

	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "uploadID", uploadID, "bytes", len(data))

	dailyPrices, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, priceworkbook.ErrNoValidSheet) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	monthlyPrices := s.priceProcessor.AggregateMonthly(dailyPrices)

	ledgers, err := s.fetchWeights(ctx)
	if err != nil {
		return nil, err
	}
	unified := s.weightProcessor.Unify(ledgers.General, ledgers.Program)
	summary, err := s.weightProcessor.SummarizeMonthly(unified)
	if err != nil {
		return nil, fmt.Errorf("summarizing weights: %w", err)
	}
	shares := s.shareProcessor.ComputeShares(summary)
	merged := s.mergeProcessor.Merge(shares, monthlyPrices)

	monthCharts := make(map[string]charts.ChartConfig)
	for month := 1; month <= 12; month++ {
		if cfg, ok := charts.BuildMonth(merged, month); ok {
			monthCharts[fmt.Sprintf("%02d", month)] = cfg
		}
	}

	var warnings []string
	if invalid := countInvalidAmounts(dailyPrices); invalid > 0 {
		warnings = append(warnings, fmt.Sprintf("%d amount cells could not be parsed and were summed as zero", invalid))
	}
	if len(unified) == 0 {
		warnings = append(warnings, "weight sources returned no records; merged table is empty")
	}

	result := &DashboardResult{
		UploadID:      uploadID,
		GeneratedAt:   time.Now().UTC(),
		Mode:          s.source.Mode(),
		DailyPrices:   dailyPrices,
		MonthlyPrices: monthlyPrices,
		WeightSummary: summary,
		Shares:        shares,
		Merged:        merged,
		Metrics:       buildMetrics(merged),
		CombinedChart: charts.BuildCombined(merged),
		MonthCharts:   monthCharts,
		Warnings:      warnings,
	}
	s.reportCache.Set(cacheKey, result, s.dashboardTTL)

	logger.L.Info("ProcessUpload END", "uploadID", uploadID, "mergedMonths", len(merged), "duration", time.Since(overallStartTime))
	return result, nil
}

func (s *dashboardServiceImpl) GetDashboard(uploadID string) (*DashboardResult, error) {
	if cached, found := s.reportCache.Get(fmt.Sprintf(ckDashboardResult, uploadID)); found {
		return cached.(*DashboardResult), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrReportNotFound, uploadID)
}

func (s *dashboardServiceImpl) GetCombinedChart(uploadID string) (*charts.ChartConfig, error) {
	result, err := s.GetDashboard(uploadID)
	if err != nil {
		return nil, err
	}
	return &result.CombinedChart, nil
}

func (s *dashboardServiceImpl) GetMonthChart(uploadID string, month int) (*charts.ChartConfig, error) {
	result, err := s.GetDashboard(uploadID)
	if err != nil {
		return nil, err
	}
	cfg, ok := result.MonthCharts[fmt.Sprintf("%02d", month)]
	if !ok {
		return nil, fmt.Errorf("%w: no data for month %02d", ErrReportNotFound, month)
	}
	return &cfg, nil
}

func (s *dashboardServiceImpl) GetWeightSummary(ctx context.Context) ([]models.MonthlyTransporterSummary, error) {
	ledgers, err := s.fetchWeights(ctx)
	if err != nil {
		return nil, err
	}
	unified := s.weightProcessor.Unify(ledgers.General, ledgers.Program)
	summary, err := s.weightProcessor.SummarizeMonthly(unified)
	if err != nil {
		return nil, fmt.Errorf("summarizing weights: %w", err)
	}
	return summary, nil
}

func (s *dashboardServiceImpl) GetWeightShares(ctx context.Context) ([]models.MonthlyShare, error) {
	summary, err := s.GetWeightSummary(ctx)
	if err != nil {
		return nil, err
	}
	return s.shareProcessor.ComputeShares(summary), nil
}

// fetchWeights pulls both ledgers through the cache so repeated dashboard
// runs inside the TTL skip the warehouse round trips.
func (s *dashboardServiceImpl) fetchWeights(ctx context.Context) (*weightLedgers, error) {
	if cached, found := s.reportCache.Get(ckWeightRecords); found {
		return cached.(*weightLedgers), nil
	}
	program, err := s.source.FetchProgramWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s mode: %v", ErrSourceUnavailable, s.source.Mode(), err)
	}
	general, err := s.source.FetchGeneralWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s mode: %v", ErrSourceUnavailable, s.source.Mode(), err)
	}
	ledgers := &weightLedgers{Program: program, General: general}
	s.reportCache.Set(ckWeightRecords, ledgers, s.weightsTTL)
	return ledgers, nil
}

func buildMetrics(merged []models.MergedRow) models.DashboardMetrics {
	metrics := models.DashboardMetrics{TotalMonths: len(merged)}
	ratioSum := decimal.Zero
	ratioCount := 0
	for _, row := range merged {
		metrics.TotalWeightProgram = metrics.TotalWeightProgram.Add(row.TotalWeightProgram)
		metrics.TotalWeightAll = metrics.TotalWeightAll.Add(row.TotalWeightAll)
		metrics.TotalPrice = metrics.TotalPrice.Add(row.TotalPrice)
		if row.RatioPercent.Valid {
			ratioSum = ratioSum.Add(row.RatioPercent.Decimal)
			ratioCount++
		}
	}
	// Months with no weight at all carry a null ratio and stay out of the
	// average instead of dragging it toward zero.
	if ratioCount > 0 {
		metrics.AvgRatioPercent = decimal.NewNullDecimal(ratioSum.Div(decimal.NewFromInt(int64(ratioCount))))
	}
	return metrics
}

func countInvalidAmounts(records []models.DailyPriceRecord) int {
	invalid := 0
	for _, rec := range records {
		if !rec.AmountValid {
			invalid++
		}
	}
	return invalid
}
