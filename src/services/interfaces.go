// src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/charts"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// DashboardResult is the full payload derived from one uploaded workbook
// merged with the current weight ledgers. It is what the cache stores and
// what the dashboard endpoint returns.
type DashboardResult struct {
	UploadID      string                             `json:"upload_id"`
	GeneratedAt   time.Time                          `json:"generated_at"`
	Mode          string                             `json:"mode"`
	DailyPrices   []models.DailyPriceRecord          `json:"daily_prices"`
	MonthlyPrices []models.MonthlyPrice              `json:"monthly_prices"`
	WeightSummary []models.MonthlyTransporterSummary `json:"weight_summary"`
	Shares        []models.MonthlyShare              `json:"shares"`
	Merged        []models.MergedRow                 `json:"merged"`
	Metrics       models.DashboardMetrics            `json:"metrics"`
	CombinedChart charts.ChartConfig                 `json:"combined_chart"`
	MonthCharts   map[string]charts.ChartConfig      `json:"month_charts"`
	Warnings      []string                           `json:"warnings,omitempty"`
}

// Define common service errors
var (
	ErrParsingFailed     = errors.New("workbook parsing failed")
	ErrSourceUnavailable = errors.New("weight source unavailable")
	ErrReportNotFound    = errors.New("dashboard report not found")
)

// WorkbookParser is what the service needs from the price workbook parser.
type WorkbookParser interface {
	Parse(r io.Reader) ([]models.DailyPriceRecord, error)
}

// DashboardService defines the interface for the dashboard assembly logic.
type DashboardService interface {
	ProcessUpload(ctx context.Context, data []byte) (*DashboardResult, error)
	GetDashboard(uploadID string) (*DashboardResult, error)
	GetCombinedChart(uploadID string) (*charts.ChartConfig, error)
	GetMonthChart(uploadID string, month int) (*charts.ChartConfig, error)
	GetWeightSummary(ctx context.Context) ([]models.MonthlyTransporterSummary, error)
	GetWeightShares(ctx context.Context) ([]models.MonthlyShare, error)
}
