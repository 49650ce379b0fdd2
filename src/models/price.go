package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPriceRecord represents a single daily cost entry extracted from one
// workbook sheet row. Rows with an unparseable date never become records;
// rows with an unparseable amount are kept with AmountValid=false and
// contribute zero when summed.
type DailyPriceRecord struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	AmountValid bool            `json:"amount_valid"`
}

// MonthlyPrice is the daily price table reduced to one row per (year, month).
type MonthlyPrice struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"` // 1-12
	TotalPrice decimal.Decimal `json:"total_price"`
	Label      string          `json:"label"` // "YYYY-MM", zero-padded month
}
