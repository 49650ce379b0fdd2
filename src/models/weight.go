// src/models/weight.go
package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProgramTransporter is the fixed tag carried by every weight record that
// belongs to the packaging program. The program adapter overwrites whatever
// the source provided with this value.
const ProgramTransporter = "DBU-PMC"

// ErrMissingColumn signals that weight data violates the canonical column
// contract: a demo file lacks a required column, or records reach the
// monthly summarizer without a stock-in timestamp.
var ErrMissingColumn = errors.New("required column missing")

// WeightRecord is the canonical row shape both weight sources normalize to.
// Program records always carry Transporter == ProgramTransporter; general
// records carry carrier names.
type WeightRecord struct {
	Reference      string          `json:"reference"`
	Transporter    string          `json:"transporter"`
	Weight         decimal.Decimal `json:"weight"`    // kg
	NetWeight      decimal.Decimal `json:"netweight"` // kg
	StockInAt      time.Time       `json:"stock_in_at"`
	StockInVersion *string         `json:"stock_in_pda_version"`
}

// MonthlyTransporterSummary aggregates the unified ledger by
// (year, month, transporter).
type MonthlyTransporterSummary struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Transporter    string          `json:"transporter"`
	ReferenceCount int             `json:"reference_unique"` // distinct references
	TotalWeight    decimal.Decimal `json:"total_weight"`
	TotalNetWeight decimal.Decimal `json:"total_netweight"`
}

// MonthlyShare compares the program's weight against the month total.
// RatioPercent is null exactly when TotalWeightAll is zero; a month with no
// program rows keeps its row with TotalWeightProgram = 0.
type MonthlyShare struct {
	Year               int                 `json:"year"`
	Month              int                 `json:"month"`
	TotalWeightAll     decimal.Decimal     `json:"total_weight_all"`
	TotalWeightProgram decimal.Decimal     `json:"total_weight_dbu"`
	RatioPercent       decimal.NullDecimal `json:"dbu_ratio"`
	Label              string              `json:"label"` // "YYYY-MM"
}

// MergedRow is a MonthlyShare joined with the monthly price table. Months
// without a price match carry TotalPrice = 0; months present only in the
// price table do not appear at all (left join from the weight side).
type MergedRow struct {
	Year               int                 `json:"year"`
	Month              int                 `json:"month"`
	TotalWeightAll     decimal.Decimal     `json:"total_weight_all"`
	TotalWeightProgram decimal.Decimal     `json:"total_weight_dbu"`
	RatioPercent       decimal.NullDecimal `json:"dbu_ratio"`
	Label              string              `json:"label"`
	TotalPrice         decimal.Decimal     `json:"total_price"`
}
