// src/parsers/priceworkbook/parser.go
package priceworkbook

import (
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// Headers a sheet must carry to qualify as a daily price sheet. The date
// column holds day/month text like "01/01"; the sheet name supplies the year.
const (
	dateHeader   = "日期"
	amountHeader = "Tot. H.T"
)

// ErrNoValidSheet is returned when no sheet in the workbook carries both
// required columns. The upload is rejected with no partial output.
var ErrNoValidSheet = errors.New("no valid sheet found containing '" + dateHeader + "' and '" + amountHeader + "' columns")

var yearToken = regexp.MustCompile(`(\d{4})`)

// Parser reads price workbooks: one sheet per year (name like "raw2024"),
// each with a daily date column and a total-amount column.
type Parser struct{}

// NewParser creates a new instance of the workbook Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts daily cost records from every qualifying sheet of the
// workbook and returns them sorted by date. Rows whose date cannot be parsed
// are dropped; rows whose amount cannot be coerced are kept with a zero,
// invalid amount so they count as zero under summation.
func (p *Parser) Parse(file io.Reader) ([]models.DailyPriceRecord, error) {
	wb, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("priceworkbook: failed to open workbook: %w", err)
	}
	defer wb.Close()

	var records []models.DailyPriceRecord
	validSheets := 0

	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("priceworkbook: failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		// --- Sheet Qualification ---
		dateIdx, amountIdx := locateColumns(rows[0])
		if dateIdx < 0 || amountIdx < 0 {
			continue
		}
		m := yearToken.FindStringSubmatch(sheet)
		if m == nil {
			log.Printf("Price workbook: sheet %q has the required columns but no 4-digit year in its name, skipping", sheet)
			continue
		}
		year, _ := strconv.Atoi(m[1])
		validSheets++

		// --- Row Extraction ---
		kept, dropped := 0, 0
		for _, row := range rows[1:] {
			date, err := parseDayMonth(cellAt(row, dateIdx), year)
			if err != nil {
				dropped++
				continue
			}
			rec := models.DailyPriceRecord{Date: date}
			if amt, err := decimal.NewFromString(strings.TrimSpace(cellAt(row, amountIdx))); err == nil {
				rec.Amount = amt
				rec.AmountValid = true
			}
			records = append(records, rec)
			kept++
		}
		log.Printf("Price workbook: sheet %q year %d: %d rows kept, %d rows dropped (unparseable date)", sheet, year, kept, dropped)
	}

	if validSheets == 0 {
		return nil, ErrNoValidSheet
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

// locateColumns finds the date and amount column indexes in a header row.
// Returns -1 for any header that is absent.
func locateColumns(header []string) (dateIdx, amountIdx int) {
	dateIdx, amountIdx = -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case dateHeader:
			dateIdx = i
		case amountHeader:
			amountIdx = i
		}
	}
	return dateIdx, amountIdx
}

// parseDayMonth builds a date from a "D/M" cell and the sheet's year,
// day-first. Cells with any other shape (including full dates carrying their
// own year) fail and the row is dropped.
func parseDayMonth(cell string, year int) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(cell), "/")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("date cell %q is not day/month", cell)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("date cell %q: invalid day: %w", cell, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("date cell %q: invalid month: %w", cell, err)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components (31/02 becomes March),
	// so a round-trip mismatch means the calendar date did not exist.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("date cell %q is not a valid calendar date for year %d", cell, year)
	}
	return t, nil
}

// cellAt reads a cell by index, tolerating short rows (excelize trims
// trailing empty cells).
func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
