// Package sources provides the two weight-record adapters: a live variant
// querying the real Snowflake/PostgreSQL endpoints and a demo variant
// reading local CSV samples. Both normalize to the same canonical record
// shape; that equivalence is the package contract.
package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/config"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// Canonical column names of the adapter output contract.
const (
	colReference   = "reference"
	colTransporter = "transporter"
	colWeight      = "weight"
	colNetWeight   = "netweight"
	colStockInAt   = "stock_in_at"
	colVersion     = "stock_in_pda_version"
)

// canonicalColumns lists every column a normalized weight table must carry.
var canonicalColumns = []string{colReference, colTransporter, colWeight, colNetWeight, colStockInAt, colVersion}

// legacyColumns remaps the raw warehouse export header to the canonical
// contract. One shared table so no variant grows its own copy.
var legacyColumns = map[string]string{
	"box_id":                   colReference,
	"produit":                  colTransporter,
	"box_weight":               colWeight,
	"net_weight":               colNetWeight,
	"dbu_stock_in_at":          colStockInAt,
	"dbu_stock_in_pda_version": colVersion,
}

// WeightSource is the capability both modes implement: fetch the program
// ledger and the general ledger as canonical weight records.
type WeightSource interface {
	FetchProgramWeights(ctx context.Context) ([]models.WeightRecord, error)
	FetchGeneralWeights(ctx context.Context) ([]models.WeightRecord, error)
	Mode() string
}

// NewSource selects the adapter for the configured mode.
func NewSource(cfg *config.AppConfig) (WeightSource, error) {
	if cfg.Mode == config.ModeLive {
		return NewLiveSource(cfg)
	}
	return NewDemoSource(cfg.DemoProgramCSVPath, cfg.DemoGeneralCSVPath), nil
}

// mapColumns lowercases a header row, remaps legacy names through
// legacyColumns and returns the index of every canonical column. All six
// must be present; the error names whichever are not.
func mapColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := legacyColumns[key]; ok {
			key = canonical
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	var missing []string
	for _, col := range canonicalColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// stockInLayouts are the timestamp shapes the exports actually ship.
var stockInLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseStockInTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range stockInLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized stock_in_at timestamp %q", value)
}
