// src/sources/demo.go
package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/config"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// demoSource reads the bundled CSV samples. The files are pre-filtered
// copies of the warehouse exports, so no row filtering happens here; the
// program file may carry either the legacy header or the canonical one.
type demoSource struct {
	programPath string
	generalPath string
}

// NewDemoSource builds the demo adapter over two local CSV files.
func NewDemoSource(programPath, generalPath string) WeightSource {
	return &demoSource{programPath: programPath, generalPath: generalPath}
}

func (s *demoSource) Mode() string {
	return config.ModeDemo
}

// FetchProgramWeights reads the program sample. As in live mode, the
// transporter is forced to the program tag.
func (s *demoSource) FetchProgramWeights(ctx context.Context) ([]models.WeightRecord, error) {
	records, err := readWeightCSV(s.programPath)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Transporter = models.ProgramTransporter
	}
	return records, nil
}

func (s *demoSource) FetchGeneralWeights(ctx context.Context) ([]models.WeightRecord, error) {
	return readWeightCSV(s.generalPath)
}

func readWeightCSV(path string) ([]models.WeightRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening demo csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading demo csv header %s: %w", path, err)
	}
	columnIdx, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("demo csv %s: %w", path, err)
	}

	var records []models.WeightRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading demo csv %s: %w", path, err)
		}
		line++
		rec, err := rowToRecord(row, columnIdx)
		if err != nil {
			return nil, fmt.Errorf("demo csv %s line %d: %w", path, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func rowToRecord(row []string, idx map[string]int) (models.WeightRecord, error) {
	field := func(col string) string {
		if i := idx[col]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	weight, err := decimal.NewFromString(field(colWeight))
	if err != nil {
		return models.WeightRecord{}, fmt.Errorf("invalid weight %q", field(colWeight))
	}
	netWeight, err := decimal.NewFromString(field(colNetWeight))
	if err != nil {
		return models.WeightRecord{}, fmt.Errorf("invalid netweight %q", field(colNetWeight))
	}
	stockInAt, err := parseStockInTimestamp(field(colStockInAt))
	if err != nil {
		return models.WeightRecord{}, err
	}

	rec := models.WeightRecord{
		Reference:   field(colReference),
		Transporter: field(colTransporter),
		Weight:      weight,
		NetWeight:   netWeight,
		StockInAt:   stockInAt,
	}
	if v := field(colVersion); v != "" {
		rec.StockInVersion = &v
	}
	return rec, nil
}
