// src/sources/live.go
package sources

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/snowflakedb/gosnowflake"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/config"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// programQuery pulls program-bound boxes from the warehouse export table.
// Columns come out in canonical order, legacy names and all.
const programQuery = `
SELECT BOX_ID, PRODUIT, BOX_WEIGHT, NET_WEIGHT, DBU_STOCK_IN_AT, DBU_STOCK_IN_PDA_VERSION
FROM DBU
WHERE PRODUIT IN ('FR-DBU-S', 'FR-DBU-R')
  AND ROI_BIND_PMC = TRUE`

// generalQuery pulls all non-program boxes stocked into the EP_CL1
// warehouse since the start of 2024 that carry a PDA version.
const generalQuery = `
SELECT wbo.reference, sob.transporter, sob.weight, sob.netweight, wbo.stock_in_at, wbo.stock_in_pda_version
FROM whs_box_operation wbo
JOIN sale_order_box sob ON wbo.reference = sob.id
WHERE wbo.warehouse = 'EP_CL1'
  AND wbo.stock_in_at > '2024-01-01'
  AND wbo.bind_pmc = false
  AND wbo.stock_in_pda_version IS NOT NULL`

// liveSource runs the two warehouse queries. Each fetch opens a fresh
// connection and releases it before returning; nothing is pooled between
// dashboard runs.
type liveSource struct {
	programDriver string
	programDSN    string
	generalDriver string
	generalDSN    string
}

// NewLiveSource builds the live adapter from the configured warehouse
// credentials.
func NewLiveSource(cfg *config.AppConfig) (WeightSource, error) {
	snowflakeDSN, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.SnowflakeAccount,
		User:      cfg.SnowflakeUser,
		Password:  cfg.SnowflakePassword,
		Database:  cfg.SnowflakeDatabase,
		Schema:    cfg.SnowflakeSchema,
		Warehouse: cfg.SnowflakeWarehouse,
		Role:      cfg.SnowflakeRole,
	})
	if err != nil {
		return nil, fmt.Errorf("building snowflake DSN: %w", err)
	}
	postgresDSN := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword,
		cfg.PostgresDBName, cfg.PostgresSSLMode)
	return &liveSource{
		programDriver: "snowflake",
		programDSN:    snowflakeDSN,
		generalDriver: "postgres",
		generalDSN:    postgresDSN,
	}, nil
}

func (s *liveSource) Mode() string {
	return config.ModeLive
}

// FetchProgramWeights queries the program table. The transporter is forced
// to the program tag regardless of the product code on the box.
func (s *liveSource) FetchProgramWeights(ctx context.Context) ([]models.WeightRecord, error) {
	records, err := queryWeights(ctx, s.programDriver, s.programDSN, programQuery)
	if err != nil {
		return nil, fmt.Errorf("program weight query: %w", err)
	}
	for i := range records {
		records[i].Transporter = models.ProgramTransporter
	}
	return records, nil
}

func (s *liveSource) FetchGeneralWeights(ctx context.Context) ([]models.WeightRecord, error) {
	records, err := queryWeights(ctx, s.generalDriver, s.generalDSN, generalQuery)
	if err != nil {
		return nil, fmt.Errorf("general weight query: %w", err)
	}
	return records, nil
}

// queryWeights opens a connection, runs one query and closes the connection
// on every path. Both queries emit columns in canonical order, so a single
// scan loop serves them.
func queryWeights(ctx context.Context, driver, dsn, query string) ([]models.WeightRecord, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", driver, err)
	}
	defer rows.Close()

	var records []models.WeightRecord
	for rows.Next() {
		var (
			rec     models.WeightRecord
			stockIn string
			version sql.NullString
		)
		if err := rows.Scan(&rec.Reference, &rec.Transporter, &rec.Weight, &rec.NetWeight, &stockIn, &version); err != nil {
			return nil, fmt.Errorf("scanning %s weight row: %w", driver, err)
		}
		ts, err := parseStockInTimestamp(stockIn)
		if err != nil {
			return nil, fmt.Errorf("weight row reference %q: %w", rec.Reference, err)
		}
		rec.StockInAt = ts
		if version.Valid {
			rec.StockInVersion = &version.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s weight rows: %w", driver, err)
	}
	return records, nil
}
