package sources

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
)

// The live adapter is exercised against in-memory SQLite databases holding
// the same tables the warehouse queries target. The adapter opens its own
// connection per fetch, so the test holds one connection open to keep the
// shared in-memory database alive.
func openSeedConn(t *testing.T, dsn string) *sql.Conn {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		db.Close()
	})
	return conn
}

func seed(t *testing.T, conn *sql.Conn, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := conn.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
}

func TestLiveSource_ProgramQueryFiltersAndForcesTransporter(t *testing.T) {
	dsn := "file:progfilter?mode=memory&cache=shared"
	conn := openSeedConn(t, dsn)
	seed(t, conn,
		`CREATE TABLE DBU (
			BOX_ID TEXT, PRODUIT TEXT, BOX_WEIGHT REAL, NET_WEIGHT REAL,
			DBU_STOCK_IN_AT TEXT, DBU_STOCK_IN_PDA_VERSION TEXT, ROI_BIND_PMC BOOLEAN
		)`,
		`INSERT INTO DBU VALUES ('B-1', 'FR-DBU-S', 12.5, 11.8, '2024-01-05 09:12:44', '1.4.2', TRUE)`,
		`INSERT INTO DBU VALUES ('B-2', 'FR-DBU-R', 8.0, 7.5, '2024-02-01 10:00:00', '1.4.2', TRUE)`,
		`INSERT INTO DBU VALUES ('B-3', 'FR-DBU-X', 9.0, 8.5, '2024-02-02 10:00:00', '1.4.2', TRUE)`,
		`INSERT INTO DBU VALUES ('B-4', 'FR-DBU-S', 7.0, 6.5, '2024-03-01 10:00:00', '1.4.2', FALSE)`,
		`INSERT INTO DBU VALUES ('B-5', 'FR-DBU-S', 5.0, 4.5, '2024-03-02 10:00:00', NULL, TRUE)`,
	)

	src := &liveSource{programDriver: "sqlite", programDSN: dsn}
	records, err := src.FetchProgramWeights(context.Background())
	require.NoError(t, err)

	// B-3 has a non-program product code and B-4 is not bound to the program.
	require.Len(t, records, 3)
	byRef := make(map[string]models.WeightRecord, len(records))
	for _, rec := range records {
		byRef[rec.Reference] = rec
		assert.Equal(t, models.ProgramTransporter, rec.Transporter)
	}
	require.Contains(t, byRef, "B-1")
	require.Contains(t, byRef, "B-2")
	require.Contains(t, byRef, "B-5")

	first := byRef["B-1"]
	assert.True(t, first.Weight.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, first.NetWeight.Equal(decimal.RequireFromString("11.8")))
	assert.Equal(t, "2024-01-05 09:12:44", first.StockInAt.Format("2006-01-02 15:04:05"))
	require.NotNil(t, first.StockInVersion)
	assert.Equal(t, "1.4.2", *first.StockInVersion)

	assert.Nil(t, byRef["B-5"].StockInVersion)
}

func TestLiveSource_GeneralQueryJoinsAndFilters(t *testing.T) {
	dsn := "file:genfilter?mode=memory&cache=shared"
	conn := openSeedConn(t, dsn)
	seed(t, conn,
		`CREATE TABLE whs_box_operation (
			reference INTEGER, warehouse TEXT, stock_in_at TEXT,
			bind_pmc BOOLEAN, stock_in_pda_version TEXT
		)`,
		`CREATE TABLE sale_order_box (id INTEGER, transporter TEXT, weight REAL, netweight REAL)`,
		`INSERT INTO whs_box_operation VALUES (1, 'EP_CL1', '2024-01-15 10:00:00', FALSE, '2.1.0')`,
		`INSERT INTO whs_box_operation VALUES (2, 'EP_CL1', '2023-12-31 10:00:00', FALSE, '2.1.0')`,
		`INSERT INTO whs_box_operation VALUES (3, 'EP_SUD', '2024-02-01 10:00:00', FALSE, '2.1.0')`,
		`INSERT INTO whs_box_operation VALUES (4, 'EP_CL1', '2024-02-02 10:00:00', TRUE, '2.1.0')`,
		`INSERT INTO whs_box_operation VALUES (5, 'EP_CL1', '2024-02-03 10:00:00', FALSE, NULL)`,
		`INSERT INTO sale_order_box VALUES (1, 'CHRONOPOST', 22.4, 21.6)`,
		`INSERT INTO sale_order_box VALUES (2, 'DPD', 5.0, 4.0)`,
		`INSERT INTO sale_order_box VALUES (3, 'DPD', 5.0, 4.0)`,
		`INSERT INTO sale_order_box VALUES (4, 'DPD', 5.0, 4.0)`,
		`INSERT INTO sale_order_box VALUES (5, 'DPD', 5.0, 4.0)`,
	)

	src := &liveSource{generalDriver: "sqlite", generalDSN: dsn}
	records, err := src.FetchGeneralWeights(context.Background())
	require.NoError(t, err)

	// Box 2 predates the window, box 3 sits in another warehouse, box 4 is
	// program bound, box 5 never got a PDA version.
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "1", rec.Reference)
	assert.Equal(t, "CHRONOPOST", rec.Transporter)
	assert.True(t, rec.Weight.Equal(decimal.RequireFromString("22.4")))
	assert.True(t, rec.NetWeight.Equal(decimal.RequireFromString("21.6")))
	require.NotNil(t, rec.StockInVersion)
	assert.Equal(t, "2.1.0", *rec.StockInVersion)
}

// Both adapters must emit the same canonical record for the same logical
// box, whatever store it came from.
func TestLiveSource_MatchesDemoRecordShape(t *testing.T) {
	dsn := "file:progshape?mode=memory&cache=shared"
	conn := openSeedConn(t, dsn)
	seed(t, conn,
		`CREATE TABLE DBU (
			BOX_ID TEXT, PRODUIT TEXT, BOX_WEIGHT REAL, NET_WEIGHT REAL,
			DBU_STOCK_IN_AT TEXT, DBU_STOCK_IN_PDA_VERSION TEXT, ROI_BIND_PMC BOOLEAN
		)`,
		`INSERT INTO DBU VALUES ('B-1', 'FR-DBU-S', 12.5, 11.8, '2024-01-05 09:12:44', '1.4.2', TRUE)`,
	)
	live := &liveSource{programDriver: "sqlite", programDSN: dsn}

	csv := "BOX_ID,PRODUIT,BOX_WEIGHT,NET_WEIGHT,DBU_STOCK_IN_AT,DBU_STOCK_IN_PDA_VERSION\n" +
		"B-1,FR-DBU-S,12.5,11.8,2024-01-05 09:12:44,1.4.2\n"
	demo := NewDemoSource(writeCSV(t, "program.csv", csv), "")

	fromLive, err := live.FetchProgramWeights(context.Background())
	require.NoError(t, err)
	fromDemo, err := demo.FetchProgramWeights(context.Background())
	require.NoError(t, err)

	require.Len(t, fromLive, 1)
	require.Len(t, fromDemo, 1)
	assertSameRecord(t, fromDemo[0], fromLive[0])

	assert.Equal(t, "live", live.Mode())
	assert.Equal(t, "demo", demo.Mode())
}
