package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/suite"
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/logger"
	"github.com/zakaria-lahyani/backtester/internal/resolver"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

type DataSourceTestSuite struct {
	suite.Suite
	tempDir string
	ds      *DuckDBDataSource
}

func TestDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DataSourceTestSuite))
}

func (suite *DataSourceTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "datasource_test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ds = ds
}

func (suite *DataSourceTestSuite) TearDownTest() {
	suite.ds.Close()
	os.RemoveAll(suite.tempDir)
}

// writeParquet writes hourly bars over [00:00, hours) with the extra select
// expressions evaluated per row; "time" is available to the expressions.
func (suite *DataSourceTestSuite) writeParquet(name string, hours int, extra string) string {
	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	path := filepath.Join(suite.tempDir, name)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(hours) * time.Hour)

	query := fmt.Sprintf(`
		COPY (
			SELECT time,
				CAST(100 + hour(time) AS DOUBLE) AS open,
				CAST(101 + hour(time) AS DOUBLE) AS high,
				CAST(99 + hour(time) AS DOUBLE) AS low,
				CAST(100.5 + hour(time) AS DOUBLE) AS close%s
			FROM range(TIMESTAMP '2024-01-01 00:00:00', TIMESTAMP '%s', INTERVAL 1 HOUR) t("time")
			ORDER BY time DESC
		) TO '%s' (FORMAT PARQUET)
	`, extra, end.Format("2006-01-02 15:04:05"), path)

	_, err = db.Exec(query)
	suite.Require().NoError(err)

	return path
}

func (suite *DataSourceTestSuite) TestReadSchema() {
	path := suite.writeParquet("xauusd_60_rsi_14.parquet", 3, ", CAST(hour(time) * 10 AS DOUBLE) AS rsi_14")

	columns, err := suite.ds.ReadSchema(context.Background(), path)
	suite.Require().NoError(err)
	suite.Equal([]string{"time", "open", "high", "low", "close", "rsi_14"}, columns)

	_, err = suite.ds.ReadSchema(context.Background(), filepath.Join(suite.tempDir, "missing.parquet"))
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
}

func (suite *DataSourceTestSuite) TestLoadColumnsOrdersByTime() {
	path := suite.writeParquet("xauusd_60_mixed.parquet", 4,
		`, CAST(hour(time) * 10 AS DOUBLE) AS rsi_14,
		CASE WHEN hour(time) < 2 THEN 'bear' ELSE 'bull' END AS trend,
		CASE WHEN hour(time) = 1 THEN NULL ELSE hour(time) END AS sparse`)

	f, err := suite.ds.LoadColumns(context.Background(), path, []string{"trend", "rsi_14", "sparse", "close"})
	suite.Require().NoError(err)

	suite.Equal(4, f.Len())
	suite.True(f.Time(0).Before(f.Time(1)))
	suite.Equal([]string{"open", "high", "low", "close", "trend", "rsi_14", "sparse"}, f.Columns())

	rsi, err := f.Floats("rsi_14")
	suite.Require().NoError(err)
	suite.Equal([]float64{0, 10, 20, 30}, rsi)

	trend, _ := f.Column("trend")
	suite.Equal(frame.Text("bear"), trend[0])
	suite.Equal(frame.Text("bull"), trend[3])

	sparse, _ := f.Column("sparse")
	suite.True(sparse[1].IsAbsent())
	suite.Equal(frame.Number(2), sparse[2])
}

func (suite *DataSourceTestSuite) TestLoadColumnsMissingColumn() {
	path := suite.writeParquet("xauusd_60_rsi_14.parquet", 2, ", CAST(1 AS DOUBLE) AS rsi_14")

	_, err := suite.ds.LoadColumns(context.Background(), path, []string{"macd"})
	suite.True(errors.HasCode(err, errors.ErrCodeMissingColumn))
	suite.Contains(err.Error(), "macd")
}

func (suite *DataSourceTestSuite) TestLoadStrategyDataMergesFiles() {
	rsi := suite.writeParquet("xauusd_60_rsi_14.parquet", 3, ", CAST(50 AS DOUBLE) AS rsi_14")
	ema := suite.writeParquet("xauusd_60_ema_50.parquet", 3, ", CAST(99 + hour(time) AS DOUBLE) AS ema_50")
	trend := suite.writeParquet("xauusd_240_trend.parquet", 2, ", 'bull' AS trend")

	needed := resolver.FilesNeeded{
		"60":  {rsi: {"rsi_14"}, ema: {"ema_50"}},
		"240": {trend: {"trend"}},
	}

	cached := NewCachedDataSource(suite.ds)

	data, err := LoadStrategyData(context.Background(), cached, needed, []string{"60", "240", "15"})
	suite.Require().NoError(err)
	suite.Len(data, 2)

	h1 := data["60"]
	suite.Equal("60", h1.Name())
	suite.Equal(3, h1.Len())
	suite.True(h1.HasColumn("rsi_14"))
	suite.True(h1.HasColumn("ema_50"))
	suite.True(h1.HasColumn("close"))

	suite.True(data["240"].HasColumn("trend"))
	suite.NotContains(data, "15")
	suite.Equal(3, cached.Len())

	// second load is served from the cache
	again, err := LoadStrategyData(context.Background(), cached, needed, []string{"240"})
	suite.Require().NoError(err)
	suite.Equal(3, cached.Len())
	suite.Equal(data["240"].Len(), again["240"].Len())
}

func (suite *DataSourceTestSuite) TestLoadStrategyDataCancelled() {
	rsi := suite.writeParquet("xauusd_60_rsi_14.parquet", 2, ", CAST(50 AS DOUBLE) AS rsi_14")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadStrategyData(ctx, suite.ds, resolver.FilesNeeded{"60": {rsi: {"rsi_14"}}}, []string{"60"})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *DataSourceTestSuite) TestSelectColumns() {
	suite.Equal([]string{"time", "open", "high", "low", "close", "rsi_14"},
		selectColumns([]string{"close", "rsi_14", "rsi_14"}))
}
