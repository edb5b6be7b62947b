package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type TypesTestSuite struct {
	suite.Suite
	tempDir string
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "types_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *TypesTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *TypesTestSuite) TestClosedTrades() {
	trades := []Trade{
		{ExitTradeID: 0, Status: TradeStatusClosed},
		{ExitTradeID: 1, Status: TradeStatusOpen},
		{ExitTradeID: 2, Status: TradeStatusClosed},
	}

	closed := ClosedTrades(trades)
	suite.Len(closed, 2)
	suite.Equal(0, closed[0].ExitTradeID)
	suite.Equal(2, closed[1].ExitTradeID)
}

func (suite *TypesTestSuite) TestHoldingMinutes() {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	trade := Trade{EntryTimestamp: entry, ExitTimestamp: entry.Add(90 * time.Minute)}
	suite.Equal(90.0, trade.HoldingMinutes())
}

func (suite *TypesTestSuite) TestWriteSummaries() {
	summaries := []StrategySummary{
		{
			StrategyName: "rsi_14_cross",
			Timeframe:    "60_240",
			NbrTrades:    12,
			WinRate:      58.33,
			Drawdown:     -300,
			NetProfit:    230,
		},
	}

	filePath := filepath.Join(suite.tempDir, "summary.yaml")
	suite.Require().NoError(WriteSummaries(filePath, summaries))

	data, err := os.ReadFile(filePath)
	suite.Require().NoError(err)

	var read []StrategySummary
	suite.Require().NoError(yaml.Unmarshal(data, &read))
	suite.Len(read, 1)
	suite.Equal("rsi_14_cross", read[0].StrategyName)
	suite.Equal("60_240", read[0].Timeframe)
	suite.Equal(12, read[0].NbrTrades)
	suite.Equal(-300.0, read[0].Drawdown)

	suite.Error(WriteSummaries(filepath.Join(suite.tempDir, "missing", "x.yaml"), summaries))
}
