package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/zakaria-lahyani/backtester/internal/types"
)

type ATRUnitTestSuite struct {
	suite.Suite
}

func TestATRUnitSuite(t *testing.T) {
	suite.Run(t, new(ATRUnitTestSuite))
}

func (suite *ATRUnitTestSuite) TestNewATR() {
	suite.Equal(14, NewATR().(*ATR).period)
}

func (suite *ATRUnitTestSuite) TestName() {
	suite.Equal(types.IndicatorTypeATR, NewATR().Name())
}

func (suite *ATRUnitTestSuite) TestConfig() {
	atr := NewATR()

	suite.NoError(atr.Config(7))
	suite.Equal(7, atr.(*ATR).period)

	err := atr.Config(7, 8)
	suite.Error(err)
	suite.Contains(err.Error(), "expects 1 parameter")

	err = atr.Config(0)
	suite.Error(err)
	suite.Contains(err.Error(), "must be a positive integer")
}

func (suite *ATRUnitTestSuite) TestTrueRangeUsesPreviousClose() {
	tr := trueRange([]float64{2, 3, 4}, []float64{1, 2, 2}, []float64{1.5, 2.5, 3})

	suite.InDelta(1, tr[0], 1e-9)
	suite.InDelta(1.5, tr[1], 1e-9)
	suite.InDelta(2, tr[2], 1e-9)
}

func (suite *ATRUnitTestSuite) TestCompute() {
	atr := NewATR()
	suite.Require().NoError(atr.Config(2))

	series, err := atr.Compute(ohlcFrame([]float64{2, 3, 4}, []float64{1, 2, 2}, []float64{1.5, 2.5, 3}))
	suite.Require().NoError(err)
	suite.Require().Len(series, 1)

	values := series[0].Values
	suite.True(math.IsNaN(values[0]))
	suite.InDelta(1.25, values[1], 1e-9)
	suite.InDelta(1.625, values[2], 1e-9)
}
