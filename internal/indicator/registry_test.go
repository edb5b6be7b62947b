package indicator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/zakaria-lahyani/backtester/internal/types"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestRegisterAndGet() {
	registry := NewIndicatorRegistry()
	suite.NoError(registry.RegisterIndicator(NewRSI()))

	indicator, err := registry.GetIndicator(types.IndicatorTypeRSI)
	suite.NoError(err)
	suite.Equal(types.IndicatorTypeRSI, indicator.Name())

	err = registry.RegisterIndicator(NewRSI())
	suite.Error(err)
	suite.Contains(err.Error(), "already registered")
}

func (suite *RegistryTestSuite) TestGetUnknown() {
	_, err := NewIndicatorRegistry().GetIndicator(types.IndicatorType("vwap"))
	suite.Error(err)
	suite.Contains(err.Error(), "not found")
}

func (suite *RegistryTestSuite) TestRemove() {
	registry := NewIndicatorRegistry()
	suite.NoError(registry.RegisterIndicator(NewMA()))
	suite.NoError(registry.RemoveIndicator(types.IndicatorTypeMA))
	suite.Empty(registry.ListIndicators())
	suite.Error(registry.RemoveIndicator(types.IndicatorTypeMA))
}

func (suite *RegistryTestSuite) TestDefaultRegistry() {
	suite.Equal([]types.IndicatorType{
		types.IndicatorTypeATR,
		types.IndicatorTypeBollingerBands,
		types.IndicatorTypeEMA,
		types.IndicatorTypeMA,
		types.IndicatorTypeMACD,
		types.IndicatorTypeRSI,
	}, NewDefaultRegistry().ListIndicators())
}

func (suite *RegistryTestSuite) TestConcurrentAccess() {
	registry := NewDefaultRegistry()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := registry.GetIndicator(types.IndicatorTypeEMA)
			suite.NoError(err)
			suite.Len(registry.ListIndicators(), 6)
		}()
	}

	wg.Wait()
}
