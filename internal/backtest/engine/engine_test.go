package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/zakaria-lahyani/backtester/internal/types"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackType() {
	var callback OnProcessDataCallback = func(current int, total int) error {
		return nil
	}

	suite.NotNil(callback)
	err := callback(1, 10)
	suite.NoError(err)
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestStrategyStartCallbackCanAbort() {
	callback := OnStrategyStartCallback(func(strategyIndex int, templateName string, totalStrategies int) error {
		if strategyIndex >= 2 {
			return errors.New("stop")
		}

		return nil
	})

	suite.NoError(callback(1, "cross.yaml", 3))
	suite.EqualError(callback(2, "cross.yaml", 3), "stop")
}

func (suite *EngineTestSuite) TestLifecycleCallbacksDefaultToNil() {
	var callbacks LifecycleCallbacks

	suite.Nil(callbacks.OnBacktestStart)
	suite.Nil(callbacks.OnStrategyEnd)

	var ended []string

	onEnd := OnStrategyEndCallback(func(strategyIndex int, result types.RunResult) {
		ended = append(ended, result.StrategyName)
	})
	callbacks.OnStrategyEnd = &onEnd

	(*callbacks.OnStrategyEnd)(0, types.RunResult{StrategyName: "rsi_cross"})
	suite.Equal([]string{"rsi_cross"}, ended)
}
