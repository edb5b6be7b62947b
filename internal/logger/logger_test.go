package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	log, err := NewLogger()
	suite.Require().NoError(err)
	suite.NotNil(log.Logger)
	suite.True(log.Core().Enabled(zapcore.InfoLevel))
	suite.False(log.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithDebugLevel() {
	log, err := NewLoggerWithLevel(zapcore.DebugLevel)
	suite.Require().NoError(err)
	suite.True(log.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestParseLevel() {
	suite.Equal(zapcore.DebugLevel, ParseLevel("debug"))
	suite.Equal(zapcore.WarnLevel, ParseLevel("warn"))
	suite.Equal(zapcore.InfoLevel, ParseLevel("not-a-level"))
}

func (suite *LoggerTestSuite) TestNopLoggerSync() {
	log := NewNopLogger()
	suite.NoError(log.Sync())
	suite.NotNil(log.Named("sweep"))
}
