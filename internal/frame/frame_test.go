package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

type FrameTestSuite struct {
	suite.Suite
	start time.Time
}

func TestFrameSuite(t *testing.T) {
	suite.Run(t, new(FrameTestSuite))
}

func (suite *FrameTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
}

func (suite *FrameTestSuite) minutes(offsets ...int) []time.Time {
	out := make([]time.Time, len(offsets))
	for i, o := range offsets {
		out[i] = suite.start.Add(time.Duration(o) * time.Minute)
	}

	return out
}

func (suite *FrameTestSuite) TestNewRejectsDuplicateTimestamps() {
	_, err := New("1", suite.minutes(0, 1, 1))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnorderedIndex))

	_, err = New("1", suite.minutes(0, 2, 1))
	suite.Error(err)
}

func (suite *FrameTestSuite) TestAddColumnValidatesLength() {
	f, err := New("1", suite.minutes(0, 1, 2))
	suite.Require().NoError(err)

	err = f.AddFloats("close", []float64{1, 2})
	suite.True(errors.HasCode(err, errors.ErrCodeLengthMismatch))

	suite.NoError(f.AddFloats("close", []float64{1, 2, 3}))
	err = f.AddFloats("close", []float64{1, 2, 3})
	suite.Error(err)
	suite.Contains(err.Error(), "already exists")

	suite.Error(f.AddFloats(TimeColumn, []float64{1, 2, 3}))
}

func (suite *FrameTestSuite) TestNaNBecomesAbsent() {
	f, err := New("1", suite.minutes(0, 1))
	suite.Require().NoError(err)
	suite.Require().NoError(f.AddFloats("rsi", []float64{math.NaN(), 50}))

	values, ok := f.Column("rsi")
	suite.True(ok)
	suite.True(values[0].IsAbsent())

	floats, err := f.Floats("rsi")
	suite.NoError(err)
	suite.True(math.IsNaN(floats[0]))
	suite.Equal(50.0, floats[1])

	_, err = f.Floats("missing")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingColumn))
}

func (suite *FrameTestSuite) TestBetween() {
	f, err := New("1", suite.minutes(0, 1, 2, 3, 4))
	suite.Require().NoError(err)
	suite.Require().NoError(f.AddFloats("close", []float64{10, 11, 12, 13, 14}))

	window := f.Between(suite.start.Add(time.Minute), suite.start.Add(3*time.Minute))
	suite.Equal(3, window.Len())

	closes, _ := window.Floats("close")
	suite.Equal([]float64{11, 12, 13}, closes)

	open := f.Between(time.Time{}, time.Time{})
	suite.Equal(5, open.Len())
}

func (suite *FrameTestSuite) TestMergeOuterJoinFirstWins() {
	a, err := New("a", suite.minutes(0, 1, 2))
	suite.Require().NoError(err)
	suite.Require().NoError(a.AddFloats("close", []float64{1, 2, 3}))
	suite.Require().NoError(a.AddFloats("rsi_14", []float64{40, 50, 60}))

	b, err := New("b", suite.minutes(1, 2, 3))
	suite.Require().NoError(err)
	suite.Require().NoError(b.AddFloats("close", []float64{99, 99, 99}))
	suite.Require().NoError(b.AddTexts("trend", []string{"up", "up", "down"}))

	merged, err := Merge("60", a, b)
	suite.Require().NoError(err)
	suite.Equal("60", merged.Name())
	suite.Equal(4, merged.Len())
	suite.Equal([]string{"close", "rsi_14", "trend"}, merged.Columns())

	closes, _ := merged.Column("close")
	suite.Equal(Number(1), closes[0])
	suite.True(closes[3].IsAbsent())

	trend, _ := merged.Column("trend")
	suite.True(trend[0].IsAbsent())
	suite.Equal(Text("down"), trend[3])
}

func (suite *FrameTestSuite) TestValueSemantics() {
	suite.True(Number(1).Equal(Number(1)))
	suite.False(Absent().Equal(Absent()))
	suite.False(Number(1).Equal(Text("1")))

	cmp, ok := Compare(Number(1), Number(2))
	suite.True(ok)
	suite.Equal(-1, cmp)

	_, ok = Compare(Number(1), Text("a"))
	suite.False(ok)

	suite.Equal(Number(30), Coerce("30"))
	suite.Equal(Text("bullish"), Coerce("bullish"))
	suite.Equal(Number(2), Coerce(2))
	suite.True(Coerce(nil).IsAbsent())
}
