package alignment

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

type AlignmentTestSuite struct {
	suite.Suite
	start time.Time
}

func TestAlignmentSuite(t *testing.T) {
	suite.Run(t, new(AlignmentTestSuite))
}

func (suite *AlignmentTestSuite) SetupTest() {
	suite.start = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
}

// bars builds a table of n bars of tf minutes with a close and an indicator
// column whose value is the bar index.
func (suite *AlignmentTestSuite) bars(tf, n int, indicator string) *frame.Frame {
	times := make([]time.Time, n)
	closes := make([]float64, n)
	ind := make([]float64, n)

	for i := range n {
		times[i] = suite.start.Add(time.Duration(i*tf) * time.Minute)
		closes[i] = 100 + float64(i)
		ind[i] = float64(i)
	}

	f, err := frame.New("", times)
	suite.Require().NoError(err)
	suite.Require().NoError(f.AddFloats("close", closes))
	suite.Require().NoError(f.AddFloats(indicator, ind))

	return f
}

func (suite *AlignmentTestSuite) TestSingleTimeframeIsIdentity() {
	base := suite.bars(60, 5, "rsi_14")

	aligned, err := Align(map[int]*frame.Frame{60: base})
	suite.Require().NoError(err)
	suite.Equal("60", aligned.Name())
	suite.Equal(base.Columns(), aligned.Columns())
	suite.Equal(base.Times(), aligned.Times())

	got, _ := aligned.Floats("rsi_14")
	want, _ := base.Floats("rsi_14")
	suite.Equal(want, got)
}

func (suite *AlignmentTestSuite) TestHigherTimeframeAttachedAfterClose() {
	base := suite.bars(60, 12, "rsi_14")
	higher := suite.bars(240, 3, "trend")

	aligned, err := Align(map[int]*frame.Frame{240: higher, 60: base})
	suite.Require().NoError(err)
	suite.Equal("60_240", aligned.Name())
	suite.Equal(12, aligned.Len())

	suite.True(aligned.HasColumn("close"))
	suite.True(aligned.HasColumn("rsi_14_60"))
	suite.True(aligned.HasColumn("trend_240"))
	suite.False(aligned.HasColumn("rsi_14"))
	suite.False(aligned.HasColumn("close_240"))

	trend, ok := aligned.Column("trend_240")
	suite.Require().True(ok)

	// the 00:00 four-hour bar is only known from 04:00
	for row := range 4 {
		suite.True(trend[row].IsAbsent(), "row %d", row)
	}

	for row := 4; row < 8; row++ {
		suite.Equal(frame.Number(0), trend[row], "row %d", row)
	}

	for row := 8; row < 12; row++ {
		suite.Equal(frame.Number(1), trend[row], "row %d", row)
	}

	closes, _ := aligned.Floats("close")
	suite.Equal(100.0, closes[0])
}

func (suite *AlignmentTestSuite) TestGapsStayAbsent() {
	base := suite.bars(60, 6, "rsi_14")

	times := []time.Time{suite.start.Add(4 * time.Hour)}
	higher, err := frame.New("", times)
	suite.Require().NoError(err)
	suite.Require().NoError(higher.AddTexts("trend", []string{"up"}))

	aligned, err := Align(map[int]*frame.Frame{60: base, 240: higher})
	suite.Require().NoError(err)

	trend, _ := aligned.Column("trend_240")
	for _, v := range trend {
		suite.True(v.IsAbsent())
	}
}

func (suite *AlignmentTestSuite) TestNeverAttachesUnclosedBars() {
	rng := rand.New(rand.NewSource(42))

	for trial := range 25 {
		baseTf := []int{1, 5, 15}[rng.Intn(3)]
		higherTf := baseTf * (2 + rng.Intn(10))

		base := suite.bars(baseTf, 50+rng.Intn(200), "x")

		// sparse higher bars with random gaps
		var times []time.Time
		var ids []float64

		for i := 0; len(times) < 20; i++ {
			if rng.Intn(3) == 0 {
				continue
			}

			times = append(times, suite.start.Add(time.Duration(i*higherTf)*time.Minute))
			ids = append(ids, float64(i))
		}

		higher, err := frame.New("", times)
		suite.Require().NoError(err)
		suite.Require().NoError(higher.AddFloats("bar", ids))

		aligned, err := Align(map[int]*frame.Frame{baseTf: base, higherTf: higher})
		suite.Require().NoError(err, "trial %d", trial)

		attached, err := aligned.Floats(Suffix("bar", higherTf))
		suite.Require().NoError(err)

		for row, id := range attached {
			if math.IsNaN(id) {
				continue
			}

			opened := suite.start.Add(time.Duration(int(id)*higherTf) * time.Minute)
			suite.False(CloseTime(opened, higherTf).After(aligned.Time(row)),
				"trial %d row %d attached bar %v", trial, row, id)
		}
	}
}

func (suite *AlignmentTestSuite) TestRejectsBadInput() {
	_, err := Align(nil)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyInput))

	_, err = Align(map[int]*frame.Frame{0: suite.bars(1, 2, "x")})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))

	_, err = Align(map[int]*frame.Frame{60: nil})
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyInput))

	_, err = AlignByName(map[string]*frame.Frame{"h1": suite.bars(60, 2, "x")})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))

	_, err = AlignByName(map[string]*frame.Frame{"60": suite.bars(60, 2, "x"), " 60": suite.bars(60, 2, "x")})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *AlignmentTestSuite) TestAlignByName() {
	aligned, err := AlignByName(map[string]*frame.Frame{
		"240": suite.bars(240, 3, "trend"),
		"60":  suite.bars(60, 12, "rsi_14"),
	})
	suite.Require().NoError(err)
	suite.Equal("60_240", aligned.Name())
}

func (suite *AlignmentTestSuite) TestKeyFor() {
	key, err := KeyFor([]string{"240", "5", "60"})
	suite.NoError(err)
	suite.Equal("5_60_240", key)

	_, err = KeyFor(nil)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyInput))

	_, err = KeyFor([]string{"-1"})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *AlignmentTestSuite) TestVerifyNoLookaheadRejectsFutureBar() {
	base := []time.Time{suite.start, suite.start.Add(time.Hour)}
	closeTimes := []time.Time{suite.start.Add(time.Hour)}

	err := verifyNoLookahead(base, closeTimes, []int{0, 0}, 60)
	suite.Require().Error(err)
	suite.True(errors.IsLookaheadViolation(err))
	suite.True(errors.HasCode(err, errors.ErrCodeLookaheadViolation))

	suite.NoError(verifyNoLookahead(base, closeTimes, []int{-1, 0}, 60))
}

func (suite *AlignmentTestSuite) TestThreeTimeframeChain() {
	aligned, err := Align(map[int]*frame.Frame{
		15:  suite.bars(15, 40, "x"),
		60:  suite.bars(60, 10, "x"),
		240: suite.bars(240, 3, "x"),
	})
	suite.Require().NoError(err)
	suite.Equal("15_60_240", aligned.Name())

	x60, ok := aligned.Column("x_60")
	suite.Require().True(ok)
	x240, ok := aligned.Column("x_240")
	suite.Require().True(ok)

	// the first hourly bar closes at row 4, the first 4h bar at row 16
	for row := range 4 {
		suite.True(x60[row].IsAbsent())
	}

	n, ok := x60[4].Float()
	suite.True(ok)
	suite.Equal(0.0, n)

	for row := range 16 {
		suite.True(x240[row].IsAbsent())
	}

	n, ok = x240[16].Float()
	suite.True(ok)
	suite.Equal(0.0, n)
}
