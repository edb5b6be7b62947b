package mocks

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
)

// DataGenerator generates realistic bars for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartTime is the open time of the first bar
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per bar)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average tick volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          10000,
		InitialPrice:   2000.0,
		Volatility:     0.002, // 0.2% per bar
		Trend:          0.0,   // neutral
		VolumeBase:     500,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for normal distribution
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: math.Round(volume),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// GenerateFrame generates bars and returns them as a frame named after the
// interval in minutes, with open, high, low, close and tick_volume columns.
func (g *DataGenerator) GenerateFrame(config GeneratorConfig) (*frame.Frame, error) {
	bars := g.Generate(config)

	times := make([]time.Time, len(bars))
	columns := map[string][]float64{
		"open":        make([]float64, len(bars)),
		"high":        make([]float64, len(bars)),
		"low":         make([]float64, len(bars)),
		"close":       make([]float64, len(bars)),
		"tick_volume": make([]float64, len(bars)),
	}

	for i, bar := range bars {
		times[i] = bar.Time
		columns["open"][i] = bar.Open
		columns["high"][i] = bar.High
		columns["low"][i] = bar.Low
		columns["close"][i] = bar.Close
		columns["tick_volume"][i] = bar.Volume
	}

	f, err := frame.New(strconv.Itoa(int(config.Interval/time.Minute)), times)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{"open", "high", "low", "close", "tick_volume"} {
		if err := f.AddFloats(name, columns[name]); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Generate10K is a convenience function to generate 10,000 minute bars
// with default settings for benchmarking.
func Generate10K() []types.Bar {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
