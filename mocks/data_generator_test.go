package mocks

import (
	"testing"
	"time"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	data := gen.Generate(config)

	if len(data) != 100 {
		t.Errorf("expected 100 bars, got %d", len(data))
	}

	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			t.Errorf("bars not in chronological order at index %d", i)
		}
	}

	for i, d := range data {
		if d.Open <= 0 || d.High <= 0 || d.Low <= 0 || d.Close <= 0 {
			t.Errorf("invalid OHLC values at index %d: O=%f H=%f L=%f C=%f",
				i, d.Open, d.High, d.Low, d.Close)
		}

		if d.High < d.Low {
			t.Errorf("High < Low at index %d: H=%f L=%f", i, d.High, d.Low)
		}
	}

	expectedInterval := config.Interval
	for i := 1; i < len(data); i++ {
		actualInterval := data[i].Time.Sub(data[i-1].Time)
		if actualInterval != expectedInterval {
			t.Errorf("unexpected interval at index %d: expected %v, got %v",
				i, expectedInterval, actualInterval)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(42)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	for i := range data1 {
		if data1[i].Close != data2[i].Close {
			t.Errorf("bars not reproducible at index %d: got %f and %f",
				i, data1[i].Close, data2[i].Close)
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(123)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	sameCount := 0
	for i := range data1 {
		if data1[i].Close == data2[i].Close {
			sameCount++
		}
	}

	if sameCount == len(data1) {
		t.Error("different seeds produced identical bars")
	}
}

func TestDataGenerator_GenerateFrame(t *testing.T) {
	config := DefaultConfig()
	config.Count = 50
	config.Interval = time.Hour

	f, err := NewDataGenerator(7).GenerateFrame(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Name() != "60" {
		t.Errorf("expected frame named 60, got %s", f.Name())
	}

	if f.Len() != 50 {
		t.Errorf("expected 50 rows, got %d", f.Len())
	}

	closes, err := f.Floats("close")
	if err != nil {
		t.Fatalf("close column missing: %v", err)
	}

	bars := NewDataGenerator(7).Generate(config)
	for i := range bars {
		if closes[i] != bars[i].Close {
			t.Errorf("close mismatch at index %d: %f != %f", i, closes[i], bars[i].Close)
		}
	}
}

func TestGenerate10K(t *testing.T) {
	data := Generate10K()

	if len(data) != 10000 {
		t.Errorf("expected 10000 bars, got %d", len(data))
	}

	for i := 1; i < 100; i++ { // Check first 100 for speed
		if !data[i].Time.After(data[i-1].Time) {
			t.Errorf("bars not in chronological order at index %d", i)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Count != 10000 {
		t.Errorf("expected default count 10000, got %d", config.Count)
	}

	if config.Interval != time.Minute {
		t.Errorf("expected default interval 1m, got %v", config.Interval)
	}

	if config.InitialPrice != 2000.0 {
		t.Errorf("expected default initial price 2000.0, got %f", config.InitialPrice)
	}
}
