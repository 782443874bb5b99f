package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fleettrack/internal/domain"
)

func makeSeries(values []float64) []ChartPoint {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	points := make([]ChartPoint, len(values))
	for i, v := range values {
		points[i] = ChartPoint{Datetime: base.Add(time.Duration(i) * time.Second), Value: v}
	}
	return points
}

func TestDownsampleShortSeriesUnchanged(t *testing.T) {
	series := makeSeries([]float64{1, 2, 3, 4, 5})

	out := Downsample(series, 100)
	assert.Equal(t, series, out)

	out = Downsample(series, 5)
	assert.Equal(t, series, out)
}

func TestDownsampleKeepsEndpointsAndLength(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}
	series := makeSeries(values)

	out := Downsample(series, 100)
	if len(out) != 100 {
		t.Fatalf("expected exactly 100 points, got %d", len(out))
	}
	assert.Equal(t, series[0], out[0])
	assert.Equal(t, series[len(series)-1], out[len(out)-1])

	// output stays chronological
	for i := 1; i < len(out); i++ {
		if !out[i-1].Datetime.Before(out[i].Datetime) {
			t.Fatalf("output not chronological at index %d", i)
		}
	}
}

func TestDownsamplePreservesSpike(t *testing.T) {
	values := make([]float64, 500)
	for i := range values {
		values[i] = 10
	}
	values[237] = 95 // lone spike in otherwise flat data

	out := Downsample(makeSeries(values), 20)

	found := false
	for _, p := range out {
		if p.Value == 95 {
			found = true
		}
	}
	assert.True(t, found, "spike should survive downsampling")
}

func TestDownsampleTieBreaksTowardLargerValue(t *testing.T) {
	// interior bucket mean is 10; 13 and 7 deviate equally
	values := []float64{10, 13, 7, 10, 10, 10, 10, 10, 10, 10}
	out := Downsample(makeSeries(values), 3)

	if len(out) != 3 {
		t.Fatalf("expected 3 points, got %d", len(out))
	}
	assert.Equal(t, 13.0, out[1].Value)
}

func TestSummarizeRoundsToTwoDecimals(t *testing.T) {
	stats := summarize(makeSeries([]float64{1.111, 3.333, 2.222}))

	assert.Equal(t, 1.11, stats.Min)
	assert.Equal(t, 3.33, stats.Max)
	assert.Equal(t, 2.22, stats.Avg)
}

func TestExtractMetricSkipsNilValues(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	spd := 42.0
	series := []domain.SensorData{
		{Datetime: base, Speed: &spd},
		{Datetime: base.Add(time.Second)},
		{Datetime: base.Add(2 * time.Second), Speed: &spd},
	}

	points := extractMetric(series, func(d domain.SensorData) *float64 { return d.Speed })
	assert.Len(t, points, 2)
	assert.Equal(t, 42.0, points[0].Value)
}
