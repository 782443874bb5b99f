package app

import (
	"context"
	"math"
	"time"

	"fleettrack/internal/domain"
)

// ChartSize is the target length of a downsampled chart series.
const ChartSize = 100

type ChartPoint struct {
	Datetime time.Time `json:"datetime"`
	Value    float64   `json:"value"`
}

type MetricStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

type TripStats struct {
	TripID           int64         `json:"tripId"`
	TotalPoints      int           `json:"totalPoints"`
	Temperature      *MetricStats  `json:"temperature,omitempty"`
	Humidity         *MetricStats  `json:"humidity,omitempty"`
	Speed            *MetricStats  `json:"speed,omitempty"`
	TemperatureChart []ChartPoint  `json:"temperatureChart,omitempty"`
	HumidityChart    []ChartPoint  `json:"humidityChart,omitempty"`
	SpeedChart       []ChartPoint  `json:"speedChart,omitempty"`
}

// Stats reduces a trip's sensor series into bounded chart series plus
// min/max/avg summaries per metric over the full series.
func (s *TripService) Stats(ctx context.Context, tripID, companyID int64) (*TripStats, error) {
	if _, err := s.trips.GetForCompany(ctx, tripID, companyID); err != nil {
		return nil, err
	}

	series, err := s.sensors.SeriesByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	stats := &TripStats{TripID: tripID, TotalPoints: len(series)}

	temperature := extractMetric(series, func(d domain.SensorData) *float64 { return d.Temperature })
	humidity := extractMetric(series, func(d domain.SensorData) *float64 { return d.Humidity })
	speed := extractMetric(series, func(d domain.SensorData) *float64 { return d.Speed })

	if len(temperature) > 0 {
		stats.Temperature = summarize(temperature)
		stats.TemperatureChart = Downsample(temperature, ChartSize)
	}
	if len(humidity) > 0 {
		stats.Humidity = summarize(humidity)
		stats.HumidityChart = Downsample(humidity, ChartSize)
	}
	if len(speed) > 0 {
		stats.Speed = summarize(speed)
		stats.SpeedChart = Downsample(speed, ChartSize)
	}

	return stats, nil
}

// Downsample compresses a chronological series to at most n points, keeping
// the first and last points and, per bucket of interior points, the single
// point deviating most from the bucket mean. Spikes and dips survive where
// uniform sampling would erase them.
func Downsample(series []ChartPoint, n int) []ChartPoint {
	if n < 3 || len(series) <= n {
		return series
	}

	interior := series[1 : len(series)-1]
	buckets := n - 2

	out := make([]ChartPoint, 0, n)
	out = append(out, series[0])

	for i := 0; i < buckets; i++ {
		start := i * len(interior) / buckets
		end := (i + 1) * len(interior) / buckets
		if start >= end {
			continue
		}

		var sum float64
		for _, p := range interior[start:end] {
			sum += p.Value
		}
		mean := sum / float64(end-start)

		best := interior[start]
		bestDev := math.Abs(best.Value - mean)
		for _, p := range interior[start+1 : end] {
			dev := math.Abs(p.Value - mean)
			// ties break toward the larger value
			if dev > bestDev || (dev == bestDev && p.Value > best.Value) {
				best = p
				bestDev = dev
			}
		}
		out = append(out, best)
	}

	return append(out, series[len(series)-1])
}

func extractMetric(series []domain.SensorData, pick func(domain.SensorData) *float64) []ChartPoint {
	var points []ChartPoint
	for _, d := range series {
		if v := pick(d); v != nil {
			points = append(points, ChartPoint{Datetime: d.Datetime, Value: *v})
		}
	}
	return points
}

func summarize(points []ChartPoint) *MetricStats {
	min := points[0].Value
	max := points[0].Value
	var sum float64

	for _, p := range points {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
		sum += p.Value
	}

	return &MetricStats{
		Min: round2(min),
		Max: round2(max),
		Avg: round2(sum / float64(len(points))),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
