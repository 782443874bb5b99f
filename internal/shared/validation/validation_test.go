package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fleettrack/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestValidateReading(t *testing.T) {
	r := domain.Reading{
		Latitude:  51.128,
		Longitude: 71.43,
		Speed:     ptr(60),
		Bearing:   ptr(180),
		Humidity:  ptr(45),
		Datetime:  "2026-03-01T12:00:00Z",
	}

	ts, err := ValidateReading(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ts)
}

func TestValidateReadingRejections(t *testing.T) {
	good := func() domain.Reading {
		return domain.Reading{Latitude: 1, Longitude: 1, Datetime: "2026-03-01T12:00:00Z"}
	}

	cases := []struct {
		name   string
		mutate func(*domain.Reading)
	}{
		{"latitude too high", func(r *domain.Reading) { r.Latitude = 90.01 }},
		{"latitude too low", func(r *domain.Reading) { r.Latitude = -91 }},
		{"longitude too high", func(r *domain.Reading) { r.Longitude = 181 }},
		{"negative speed", func(r *domain.Reading) { r.Speed = ptr(-1) }},
		{"bearing out of range", func(r *domain.Reading) { r.Bearing = ptr(361) }},
		{"humidity out of range", func(r *domain.Reading) { r.Humidity = ptr(101) }},
		{"bad datetime", func(r *domain.Reading) { r.Datetime = "2026-03-01 12:00:00" }},
		{"empty datetime", func(r *domain.Reading) { r.Datetime = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := good()
			tc.mutate(&r)
			_, err := ValidateReading(r)
			assert.ErrorIs(t, err, domain.ErrInvalidReading)
		})
	}
}

func TestValidateReadingBoundaryValues(t *testing.T) {
	r := domain.Reading{
		Latitude:  -90,
		Longitude: 180,
		Speed:     ptr(0),
		Bearing:   ptr(360),
		Humidity:  ptr(100),
		Datetime:  "2026-03-01T12:00:00+05:00",
	}

	_, err := ValidateReading(r)
	assert.NoError(t, err)
}
