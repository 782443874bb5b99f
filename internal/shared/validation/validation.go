package validation

import (
	"errors"
	"fmt"
	"time"

	"fleettrack/internal/domain"
)

// ValidateCoordinates validates latitude and longitude values
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateSpeed validates speed in km/h
func ValidateSpeed(speed float64) error {
	if speed < 0 {
		return errors.New("speed must be non-negative")
	}
	return nil
}

// ValidateBearing validates bearing in degrees
func ValidateBearing(bearing float64) error {
	if bearing < 0 || bearing > 360 {
		return errors.New("bearing must be between 0 and 360 degrees")
	}
	return nil
}

// ValidateHumidity validates relative humidity as a percentage
func ValidateHumidity(humidity float64) error {
	if humidity < 0 || humidity > 100 {
		return errors.New("humidity must be between 0 and 100")
	}
	return nil
}

// ValidateReading schema-checks one telemetry reading and returns its parsed
// timestamp. Failures wrap domain.ErrInvalidReading.
func ValidateReading(r domain.Reading) (time.Time, error) {
	if err := ValidateCoordinates(r.Latitude, r.Longitude); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidReading, err)
	}
	if r.Speed != nil {
		if err := ValidateSpeed(*r.Speed); err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidReading, err)
		}
	}
	if r.Bearing != nil {
		if err := ValidateBearing(*r.Bearing); err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidReading, err)
		}
	}
	if r.Humidity != nil {
		if err := ValidateHumidity(*r.Humidity); err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidReading, err)
		}
	}
	ts, err := time.Parse(time.RFC3339, r.Datetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datetime must be RFC3339", domain.ErrInvalidReading)
	}
	return ts, nil
}
