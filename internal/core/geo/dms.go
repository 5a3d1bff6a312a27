// Package geo converts and validates geographic coordinates.
package geo

import (
	"errors"
	"fmt"
)

var (
	ErrZeroDenominator   = errors.New("geo: zero denominator")
	ErrInvalidHemisphere = errors.New("geo: invalid hemisphere")
)

type Hemisphere string

const (
	North Hemisphere = "N"
	South Hemisphere = "S"
	East  Hemisphere = "E"
	West  Hemisphere = "W"
)

// Rational is an EXIF-style numerator/denominator pair.
type Rational struct {
	Num int64
	Den int64
}

func (r Rational) Float() (float64, error) {
	if r.Den == 0 {
		return 0, fmt.Errorf("%w: %d/0", ErrZeroDenominator, r.Num)
	}
	return float64(r.Num) / float64(r.Den), nil
}

// ToDecimalDegrees converts a degrees/minutes/seconds tuple to signed decimal
// degrees. The result is not range checked.
func ToDecimalDegrees(deg, min, sec Rational, hemisphere Hemisphere) (float64, error) {
	var sign float64
	switch hemisphere {
	case North, East:
		sign = 1
	case South, West:
		sign = -1
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidHemisphere, string(hemisphere))
	}

	d, err := deg.Float()
	if err != nil {
		return 0, fmt.Errorf("degrees: %w", err)
	}
	m, err := min.Float()
	if err != nil {
		return 0, fmt.Errorf("minutes: %w", err)
	}
	s, err := sec.Float()
	if err != nil {
		return 0, fmt.Errorf("seconds: %w", err)
	}

	return sign * (d + m/60.0 + s/3600.0), nil
}

func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

func ValidPair(lat, lng float64) bool {
	return ValidLatitude(lat) && ValidLongitude(lng)
}
