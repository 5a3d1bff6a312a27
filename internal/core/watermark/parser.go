// Package watermark turns the free-form reply of a vision model into
// structured coordinates and a capture timestamp.
package watermark

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/geo"
)

const notFound = "NOT FOUND"

var (
	labeledLatitude  = regexp.MustCompile(`(?i)LATITUDE:\s*([+-]?\d+\.?\d*)`)
	labeledLongitude = regexp.MustCompile(`(?i)LONGITUDE:\s*([+-]?\d+\.?\d*)`)
	labeledTimestamp = regexp.MustCompile(`(?i)TIMESTAMP:[ \t]*([^\r\n]+)`)
	labeledLocation  = regexp.MustCompile(`(?i)LOCATION:[ \t]*([^\r\n]+)`)

	latLongPhrase = regexp.MustCompile(`(?i)Lat\s+([+-]?\d+\.?\d*)[°\s]+Long\s+([+-]?\d+\.?\d*)`)
	decimalPair   = regexp.MustCompile(`([+-]?\d+\.\d+)\s*,?\s*([+-]?\d+\.\d+)`)
)

// Parse extracts latitude, longitude, timestamp and location from text.
// It never fails: unrecognized fields are left nil and the full text is kept
// in RawText.
func Parse(text string) domain.ExtractionResult {
	raw := text
	result := domain.ExtractionResult{
		RawText: &raw,
		Outcome: domain.OutcomeParsed,
	}

	result.Latitude = matchFloat(labeledLatitude, text)
	result.Longitude = matchFloat(labeledLongitude, text)
	if result.Located() && !geo.ValidPair(*result.Latitude, *result.Longitude) {
		result.Latitude, result.Longitude = nil, nil
	}
	result.Timestamp = parseLabeledTimestamp(text)
	result.Location = parseLabeledLocation(text)

	if !result.Located() {
		if lat, lng, ok := matchLatLongPhrase(text); ok {
			result.Latitude, result.Longitude = &lat, &lng
		}
	}
	if !result.Located() {
		if lat, lng, ok := matchDecimalPair(text); ok {
			result.Latitude, result.Longitude = &lat, &lng
		}
	}

	// Half-located results are never reported.
	if !result.Located() {
		result.Latitude, result.Longitude = nil, nil
	}
	return result
}

// ParseTimestamp accepts only the normalized YYYY-MM-DD HH:MM:SS form.
func ParseTimestamp(value string) (time.Time, bool) {
	ts, err := time.ParseInLocation(domain.TimestampLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func matchFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseLabeledTimestamp(text string) *time.Time {
	m := labeledTimestamp.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	value := strings.TrimSpace(m[1])
	if strings.EqualFold(value, notFound) {
		return nil
	}
	ts, ok := ParseTimestamp(value)
	if !ok {
		return nil
	}
	return &ts
}

func parseLabeledLocation(text string) *string {
	m := labeledLocation.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	value := strings.TrimSpace(m[1])
	if value == "" || strings.EqualFold(value, notFound) {
		return nil
	}
	return &value
}

func matchLatLongPhrase(text string) (float64, float64, bool) {
	m := latLongPhrase.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	lat, lng, ok := parsePair(m[1], m[2])
	if !ok || !geo.ValidPair(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

func matchDecimalPair(text string) (float64, float64, bool) {
	m := decimalPair.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	lat, lng, ok := parsePair(m[1], m[2])
	if !ok || !geo.ValidPair(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

func parsePair(latRaw, lngRaw string) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
