package exif

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/geo"
)

var ErrNoGPS = errors.New("image has no usable GPS metadata")

// Reader pulls GPS coordinates and capture time from embedded EXIF data.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Read(ctx context.Context, imagePath string) (domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractionResult{}, err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("decode exif: %w", err)
	}

	lat, err := readCoordinate(x, goexif.GPSLatitude, goexif.GPSLatitudeRef)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	lng, err := readCoordinate(x, goexif.GPSLongitude, goexif.GPSLongitudeRef)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	if !geo.ValidPair(lat, lng) {
		return domain.ExtractionResult{}, fmt.Errorf("%w: %f,%f out of range", ErrNoGPS, lat, lng)
	}

	result := domain.ExtractionResult{Latitude: &lat, Longitude: &lng}
	if dt, err := x.DateTime(); err == nil {
		// EXIF times carry no zone; keep the wall clock as UTC like watermark times.
		ts := time.Date(dt.Year(), dt.Month(), dt.Day(), dt.Hour(), dt.Minute(), dt.Second(), 0, time.UTC)
		result.Timestamp = &ts
	}
	return result, nil
}

func readCoordinate(x *goexif.Exif, valueField, refField goexif.FieldName) (float64, error) {
	valueTag, err := x.Get(valueField)
	if err != nil {
		return 0, fmt.Errorf("%w: %s missing", ErrNoGPS, valueField)
	}
	refTag, err := x.Get(refField)
	if err != nil {
		return 0, fmt.Errorf("%w: %s missing", ErrNoGPS, refField)
	}

	parts, err := rationals(valueTag)
	if err != nil {
		return 0, err
	}
	ref, err := refTag.StringVal()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", refField, err)
	}
	return decodeCoordinate(parts, ref)
}

func rationals(tag *tiff.Tag) ([3]geo.Rational, error) {
	var out [3]geo.Rational
	if tag.Count < 3 {
		return out, fmt.Errorf("%w: expected 3 rationals, got %d", ErrNoGPS, tag.Count)
	}
	for i := range out {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return out, fmt.Errorf("read rational %d: %w", i, err)
		}
		out[i] = geo.Rational{Num: num, Den: den}
	}
	return out, nil
}

// decodeCoordinate converts degrees/minutes/seconds and an N/S/E/W ref
// into signed decimal degrees.
func decodeCoordinate(parts [3]geo.Rational, ref string) (float64, error) {
	ref = strings.ToUpper(strings.Trim(ref, " \x00"))
	if ref == "" {
		return 0, fmt.Errorf("%w: empty hemisphere reference", ErrNoGPS)
	}
	return geo.ToDecimalDegrees(parts[0], parts[1], parts[2], geo.Hemisphere(ref[:1]))
}
