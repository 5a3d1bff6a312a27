package h3index

import (
	"fmt"

	"github.com/uber/h3-go/v4"

	"github.com/kirillkom/civic-issues/internal/core/geo"
)

// DefaultResolution groups markers into cells of roughly 0.1 km².
const DefaultResolution = 9

type Indexer struct {
	resolution int
}

func New(resolution int) (*Indexer, error) {
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("h3 resolution %d out of range [0,15]", resolution)
	}
	return &Indexer{resolution: resolution}, nil
}

func (i *Indexer) Resolution() int {
	return i.resolution
}

func (i *Indexer) Cell(lat, lng float64) (string, error) {
	if !geo.ValidPair(lat, lng) {
		return "", fmt.Errorf("coordinates %f,%f out of range", lat, lng)
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), i.resolution)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return cell.String(), nil
}
