package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

type MapUseCase struct {
	issues  ports.IssueRepository
	indexer ports.CellIndexer
}

func NewMapUseCase(issues ports.IssueRepository, indexer ports.CellIndexer) *MapUseCase {
	return &MapUseCase{issues: issues, indexer: indexer}
}

// Markers returns one marker per located issue. Issues flagged with an
// extraction error are never shown, whatever the filter says.
func (uc *MapUseCase) Markers(ctx context.Context, filter domain.IssueFilter) ([]domain.Marker, error) {
	located := false
	filter.ExtractionError = &located

	items, err := uc.issues.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	markers := make([]domain.Marker, 0, len(items))
	for _, item := range items {
		if item.Latitude == nil || item.Longitude == nil {
			continue
		}
		marker := domain.Marker{
			ID:       item.ID,
			Lat:      *item.Latitude,
			Lng:      *item.Longitude,
			Type:     item.IssueTypeName,
			ImageURL: item.ImageURL,
		}
		if item.Timestamp != nil {
			ts := item.Timestamp.UTC().Format(time.RFC3339)
			marker.Timestamp = &ts
		}
		if uc.indexer != nil {
			cell, err := uc.indexer.Cell(marker.Lat, marker.Lng)
			if err != nil {
				slog.Warn("cell_index_failed", "issue_id", item.ID, "error", err)
			} else {
				marker.Cell = cell
			}
		}
		markers = append(markers, marker)
	}
	return markers, nil
}

// Cells aggregates markers per grid cell. The reported position is the mean
// of the markers inside the cell.
func (uc *MapUseCase) Cells(ctx context.Context, filter domain.IssueFilter) ([]domain.CellCount, error) {
	markers, err := uc.Markers(ctx, filter)
	if err != nil {
		return nil, err
	}

	byCell := map[string]*domain.CellCount{}
	for _, m := range markers {
		if m.Cell == "" {
			continue
		}
		agg, ok := byCell[m.Cell]
		if !ok {
			agg = &domain.CellCount{Cell: m.Cell}
			byCell[m.Cell] = agg
		}
		agg.Lat += m.Lat
		agg.Lng += m.Lng
		agg.Count++
	}

	out := make([]domain.CellCount, 0, len(byCell))
	for _, agg := range byCell {
		agg.Lat /= float64(agg.Count)
		agg.Lng /= float64(agg.Count)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cell < out[j].Cell
	})
	return out, nil
}
