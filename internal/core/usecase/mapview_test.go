package usecase

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func TestMapMarkersSkipUnlocatedIssues(t *testing.T) {
	repo := newIssueRepoFake(
		domain.Issue{ID: 1, IssueTypeName: "Pothole", Latitude: ptr(44.2), Longitude: ptr(26.1), ImageURL: "u1"},
		domain.Issue{ID: 2, IssueTypeName: "Pothole", ExtractionError: true},
		domain.Issue{ID: 3, IssueTypeName: "Graffiti", Latitude: ptr(44.4), Longitude: ptr(26.3), ImageURL: "u3"},
	)
	uc := NewMapUseCase(repo, cellIndexerFake{})

	markers, err := uc.Markers(context.Background(), domain.IssueFilter{})
	if err != nil {
		t.Fatalf("Markers() error = %v", err)
	}
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(markers))
	}
	for _, m := range markers {
		if m.Cell != "44:26" {
			t.Fatalf("expected cell index on marker, got %+v", m)
		}
	}
}

func TestMapCellsAggregateMarkers(t *testing.T) {
	repo := newIssueRepoFake(
		domain.Issue{ID: 1, Latitude: ptr(44.2), Longitude: ptr(26.2)},
		domain.Issue{ID: 2, Latitude: ptr(44.4), Longitude: ptr(26.4)},
		domain.Issue{ID: 3, Latitude: ptr(10.5), Longitude: ptr(20.5)},
	)
	uc := NewMapUseCase(repo, cellIndexerFake{})

	got, err := uc.Cells(context.Background(), domain.IssueFilter{})
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	want := []domain.CellCount{
		{Cell: "44:26", Lat: 44.3, Lng: 26.3, Count: 2},
		{Cell: "10:20", Lat: 10.5, Lng: 20.5, Count: 1},
	}
	approx := cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Fatalf("Cells() mismatch (-want +got):\n%s", diff)
	}
}
