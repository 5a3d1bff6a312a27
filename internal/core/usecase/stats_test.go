package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func statsFixture(now time.Time) *issueRepoFake {
	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC)
	return newIssueRepoFake(
		domain.Issue{ID: 1, IssueTypeName: "Pothole", Timestamp: &feb, CreatedAt: now.Add(-time.Hour)},
		domain.Issue{ID: 2, IssueTypeName: "Pothole", Timestamp: &jan, CreatedAt: now.Add(-30 * 24 * time.Hour)},
		domain.Issue{ID: 3, IssueTypeName: "Graffiti", Timestamp: &jan, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		domain.Issue{ID: 4, IssueTypeName: "Graffiti", ExtractionError: true, CreatedAt: now.Add(-40 * 24 * time.Hour)},
	)
}

func TestStatisticsSummary(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := NewStatisticsUseCase(statsFixture(now))
	uc.now = func() time.Time { return now }

	got, err := uc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	want := &domain.Summary{TotalIssues: 4, SuccessfulExtractions: 3, FailedExtractions: 1, RecentIssues: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Summary() mismatch (-want +got):\n%s", diff)
	}
}

func TestStatisticsByType(t *testing.T) {
	uc := NewStatisticsUseCase(newIssueRepoFake(
		domain.Issue{ID: 1, IssueTypeName: "Graffiti"},
		domain.Issue{ID: 2, IssueTypeName: "Pothole"},
		domain.Issue{ID: 3, IssueTypeName: "Pothole"},
	))

	got, err := uc.ByType(context.Background())
	if err != nil {
		t.Fatalf("ByType() error = %v", err)
	}
	want := &domain.TypeBreakdown{Labels: []string{"Pothole", "Graffiti"}, Data: []int{2, 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ByType() mismatch (-want +got):\n%s", diff)
	}
}

func TestStatisticsTimeline(t *testing.T) {
	uc := NewStatisticsUseCase(statsFixture(time.Now()))

	got, err := uc.Timeline(context.Background())
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	want := &domain.Timeline{
		Labels: []string{"Jan 2024", "Feb 2024"},
		Datasets: []domain.Dataset{
			{Label: "Graffiti", Data: []int{1, 0}},
			{Label: "Pothole", Data: []int{1, 1}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Timeline() mismatch (-want +got):\n%s", diff)
	}
}
