package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

const recentWindow = 7 * 24 * time.Hour

type StatisticsUseCase struct {
	issues ports.IssueRepository
	now    func() time.Time
}

func NewStatisticsUseCase(issues ports.IssueRepository) *StatisticsUseCase {
	return &StatisticsUseCase{issues: issues, now: time.Now}
}

func (uc *StatisticsUseCase) Summary(ctx context.Context) (*domain.Summary, error) {
	succeeded, failed := false, true
	since := uc.now().UTC().Add(-recentWindow)

	var summary domain.Summary
	counts := []struct {
		dst    *int
		filter domain.IssueFilter
	}{
		{&summary.TotalIssues, domain.IssueFilter{}},
		{&summary.SuccessfulExtractions, domain.IssueFilter{ExtractionError: &succeeded}},
		{&summary.FailedExtractions, domain.IssueFilter{ExtractionError: &failed}},
		{&summary.RecentIssues, domain.IssueFilter{CreatedSince: &since}},
	}
	for _, c := range counts {
		n, err := uc.issues.Count(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("count issues: %w", err)
		}
		*c.dst = n
	}
	return &summary, nil
}

// ByType counts issues per type name, largest first.
func (uc *StatisticsUseCase) ByType(ctx context.Context) (*domain.TypeBreakdown, error) {
	items, err := uc.issues.List(ctx, domain.IssueFilter{})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	counts := map[string]int{}
	for _, item := range items {
		counts[item.IssueTypeName]++
	}
	labels := make([]string, 0, len(counts))
	for name := range counts {
		labels = append(labels, name)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	out := &domain.TypeBreakdown{Labels: labels, Data: make([]int, len(labels))}
	for i, label := range labels {
		out.Data[i] = counts[label]
	}
	return out, nil
}

// Timeline groups issues by the month of their watermark timestamp. Issues
// without a timestamp are left out.
func (uc *StatisticsUseCase) Timeline(ctx context.Context) (*domain.Timeline, error) {
	items, err := uc.issues.List(ctx, domain.IssueFilter{Order: domain.OrderByTimestamp})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	perMonth := map[monthKey]map[string]int{}
	typeSet := map[string]struct{}{}
	var months []monthKey

	for _, item := range items {
		if item.Timestamp == nil {
			continue
		}
		ts := item.Timestamp.UTC()
		key := monthKey{year: ts.Year(), month: ts.Month()}
		if _, ok := perMonth[key]; !ok {
			perMonth[key] = map[string]int{}
			months = append(months, key)
		}
		perMonth[key][item.IssueTypeName]++
		typeSet[item.IssueTypeName] = struct{}{}
	}

	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	types := make([]string, 0, len(typeSet))
	for name := range typeSet {
		types = append(types, name)
	}
	sort.Strings(types)

	out := &domain.Timeline{
		Labels:   make([]string, len(months)),
		Datasets: make([]domain.Dataset, 0, len(types)),
	}
	for i, m := range months {
		out.Labels[i] = time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
	}
	for _, name := range types {
		data := make([]int, len(months))
		for i, m := range months {
			data[i] = perMonth[m][name]
		}
		out.Datasets = append(out.Datasets, domain.Dataset{Label: name, Data: data})
	}
	return out, nil
}
