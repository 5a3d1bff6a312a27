package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/geo"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

type IssueUseCase struct {
	issues   ports.IssueRepository
	types    ports.IssueTypeRepository
	storage  ports.ObjectStorage
	queue    ports.ReprocessQueue
	exporter ports.SpreadsheetExporter
}

func NewIssueUseCase(
	issues ports.IssueRepository,
	types ports.IssueTypeRepository,
	storage ports.ObjectStorage,
	queue ports.ReprocessQueue,
	exporter ports.SpreadsheetExporter,
) *IssueUseCase {
	return &IssueUseCase{
		issues:   issues,
		types:    types,
		storage:  storage,
		queue:    queue,
		exporter: exporter,
	}
}

func (uc *IssueUseCase) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	items, err := uc.issues.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return items, nil
}

func (uc *IssueUseCase) Get(ctx context.Context, id int64) (*domain.Issue, error) {
	return uc.issues.GetByID(ctx, id)
}

func (uc *IssueUseCase) Update(ctx context.Context, id int64, patch domain.IssuePatch) (*domain.Issue, error) {
	issue, err := uc.issues.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.IssueTypeID != nil {
		issueType, err := uc.types.GetByID(ctx, *patch.IssueTypeID)
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				return nil, domain.WrapError(domain.ErrInvalidInput, "update issue", fmt.Errorf("unknown issue type %d", *patch.IssueTypeID))
			}
			return nil, err
		}
		issue.IssueTypeID = issueType.ID
		issue.IssueTypeName = issueType.Name
	}

	switch {
	case patch.ClearCoordinates:
		issue.Latitude, issue.Longitude = nil, nil
		issue.ExtractionError = true
		issue.ErrorMessage = domain.ExtractionErrorMessage
	case patch.Latitude != nil || patch.Longitude != nil:
		if patch.Latitude == nil || patch.Longitude == nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update issue", errors.New("latitude and longitude must be set together"))
		}
		if !geo.ValidPair(*patch.Latitude, *patch.Longitude) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update issue", errors.New("coordinates out of range"))
		}
		lat, lng := *patch.Latitude, *patch.Longitude
		issue.Latitude, issue.Longitude = &lat, &lng
		issue.ExtractionError = false
		issue.ErrorMessage = ""
	}

	if patch.Timestamp != nil {
		ts := patch.Timestamp.UTC()
		issue.Timestamp = &ts
	}

	if err := uc.issues.Update(ctx, issue); err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}
	return issue, nil
}

func (uc *IssueUseCase) Delete(ctx context.Context, id int64) error {
	issue, err := uc.issues.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.issues.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if issue.ImagePath != "" {
		if err := uc.storage.Delete(ctx, issue.ImagePath); err != nil {
			slog.Warn("issue_image_delete_failed", "issue_id", id, "path", issue.ImagePath, "error", err)
		}
	}
	return nil
}

func (uc *IssueUseCase) ListExtractionErrors(ctx context.Context) ([]domain.Issue, error) {
	failed := true
	return uc.List(ctx, domain.IssueFilter{ExtractionError: &failed})
}

func (uc *IssueUseCase) ExportXLSX(ctx context.Context) ([]byte, error) {
	if uc.exporter == nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "export xlsx", errors.New("spreadsheet exporter is not configured"))
	}
	items, err := uc.List(ctx, domain.IssueFilter{})
	if err != nil {
		return nil, err
	}
	data, err := uc.exporter.Issues(items)
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return data, nil
}

func (uc *IssueUseCase) ExportCSV(ctx context.Context) ([]byte, error) {
	items, err := uc.List(ctx, domain.IssueFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "type", "latitude", "longitude", "timestamp"})
	for _, item := range items {
		_ = w.Write([]string{
			strconv.FormatInt(item.ID, 10),
			item.IssueTypeName,
			formatCoordinate(item.Latitude),
			formatCoordinate(item.Longitude),
			formatTimestamp(item.Timestamp),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (uc *IssueUseCase) RequestReprocess(ctx context.Context, id int64) error {
	if uc.queue == nil {
		return domain.WrapError(domain.ErrConfiguration, "request reprocess", errors.New("reprocess queue is not configured"))
	}
	if _, err := uc.issues.GetByID(ctx, id); err != nil {
		return err
	}
	if err := uc.queue.PublishReprocess(ctx, id); err != nil {
		return fmt.Errorf("publish reprocess request: %w", err)
	}
	return nil
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(domain.TimestampLayout)
}
