package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/civic-issues/internal/core/ports"
)

// ReprocessIssueUseCase re-runs watermark extraction on an issue's stored
// image. It runs in the worker, fed by the reprocess queue.
type ReprocessIssueUseCase struct {
	issues    ports.IssueRepository
	storage   ports.ObjectStorage
	extractor ports.WatermarkExtractor
	tempDir   string
}

func NewReprocessIssueUseCase(
	issues ports.IssueRepository,
	storage ports.ObjectStorage,
	extractor ports.WatermarkExtractor,
	tempDir string,
) *ReprocessIssueUseCase {
	return &ReprocessIssueUseCase{
		issues:    issues,
		storage:   storage,
		extractor: extractor,
		tempDir:   tempDir,
	}
}

func (uc *ReprocessIssueUseCase) ReprocessByID(ctx context.Context, issueID int64) error {
	issue, err := uc.issues.GetByID(ctx, issueID)
	if err != nil {
		return fmt.Errorf("load issue: %w", err)
	}

	body, err := uc.storage.Open(ctx, issue.ImagePath)
	if err != nil {
		return fmt.Errorf("open stored image: %w", err)
	}
	tempPath, _, err := writeTempFile(uc.tempDir, issue.ImagePath, body)
	_ = body.Close()
	if err != nil {
		return err
	}
	defer removeTempFile(tempPath)

	result, err := uc.extractor.ExtractWatermarkData(ctx, tempPath)
	if err != nil {
		return fmt.Errorf("extract watermark: %w", err)
	}

	// Never overwrite good coordinates with a failed attempt.
	if !result.Located() && !issue.ExtractionError {
		slog.Info("reprocess_kept_existing", "issue_id", issueID, "outcome", result.Outcome)
		return nil
	}

	issue.ApplyExtraction(result)
	if err := uc.issues.Update(ctx, issue); err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	slog.Info("reprocess_completed", "issue_id", issueID, "located", result.Located(), "outcome", result.Outcome)
	return nil
}
