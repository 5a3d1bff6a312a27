package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

const defaultImageContentType = "image/jpeg"

type UploadConfig struct {
	TempDir      string
	ExifFallback bool
}

// UploadBatchUseCase turns a batch of uploaded images into stored issues.
// Each file succeeds or fails on its own; the batch never aborts halfway.
type UploadBatchUseCase struct {
	extractor ports.WatermarkExtractor
	exif      ports.ExifReader
	storage   ports.ObjectStorage
	issues    ports.IssueRepository
	cfg       UploadConfig
	metrics   ports.PipelineMetrics
	now       func() time.Time
}

func NewUploadBatchUseCase(
	extractor ports.WatermarkExtractor,
	exif ports.ExifReader,
	storage ports.ObjectStorage,
	issues ports.IssueRepository,
	cfg UploadConfig,
	metrics ports.PipelineMetrics,
) *UploadBatchUseCase {
	return &UploadBatchUseCase{
		extractor: extractor,
		exif:      exif,
		storage:   storage,
		issues:    issues,
		cfg:       cfg,
		metrics:   metricsOrNoop(metrics),
		now:       time.Now,
	}
}

func (uc *UploadBatchUseCase) ProcessBatch(
	ctx context.Context,
	files []domain.UploadFile,
	issueTypeIDs []int64,
) (*domain.BatchReport, error) {
	return uc.ProcessBatchWithProgress(ctx, files, issueTypeIDs, nil)
}

// ProcessBatchWithProgress is ProcessBatch with a callback invoked after
// every file, in input order.
func (uc *UploadBatchUseCase) ProcessBatchWithProgress(
	ctx context.Context,
	files []domain.UploadFile,
	issueTypeIDs []int64,
	onFile func(domain.FileOutcome),
) (*domain.BatchReport, error) {
	if len(files) != len(issueTypeIDs) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"process batch",
			fmt.Errorf("mismatch between files and issue types: %d files, %d issue types", len(files), len(issueTypeIDs)),
		)
	}

	report := &domain.BatchReport{
		Total:         len(files),
		FailedDetails: []domain.FailedDetail{},
	}

	for idx, file := range files {
		issue, err := uc.safeProcessFile(ctx, file, issueTypeIDs[idx])
		switch {
		case err != nil:
			report.Failed++
			report.FailedDetails = append(report.FailedDetails, domain.FailedDetail{
				Filename: file.Filename,
				Error:    err.Error(),
			})
			uc.metrics.RecordUpload("failed")
			slog.Error("upload_file_failed", "filename", file.Filename, "index", idx, "error", err)
		case issue.ExtractionError:
			report.Success++
			uc.metrics.RecordUpload("extraction_error")
			slog.Info("upload_file_stored", "filename", file.Filename, "issue_id", issue.ID, "extraction_error", true)
		default:
			report.Success++
			uc.metrics.RecordUpload("success")
			slog.Info("upload_file_stored", "filename", file.Filename, "issue_id", issue.ID, "extraction_error", false)
		}

		if onFile != nil {
			onFile(domain.FileOutcome{Index: idx, Filename: file.Filename, Issue: issue, Err: err})
		}
	}

	return report, nil
}

func (uc *UploadBatchUseCase) safeProcessFile(ctx context.Context, file domain.UploadFile, issueTypeID int64) (issue *domain.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issue = nil
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return uc.processFile(ctx, file, issueTypeID)
}

func (uc *UploadBatchUseCase) processFile(ctx context.Context, file domain.UploadFile, issueTypeID int64) (*domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if file.Open == nil {
		return nil, fmt.Errorf("file has no content")
	}

	body, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	tempPath, size, err := writeTempFile(uc.cfg.TempDir, file.Filename, body)
	_ = body.Close()
	if err != nil {
		return nil, err
	}
	defer removeTempFile(tempPath)

	result, err := uc.extractor.ExtractWatermarkData(ctx, tempPath)
	if err != nil {
		return nil, fmt.Errorf("extract watermark: %w", err)
	}
	result = uc.applyExifFallback(ctx, tempPath, result)

	stored, err := uc.store(ctx, file, tempPath, size)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		IssueTypeID: issueTypeID,
		ImageURL:    stored.URL,
		ImagePath:   stored.Path,
		CreatedAt:   uc.now().UTC(),
	}
	issue.ApplyExtraction(result)

	if err := uc.issues.Create(ctx, issue); err != nil {
		if delErr := uc.storage.Delete(ctx, stored.Path); delErr != nil {
			slog.Warn("orphan_object_cleanup_failed", "path", stored.Path, "error", delErr)
		}
		return nil, fmt.Errorf("save issue: %w", err)
	}
	return issue, nil
}

func (uc *UploadBatchUseCase) store(ctx context.Context, file domain.UploadFile, tempPath string, size int64) (domain.StoredObject, error) {
	f, err := os.Open(tempPath)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("reopen temp file: %w", err)
	}
	defer f.Close()

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultImageContentType
	}

	key := storageKey(uc.now(), file.Filename)
	stored, err := uc.storage.Upload(ctx, key, contentType, f, size)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("storage upload failed: %w", err)
	}
	return stored, nil
}

func (uc *UploadBatchUseCase) applyExifFallback(ctx context.Context, imagePath string, result domain.ExtractionResult) domain.ExtractionResult {
	if result.Located() || !uc.cfg.ExifFallback || uc.exif == nil {
		return result
	}

	meta, err := uc.exif.Read(ctx, imagePath)
	if err != nil {
		slog.Debug("exif_fallback_unavailable", "path", imagePath, "error", err)
		return result
	}
	if !meta.Located() {
		return result
	}

	merged := result
	merged.Latitude = meta.Latitude
	merged.Longitude = meta.Longitude
	if merged.Timestamp == nil {
		merged.Timestamp = meta.Timestamp
	}
	merged.Outcome = domain.OutcomeExifFallback
	uc.metrics.RecordExtraction(domain.OutcomeExifFallback)
	return merged
}

// storageKey is unique per upload and keeps a readable hint of the original
// filename, e.g. "2024/01/15/3f2a..._pothole_1.jpg".
func storageKey(now time.Time, filename string) string {
	return fmt.Sprintf("%s/%s_%s", now.UTC().Format("2006/01/02"), uuid.NewString(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	ext := imageExt(base)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		base = "image"
	}
	return base + ext
}
