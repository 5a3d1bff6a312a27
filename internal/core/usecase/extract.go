package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
	"github.com/kirillkom/civic-issues/internal/core/watermark"
)

type ExtractConfig struct {
	ProjectID string
	Location  string
}

func (c ExtractConfig) validate() error {
	var missing []string
	if strings.TrimSpace(c.ProjectID) == "" {
		missing = append(missing, "GCP_PROJECT_ID")
	}
	if strings.TrimSpace(c.Location) == "" {
		missing = append(missing, "GCP_LOCATION")
	}
	if len(missing) > 0 {
		return domain.WrapError(
			domain.ErrConfiguration,
			"extract watermark",
			fmt.Errorf("%s must be set", strings.Join(missing, " and ")),
		)
	}
	return nil
}

// ExtractWatermarkUseCase sends one image to the vision model and parses its
// reply into an ExtractionResult.
type ExtractWatermarkUseCase struct {
	model   ports.VisionModel
	cfg     ExtractConfig
	metrics ports.PipelineMetrics
}

func NewExtractWatermarkUseCase(model ports.VisionModel, cfg ExtractConfig, metrics ports.PipelineMetrics) *ExtractWatermarkUseCase {
	return &ExtractWatermarkUseCase{
		model:   model,
		cfg:     cfg,
		metrics: metricsOrNoop(metrics),
	}
}

// ExtractWatermarkData returns an error only for missing configuration, an
// unreadable image or a cancelled context. Model failures and empty replies
// yield an all-absent result whose Outcome tells them apart.
func (uc *ExtractWatermarkUseCase) ExtractWatermarkData(ctx context.Context, imagePath string) (domain.ExtractionResult, error) {
	if err := uc.cfg.validate(); err != nil {
		return domain.ExtractionResult{}, err
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("read image: %w", err)
	}

	text, err := uc.model.GenerateFromImage(ctx, watermark.Prompt, image, watermark.MimeType)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.ExtractionResult{}, err
		}
		slog.Error("watermark_extraction_failed",
			"path", imagePath,
			"image_bytes", len(image),
			"temporary", domain.IsKind(err, domain.ErrTemporary),
			"error", err,
		)
		return uc.finish(domain.ExtractionResult{Outcome: domain.OutcomeServiceError}), nil
	}

	if strings.TrimSpace(text) == "" {
		slog.Warn("watermark_extraction_empty", "path", imagePath, "image_bytes", len(image))
		return uc.finish(domain.ExtractionResult{Outcome: domain.OutcomeEmptyResponse}), nil
	}

	result := watermark.Parse(text)
	slog.Debug("watermark_extraction_parsed",
		"path", imagePath,
		"located", result.Located(),
		"has_timestamp", result.Timestamp != nil,
	)
	return uc.finish(result), nil
}

func (uc *ExtractWatermarkUseCase) finish(result domain.ExtractionResult) domain.ExtractionResult {
	uc.metrics.RecordExtraction(result.Outcome)
	return result
}
