package usecase

import (
	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

type noopMetrics struct{}

func (noopMetrics) RecordUpload(string)                     {}
func (noopMetrics) RecordExtraction(domain.ExtractionOutcome) {}

func metricsOrNoop(m ports.PipelineMetrics) ports.PipelineMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
