package ports

import (
	"context"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

// WatermarkExtractor is the inbound contract of the extraction orchestrator.
type WatermarkExtractor interface {
	ExtractWatermarkData(ctx context.Context, imagePath string) (domain.ExtractionResult, error)
}

// BatchUploader processes a batch of uploaded images into issues.
type BatchUploader interface {
	ProcessBatch(ctx context.Context, files []domain.UploadFile, issueTypeIDs []int64) (*domain.BatchReport, error)
}

// IssueService is the inbound contract for browsing and correcting issues.
type IssueService interface {
	List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error)
	Get(ctx context.Context, id int64) (*domain.Issue, error)
	Update(ctx context.Context, id int64, patch domain.IssuePatch) (*domain.Issue, error)
	Delete(ctx context.Context, id int64) error
	ListExtractionErrors(ctx context.Context) ([]domain.Issue, error)
	ExportXLSX(ctx context.Context) ([]byte, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	RequestReprocess(ctx context.Context, id int64) error
}

// IssueReprocessor re-runs extraction for a stored issue.
type IssueReprocessor interface {
	ReprocessByID(ctx context.Context, issueID int64) error
}

// IssueTypeCatalog manages the issue categories offered at upload time.
type IssueTypeCatalog interface {
	ListActive(ctx context.Context) ([]domain.IssueType, error)
	ListAll(ctx context.Context) ([]domain.IssueType, error)
	Create(ctx context.Context, name string, active bool) (*domain.IssueType, error)
	Update(ctx context.Context, id int64, name string, active bool) (*domain.IssueType, error)
	Delete(ctx context.Context, id int64) error
}

// Authenticator handles first-run setup, login and per-request identity.
type Authenticator interface {
	SetupNeeded(ctx context.Context) (bool, error)
	Setup(ctx context.Context, email, password, confirm string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.Principal, error)
	Logout(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, sessionID string) (*domain.Principal, error)
}

// UserAdministrator is the admin-only user management contract.
type UserAdministrator interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, in domain.UserInput) (*domain.User, error)
	Update(ctx context.Context, actor domain.Principal, id int64, in domain.UserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Principal, id int64) error
}

// StatisticsService feeds the dashboard charts.
type StatisticsService interface {
	Summary(ctx context.Context) (*domain.Summary, error)
	ByType(ctx context.Context) (*domain.TypeBreakdown, error)
	Timeline(ctx context.Context) (*domain.Timeline, error)
}

// MapService feeds the map view.
type MapService interface {
	Markers(ctx context.Context, filter domain.IssueFilter) ([]domain.Marker, error)
	Cells(ctx context.Context, filter domain.IssueFilter) ([]domain.CellCount, error)
}
