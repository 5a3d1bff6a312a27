package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

// IssueRepository persists issue records.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id int64) (*domain.Issue, error)
	List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error)
	Count(ctx context.Context, filter domain.IssueFilter) (int, error)
	Update(ctx context.Context, issue *domain.Issue) error
	Delete(ctx context.Context, id int64) error
}

// IssueTypeRepository persists issue categories.
type IssueTypeRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.IssueType, error)
	GetByID(ctx context.Context, id int64) (*domain.IssueType, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, issueType *domain.IssueType) error
	Update(ctx context.Context, issueType *domain.IssueType) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository persists staff accounts.
type UserRepository interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// ObjectStorage stores original images and serves them by public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data io.Reader, size int64) (domain.StoredObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// VisionModel sends an image and an instruction to a hosted multimodal model
// and returns its text reply.
type VisionModel interface {
	GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// ExifReader reads GPS and capture time from embedded image metadata.
type ExifReader interface {
	Read(ctx context.Context, imagePath string) (domain.ExtractionResult, error)
}

// SessionStore keeps authenticated sessions keyed by an opaque id.
type SessionStore interface {
	Create(ctx context.Context, principal domain.Principal, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (*domain.Principal, error)
	Delete(ctx context.Context, sessionID string) error
}

// ReprocessQueue publishes/consumes reprocess requests.
type ReprocessQueue interface {
	PublishReprocess(ctx context.Context, issueID int64) error
	SubscribeReprocess(ctx context.Context, handler func(context.Context, int64) error) error
}

// SpreadsheetExporter renders issues as a workbook.
type SpreadsheetExporter interface {
	Issues(issues []domain.Issue) ([]byte, error)
}

// CellIndexer maps coordinates to a hierarchical grid cell.
type CellIndexer interface {
	Cell(lat, lng float64) (string, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// PipelineMetrics records upload and extraction outcomes.
type PipelineMetrics interface {
	RecordUpload(outcome string)
	RecordExtraction(outcome domain.ExtractionOutcome)
}
