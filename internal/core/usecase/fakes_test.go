package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

type issueRepoFake struct {
	items     map[int64]domain.Issue
	nextID    int64
	createErr error
	updated   []domain.Issue
	deleted   []int64
}

func newIssueRepoFake(items ...domain.Issue) *issueRepoFake {
	f := &issueRepoFake{items: map[int64]domain.Issue{}}
	for _, item := range items {
		f.items[item.ID] = item
		if item.ID > f.nextID {
			f.nextID = item.ID
		}
	}
	return f
}

func (f *issueRepoFake) Create(_ context.Context, issue *domain.Issue) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	issue.ID = f.nextID
	f.items[issue.ID] = *issue
	return nil
}

func (f *issueRepoFake) GetByID(_ context.Context, id int64) (*domain.Issue, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get issue", fmt.Errorf("issue %d", id))
	}
	return &item, nil
}

func (f *issueRepoFake) List(_ context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	out := make([]domain.Issue, 0, len(f.items))
	for _, item := range f.items {
		if matchesFilter(item, filter) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *issueRepoFake) Count(ctx context.Context, filter domain.IssueFilter) (int, error) {
	items, err := f.List(ctx, filter)
	return len(items), err
}

func (f *issueRepoFake) Update(_ context.Context, issue *domain.Issue) error {
	if _, ok := f.items[issue.ID]; !ok {
		return domain.WrapError(domain.ErrNotFound, "update issue", fmt.Errorf("issue %d", issue.ID))
	}
	f.items[issue.ID] = *issue
	f.updated = append(f.updated, *issue)
	return nil
}

func (f *issueRepoFake) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func matchesFilter(item domain.Issue, filter domain.IssueFilter) bool {
	if filter.IssueTypeID != 0 && item.IssueTypeID != filter.IssueTypeID {
		return false
	}
	if filter.ExtractionError != nil && item.ExtractionError != *filter.ExtractionError {
		return false
	}
	if filter.CreatedSince != nil && item.CreatedAt.Before(*filter.CreatedSince) {
		return false
	}
	if filter.TimestampFrom != nil && (item.Timestamp == nil || item.Timestamp.Before(*filter.TimestampFrom)) {
		return false
	}
	if filter.TimestampTo != nil && (item.Timestamp == nil || item.Timestamp.After(*filter.TimestampTo)) {
		return false
	}
	return true
}

type storageFake struct {
	uploads   map[string][]byte
	failOn    map[string]bool
	openBody  string
	deleted   []string
	uploadSeq int
}

func newStorageFake() *storageFake {
	return &storageFake{uploads: map[string][]byte{}, failOn: map[string]bool{}}
}

// failOn is keyed by the sequence number of the upload call, starting at 1.
func (f *storageFake) Upload(_ context.Context, key, _ string, data io.Reader, _ int64) (domain.StoredObject, error) {
	f.uploadSeq++
	if f.failOn[fmt.Sprint(f.uploadSeq)] {
		return domain.StoredObject{}, errors.New("bucket unavailable")
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return domain.StoredObject{}, err
	}
	f.uploads[key] = raw
	return domain.StoredObject{Path: key, URL: "https://cdn.test/issues/" + key}, nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.openBody)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.uploads, key)
	return nil
}

// extractorFake returns results keyed by the content of the image file, which
// also proves the file still exists when extraction runs.
type extractorFake struct {
	byContent map[string]domain.ExtractionResult
	err       error
	paths     []string
}

func (f *extractorFake) ExtractWatermarkData(_ context.Context, imagePath string) (domain.ExtractionResult, error) {
	f.paths = append(f.paths, imagePath)
	if f.err != nil {
		return domain.ExtractionResult{}, f.err
	}
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return f.byContent[string(raw)], nil
}

type visionFake struct {
	text     string
	err      error
	calls    int
	prompt   string
	image    []byte
	mimeType string
}

func (f *visionFake) GenerateFromImage(_ context.Context, prompt string, image []byte, mimeType string) (string, error) {
	f.calls++
	f.prompt = prompt
	f.image = image
	f.mimeType = mimeType
	return f.text, f.err
}

type exifFake struct {
	result domain.ExtractionResult
	err    error
	calls  int
}

func (f *exifFake) Read(context.Context, string) (domain.ExtractionResult, error) {
	f.calls++
	return f.result, f.err
}

type metricsFake struct {
	uploads     map[string]int
	extractions map[domain.ExtractionOutcome]int
}

func newMetricsFake() *metricsFake {
	return &metricsFake{uploads: map[string]int{}, extractions: map[domain.ExtractionOutcome]int{}}
}

func (f *metricsFake) RecordUpload(outcome string) { f.uploads[outcome]++ }
func (f *metricsFake) RecordExtraction(outcome domain.ExtractionOutcome) {
	f.extractions[outcome]++
}

type issueTypeRepoFake struct {
	items  map[int64]domain.IssueType
	nextID int64
}

func newIssueTypeRepoFake(items ...domain.IssueType) *issueTypeRepoFake {
	f := &issueTypeRepoFake{items: map[int64]domain.IssueType{}}
	for _, item := range items {
		f.items[item.ID] = item
		if item.ID > f.nextID {
			f.nextID = item.ID
		}
	}
	return f
}

func (f *issueTypeRepoFake) List(_ context.Context, activeOnly bool) ([]domain.IssueType, error) {
	var out []domain.IssueType
	for _, item := range f.items {
		if activeOnly && !item.Active {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *issueTypeRepoFake) GetByID(_ context.Context, id int64) (*domain.IssueType, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get issue type", fmt.Errorf("issue type %d", id))
	}
	return &item, nil
}

func (f *issueTypeRepoFake) ExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, item := range f.items {
		if item.ID != excludeID && strings.EqualFold(item.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *issueTypeRepoFake) Create(_ context.Context, issueType *domain.IssueType) error {
	f.nextID++
	issueType.ID = f.nextID
	f.items[issueType.ID] = *issueType
	return nil
}

func (f *issueTypeRepoFake) Update(_ context.Context, issueType *domain.IssueType) error {
	f.items[issueType.ID] = *issueType
	return nil
}

func (f *issueTypeRepoFake) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

type userRepoFake struct {
	items  map[int64]domain.User
	nextID int64
}

func newUserRepoFake(items ...domain.User) *userRepoFake {
	f := &userRepoFake{items: map[int64]domain.User{}}
	for _, item := range items {
		f.items[item.ID] = item
		if item.ID > f.nextID {
			f.nextID = item.ID
		}
	}
	return f
}

func (f *userRepoFake) Count(context.Context) (int, error) { return len(f.items), nil }

func (f *userRepoFake) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *userRepoFake) GetByID(_ context.Context, id int64) (*domain.User, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get user", fmt.Errorf("user %d", id))
	}
	return &item, nil
}

func (f *userRepoFake) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, item := range f.items {
		if item.Email == email {
			return &item, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get user", fmt.Errorf("user %s", email))
}

func (f *userRepoFake) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, item := range f.items {
		if item.ID != excludeID && item.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *userRepoFake) Create(_ context.Context, user *domain.User) error {
	f.nextID++
	user.ID = f.nextID
	f.items[user.ID] = *user
	return nil
}

func (f *userRepoFake) Update(_ context.Context, user *domain.User) error {
	f.items[user.ID] = *user
	return nil
}

func (f *userRepoFake) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

type sessionFake struct {
	items map[string]domain.Principal
	ttl   time.Duration
}

func newSessionFake() *sessionFake { return &sessionFake{items: map[string]domain.Principal{}} }

func (f *sessionFake) Create(_ context.Context, principal domain.Principal, ttl time.Duration) (string, error) {
	id := fmt.Sprintf("session-%d", len(f.items)+1)
	f.items[id] = principal
	f.ttl = ttl
	return id, nil
}

func (f *sessionFake) Get(_ context.Context, id string) (*domain.Principal, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *sessionFake) Delete(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

// plainHasher keeps tests fast; bcrypt is covered separately.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Verify(hash, password string) bool   { return hash == "hashed:"+password }

type queueFake struct {
	published []int64
	err       error
}

func (f *queueFake) PublishReprocess(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func (f *queueFake) SubscribeReprocess(context.Context, func(context.Context, int64) error) error {
	return errors.New("not implemented")
}

type exporterFake struct {
	rows int
}

func (f *exporterFake) Issues(items []domain.Issue) ([]byte, error) {
	f.rows = len(items)
	return []byte("xlsx"), nil
}

type cellIndexerFake struct{}

func (cellIndexerFake) Cell(lat, lng float64) (string, error) {
	return fmt.Sprintf("%d:%d", int(lat), int(lng)), nil
}

func uploadFile(name, content string) domain.UploadFile {
	return domain.UploadFile{
		Filename:    name,
		ContentType: "image/jpeg",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(content)), nil
		},
	}
}

func ptr[T any](v T) *T { return &v }
