package httpadapter

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

const (
	adminSession    = "admin-session"
	employeeSession = "employee-session"
)

type authFake struct {
	setupNeeded bool
	loginErr    error
	loggedOut   []string
}

func (f *authFake) SetupNeeded(context.Context) (bool, error) { return f.setupNeeded, nil }

func (f *authFake) Setup(_ context.Context, email, password, confirm string) (*domain.User, error) {
	if !f.setupNeeded {
		return nil, domain.WrapError(domain.ErrConflict, "setup", errors.New("already configured"))
	}
	if password != confirm {
		return nil, domain.WrapError(domain.ErrInvalidInput, "setup", errors.New("passwords do not match"))
	}
	return &domain.User{ID: 1, Email: email, Role: domain.RoleAdmin, Active: true}, nil
}

func (f *authFake) Login(_ context.Context, email, _ string) (string, *domain.Principal, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "new-session", &domain.Principal{UserID: 2, Email: email, Role: domain.RoleEmployee}, nil
}

func (f *authFake) Logout(_ context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

func (f *authFake) Resolve(_ context.Context, sessionID string) (*domain.Principal, error) {
	switch sessionID {
	case adminSession:
		return &domain.Principal{UserID: 1, Email: "admin@city.gov", Role: domain.RoleAdmin}, nil
	case employeeSession:
		return &domain.Principal{UserID: 2, Email: "clerk@city.gov", Role: domain.RoleEmployee}, nil
	default:
		return nil, domain.WrapError(domain.ErrUnauthorized, "resolve session", errors.New("session expired"))
	}
}

type issuesFake struct {
	items       []domain.Issue
	err         error
	lastFilter  domain.IssueFilter
	lastPatch   domain.IssuePatch
	reprocessed []int64
}

func (f *issuesFake) List(_ context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	f.lastFilter = filter
	return f.items, f.err
}

func (f *issuesFake) Get(_ context.Context, id int64) (*domain.Issue, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get issue", errors.New("no such issue"))
}

func (f *issuesFake) Update(ctx context.Context, id int64, patch domain.IssuePatch) (*domain.Issue, error) {
	f.lastPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	return f.Get(ctx, id)
}

func (f *issuesFake) Delete(ctx context.Context, id int64) error {
	_, err := f.Get(ctx, id)
	return err
}

func (f *issuesFake) ListExtractionErrors(context.Context) ([]domain.Issue, error) {
	return nil, f.err
}

func (f *issuesFake) ExportXLSX(context.Context) ([]byte, error) { return []byte("PK"), f.err }

func (f *issuesFake) ExportCSV(context.Context) ([]byte, error) {
	return []byte("id,type,latitude,longitude,timestamp\n"), f.err
}

func (f *issuesFake) RequestReprocess(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.reprocessed = append(f.reprocessed, id)
	return nil
}

type issueTypesFake struct {
	deleteErr error
}

func (f *issueTypesFake) ListActive(context.Context) ([]domain.IssueType, error) {
	return []domain.IssueType{{ID: 1, Name: "Pothole", Active: true}}, nil
}

func (f *issueTypesFake) ListAll(ctx context.Context) ([]domain.IssueType, error) {
	return f.ListActive(ctx)
}

func (f *issueTypesFake) Create(_ context.Context, name string, active bool) (*domain.IssueType, error) {
	return &domain.IssueType{ID: 9, Name: name, Active: active}, nil
}

func (f *issueTypesFake) Update(_ context.Context, id int64, name string, active bool) (*domain.IssueType, error) {
	return &domain.IssueType{ID: id, Name: name, Active: active}, nil
}

func (f *issueTypesFake) Delete(context.Context, int64) error { return f.deleteErr }

type usersFake struct {
	created  []domain.UserInput
	deletion struct {
		actor domain.Principal
		id    int64
	}
}

func (f *usersFake) List(context.Context) ([]domain.User, error) { return nil, nil }

func (f *usersFake) Create(_ context.Context, in domain.UserInput) (*domain.User, error) {
	f.created = append(f.created, in)
	return &domain.User{ID: 5, Email: in.Email, Role: in.Role, Active: in.Active}, nil
}

func (f *usersFake) Update(_ context.Context, _ domain.Principal, id int64, in domain.UserInput) (*domain.User, error) {
	return &domain.User{ID: id, Email: in.Email, Role: in.Role, Active: in.Active}, nil
}

func (f *usersFake) Delete(_ context.Context, actor domain.Principal, id int64) error {
	f.deletion.actor = actor
	f.deletion.id = id
	if actor.UserID == id {
		return domain.WrapError(domain.ErrInvalidInput, "delete user", errors.New("cannot delete yourself"))
	}
	return nil
}

type uploadedFile struct {
	name    string
	content string
}

type uploaderFake struct {
	files []uploadedFile
	ids   []int64
}

func (f *uploaderFake) ProcessBatch(_ context.Context, files []domain.UploadFile, ids []int64) (*domain.BatchReport, error) {
	if len(files) != len(ids) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process batch", errors.New("mismatch between files and issue types"))
	}
	for _, file := range files {
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		f.files = append(f.files, uploadedFile{name: file.Filename, content: string(data)})
	}
	f.ids = ids
	return &domain.BatchReport{Success: len(files), Total: len(files), FailedDetails: []domain.FailedDetail{}}, nil
}

type statsFake struct{}

func (statsFake) Summary(context.Context) (*domain.Summary, error) {
	return &domain.Summary{TotalIssues: 3, SuccessfulExtractions: 2, FailedExtractions: 1}, nil
}

func (statsFake) ByType(context.Context) (*domain.TypeBreakdown, error) {
	return &domain.TypeBreakdown{Labels: []string{"Pothole"}, Data: []int{3}}, nil
}

func (statsFake) Timeline(context.Context) (*domain.Timeline, error) {
	return &domain.Timeline{Labels: []string{"Jan 2024"}, Datasets: []domain.Dataset{{Label: "Pothole", Data: []int{3}}}}, nil
}

type mapFake struct {
	lastFilter domain.IssueFilter
}

func (f *mapFake) Markers(_ context.Context, filter domain.IssueFilter) ([]domain.Marker, error) {
	f.lastFilter = filter
	return []domain.Marker{{ID: 1, Lat: 55.75, Lng: 37.61, Type: "Pothole"}}, nil
}

func (f *mapFake) Cells(context.Context, domain.IssueFilter) ([]domain.CellCount, error) {
	return nil, nil
}

type testEnv struct {
	auth     *authFake
	issues   *issuesFake
	types    *issueTypesFake
	users    *usersFake
	uploader *uploaderFake
	mapView  *mapFake
	opts     Options
}

func newTestEnv() *testEnv {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	lat, lng := 55.7558, 37.6173
	return &testEnv{
		auth: &authFake{},
		issues: &issuesFake{items: []domain.Issue{
			{ID: 7, IssueTypeName: "Pothole", Latitude: &lat, Longitude: &lng, Timestamp: &ts, ImageURL: "/media/a.jpg"},
			{ID: 8, IssueTypeName: "Graffiti", ExtractionError: true, ErrorMessage: domain.ExtractionErrorMessage},
		}},
		types:    &issueTypesFake{},
		users:    &usersFake{},
		uploader: &uploaderFake{},
		mapView:  &mapFake{},
		opts:     Options{SessionCookieName: "civic_session", MaxUploadBytes: 1 << 20},
	}
}

func (e *testEnv) router() *Router {
	return NewRouter(Dependencies{
		Auth:       e.auth,
		Users:      e.users,
		Issues:     e.issues,
		IssueTypes: e.types,
		Uploader:   e.uploader,
		Stats:      statsFake{},
		Map:        e.mapView,
	}, e.opts)
}
