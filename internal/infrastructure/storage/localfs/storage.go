package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

// Storage keeps images on the local disk. The API serves BasePath under
// PublicBaseURL, so objects get a browsable URL like the S3 backend.
type Storage struct {
	basePath      string
	publicBaseURL string
}

func New(basePath, publicBaseURL string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "/media"
	}
	return &Storage{basePath: basePath, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (s *Storage) BasePath() string {
	return s.basePath
}

func (s *Storage) Upload(_ context.Context, key, _ string, data io.Reader, _ int64) (domain.StoredObject, error) {
	path, err := s.resolve(key)
	if err != nil {
		return domain.StoredObject{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.StoredObject{}, fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return domain.StoredObject{}, fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return domain.StoredObject{}, fmt.Errorf("close file: %w", err)
	}
	return domain.StoredObject{Path: key, URL: s.publicBaseURL + "/" + key}, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open object", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete is idempotent: a missing object is not an error.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Storage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve object key", fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(s.basePath, clean), nil
}
