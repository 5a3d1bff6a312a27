package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// writeTempFile copies r into a new file under dir and returns its path and
// size. The caller owns the file and must remove it.
func writeTempFile(dir, filename string, r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(dir, "issue-*"+imageExt(filename))
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		removeTempFile(path)
		if copyErr != nil {
			return "", 0, fmt.Errorf("write temp file: %w", copyErr)
		}
		return "", 0, fmt.Errorf("close temp file: %w", closeErr)
	}
	return path, size, nil
}

func removeTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("temp_file_cleanup_failed", "path", path, "error", err)
	}
}

func imageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return ext
	default:
		return ".jpg"
	}
}
