package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

// File is the YAML seed format:
//
//	issue_types:
//	  - name: Pothole
//	  - name: Graffiti
//	    active: false
type File struct {
	IssueTypes []IssueTypeEntry `yaml:"issue_types"`
}

type IssueTypeEntry struct {
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, entry := range f.IssueTypes {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("seed issue_types[%d]: name is required", i)
		}
	}
	return &f, nil
}

// ApplyIssueTypes creates every seeded type missing from the catalog.
// Existing types are left untouched so admin edits survive restarts.
func ApplyIssueTypes(ctx context.Context, catalog ports.IssueTypeCatalog, f *File) (int, error) {
	created := 0
	for _, entry := range f.IssueTypes {
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		_, err := catalog.Create(ctx, entry.Name, active)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrConflict):
		default:
			return created, fmt.Errorf("seed issue type %q: %w", entry.Name, err)
		}
	}
	if created > 0 {
		slog.Info("issue_types_seeded", "created", created)
	}
	return created, nil
}
