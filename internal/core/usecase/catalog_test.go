package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func TestIssueTypeCreateValidatesName(t *testing.T) {
	types := newIssueTypeRepoFake(domain.IssueType{ID: 1, Name: "Pothole", Active: true})
	uc := NewIssueTypeUseCase(types, newIssueRepoFake())

	created, err := uc.Create(context.Background(), "  Graffiti ", true)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 || created.Name != "Graffiti" {
		t.Fatalf("unexpected issue type: %+v", created)
	}
	if _, err := uc.Create(context.Background(), " ", true); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
	if _, err := uc.Create(context.Background(), "pothole", true); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}
}

func TestIssueTypeUpdateAllowsOwnName(t *testing.T) {
	types := newIssueTypeRepoFake(domain.IssueType{ID: 1, Name: "Pothole", Active: true})
	uc := NewIssueTypeUseCase(types, newIssueRepoFake())

	updated, err := uc.Update(context.Background(), 1, "Pothole", false)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Active {
		t.Fatalf("expected inactive type")
	}
	active, _ := uc.ListActive(context.Background())
	if len(active) != 0 {
		t.Fatalf("expected no active types, got %+v", active)
	}
}

func TestIssueTypeDeleteRefusedWhileReferenced(t *testing.T) {
	types := newIssueTypeRepoFake(
		domain.IssueType{ID: 1, Name: "Pothole", Active: true},
		domain.IssueType{ID: 2, Name: "Graffiti", Active: true},
	)
	issues := newIssueRepoFake(domain.Issue{ID: 10, IssueTypeID: 1})
	uc := NewIssueTypeUseCase(types, issues)

	if err := uc.Delete(context.Background(), 1); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := uc.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := uc.Delete(context.Background(), 3); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
