package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

type IssueTypeUseCase struct {
	types  ports.IssueTypeRepository
	issues ports.IssueRepository
}

func NewIssueTypeUseCase(types ports.IssueTypeRepository, issues ports.IssueRepository) *IssueTypeUseCase {
	return &IssueTypeUseCase{types: types, issues: issues}
}

func (uc *IssueTypeUseCase) ListActive(ctx context.Context) ([]domain.IssueType, error) {
	return uc.types.List(ctx, true)
}

func (uc *IssueTypeUseCase) ListAll(ctx context.Context) ([]domain.IssueType, error) {
	return uc.types.List(ctx, false)
}

func (uc *IssueTypeUseCase) Create(ctx context.Context, name string, active bool) (*domain.IssueType, error) {
	name, err := uc.validateName(ctx, "create issue type", name, 0)
	if err != nil {
		return nil, err
	}
	issueType := &domain.IssueType{Name: name, Active: active, CreatedAt: time.Now().UTC()}
	if err := uc.types.Create(ctx, issueType); err != nil {
		return nil, fmt.Errorf("create issue type: %w", err)
	}
	return issueType, nil
}

func (uc *IssueTypeUseCase) Update(ctx context.Context, id int64, name string, active bool) (*domain.IssueType, error) {
	issueType, err := uc.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err = uc.validateName(ctx, "update issue type", name, id)
	if err != nil {
		return nil, err
	}
	issueType.Name = name
	issueType.Active = active
	if err := uc.types.Update(ctx, issueType); err != nil {
		return nil, fmt.Errorf("update issue type: %w", err)
	}
	return issueType, nil
}

// Delete refuses to remove a type that issues still reference.
func (uc *IssueTypeUseCase) Delete(ctx context.Context, id int64) error {
	if _, err := uc.types.GetByID(ctx, id); err != nil {
		return err
	}
	used, err := uc.issues.Count(ctx, domain.IssueFilter{IssueTypeID: id})
	if err != nil {
		return fmt.Errorf("count issues by type: %w", err)
	}
	if used > 0 {
		return domain.WrapError(domain.ErrConflict, "delete issue type", fmt.Errorf("issue type is used by %d issue(s)", used))
	}
	return uc.types.Delete(ctx, id)
}

func (uc *IssueTypeUseCase) validateName(ctx context.Context, op, name string, excludeID int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, op, errors.New("name is required"))
	}
	exists, err := uc.types.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return "", fmt.Errorf("check issue type name: %w", err)
	}
	if exists {
		return "", domain.WrapError(domain.ErrConflict, op, fmt.Errorf("issue type %q already exists", name))
	}
	return name, nil
}
