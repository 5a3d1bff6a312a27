package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

type IssueTypeRepository struct {
	db *sql.DB
}

func NewIssueTypeRepository(db *sql.DB) *IssueTypeRepository {
	return &IssueTypeRepository{db: db}
}

func (r *IssueTypeRepository) List(ctx context.Context, activeOnly bool) ([]domain.IssueType, error) {
	query := `SELECT id, name, active, created_at FROM issue_types`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query issue types: %w", err)
	}
	defer rows.Close()

	items := make([]domain.IssueType, 0)
	for rows.Next() {
		var item domain.IssueType
		if err := rows.Scan(&item.ID, &item.Name, &item.Active, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issue type: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issue types: %w", err)
	}
	return items, nil
}

func (r *IssueTypeRepository) GetByID(ctx context.Context, id int64) (*domain.IssueType, error) {
	var item domain.IssueType
	err := r.db.QueryRowContext(ctx, `SELECT id, name, active, created_at FROM issue_types WHERE id = $1`, id).
		Scan(&item.ID, &item.Name, &item.Active, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get issue type", fmt.Errorf("issue type %d", id))
		}
		return nil, fmt.Errorf("scan issue type: %w", err)
	}
	return &item, nil
}

// ExistsByName compares case-insensitively; excludeID skips the row being renamed.
func (r *IssueTypeRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM issue_types WHERE lower(name) = lower($1) AND id <> $2)`,
		name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check issue type name: %w", err)
	}
	return exists, nil
}

func (r *IssueTypeRepository) Create(ctx context.Context, issueType *domain.IssueType) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO issue_types (name, active, created_at) VALUES ($1, $2, $3) RETURNING id`,
		issueType.Name, issueType.Active, issueType.CreatedAt,
	).Scan(&issueType.ID)
	if err != nil {
		return mapWriteError("insert issue type", err)
	}
	return nil
}

func (r *IssueTypeRepository) Update(ctx context.Context, issueType *domain.IssueType) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE issue_types SET name = $2, active = $3 WHERE id = $1`,
		issueType.ID, issueType.Name, issueType.Active,
	)
	if err != nil {
		return mapWriteError("update issue type", err)
	}
	return expectAffected(res, "update issue type", issueType.ID)
}

func (r *IssueTypeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM issue_types WHERE id = $1`, id)
	if err != nil {
		return mapWriteError("delete issue type", err)
	}
	return expectAffected(res, "delete issue type", id)
}
