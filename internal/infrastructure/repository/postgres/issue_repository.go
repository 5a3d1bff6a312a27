package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

type IssueRepository struct {
	db *sql.DB
}

func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

const issueColumns = `
	i.id, i.issue_type_id, COALESCE(t.name, ''), i.latitude, i.longitude, i.captured_at,
	i.image_url, i.image_path, i.extraction_error, COALESCE(i.error_message, ''),
	i.raw_extraction_text, i.created_at`

const issueFrom = `
FROM issues i
LEFT JOIN issue_types t ON t.id = i.issue_type_id`

func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO issues (
	issue_type_id, latitude, longitude, captured_at, image_url, image_path,
	extraction_error, error_message, raw_extraction_text, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id
`,
		issue.IssueTypeID, issue.Latitude, issue.Longitude, issue.Timestamp, issue.ImageURL, issue.ImagePath,
		issue.ExtractionError, nullString(issue.ErrorMessage), issue.RawExtractionText, issue.CreatedAt,
	).Scan(&issue.ID)
	if err != nil {
		return mapWriteError("insert issue", err)
	}
	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, id int64) (*domain.Issue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+issueColumns+issueFrom+`
WHERE i.id = $1`, id)

	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get issue", fmt.Errorf("issue %d", id))
		}
		return nil, fmt.Errorf("scan issue: %w", err)
	}
	return issue, nil
}

func (r *IssueRepository) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	where, args := issueWhere(filter)
	order := ` ORDER BY i.created_at DESC, i.id DESC`
	if filter.Order == domain.OrderByTimestamp {
		order = ` ORDER BY i.captured_at ASC NULLS LAST, i.id ASC`
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+issueColumns+issueFrom+where+order, args...)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		items = append(items, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return items, nil
}

func (r *IssueRepository) Count(ctx context.Context, filter domain.IssueFilter) (int, error) {
	where, args := issueWhere(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues i`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return count, nil
}

func (r *IssueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE issues
SET issue_type_id = $2, latitude = $3, longitude = $4, captured_at = $5,
	extraction_error = $6, error_message = $7, raw_extraction_text = $8
WHERE id = $1
`,
		issue.ID, issue.IssueTypeID, issue.Latitude, issue.Longitude, issue.Timestamp,
		issue.ExtractionError, nullString(issue.ErrorMessage), issue.RawExtractionText,
	)
	if err != nil {
		return mapWriteError("update issue", err)
	}
	return expectAffected(res, "update issue", issue.ID)
}

func (r *IssueRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return expectAffected(res, "delete issue", id)
}

func issueWhere(filter domain.IssueFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if filter.IssueTypeID != 0 {
		add("i.issue_type_id = $%d", filter.IssueTypeID)
	}
	if filter.ExtractionError != nil {
		add("i.extraction_error = $%d", *filter.ExtractionError)
	}
	if filter.TimestampFrom != nil {
		add("i.captured_at >= $%d", *filter.TimestampFrom)
	}
	if filter.TimestampTo != nil {
		add("i.captured_at <= $%d", *filter.TimestampTo)
	}
	if filter.CreatedSince != nil {
		add("i.created_at >= $%d", *filter.CreatedSince)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var (
		issue    domain.Issue
		lat, lng sql.NullFloat64
		captured sql.NullTime
		rawText  sql.NullString
	)
	err := row.Scan(
		&issue.ID, &issue.IssueTypeID, &issue.IssueTypeName, &lat, &lng, &captured,
		&issue.ImageURL, &issue.ImagePath, &issue.ExtractionError, &issue.ErrorMessage,
		&rawText, &issue.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		issue.Latitude = &lat.Float64
		issue.Longitude = &lng.Float64
	}
	if captured.Valid {
		ts := captured.Time.UTC()
		issue.Timestamp = &ts
	}
	if rawText.Valid {
		issue.RawExtractionText = &rawText.String
	}
	return &issue, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
