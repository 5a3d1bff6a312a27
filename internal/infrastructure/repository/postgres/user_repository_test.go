package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func TestUserRepositoryGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "active", "created_at"}).
		AddRow(int64(1), "admin@city.test", "hash", "admin", true, time.Now())
	mock.ExpectQuery("FROM users WHERE email").WithArgs("admin@city.test").WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "admin@city.test")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if user.Role != domain.RoleAdmin || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("FROM users WHERE email").WithArgs("nobody@city.test").WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByEmail(context.Background(), "nobody@city.test"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserRepositoryDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)
	mock.ExpectExec("DELETE FROM users").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
