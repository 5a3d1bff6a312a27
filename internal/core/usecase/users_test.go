package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func TestAuthSetupCreatesFirstAdminOnce(t *testing.T) {
	users := newUserRepoFake()
	uc := NewAuthUseCase(users, newSessionFake(), plainHasher{}, time.Hour)

	if _, err := uc.Setup(context.Background(), "admin@city.test", "secret123", "other123"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if _, err := uc.Setup(context.Background(), "admin@city.test", "short", "short"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected short password error, got %v", err)
	}

	admin, err := uc.Setup(context.Background(), " Admin@City.test ", "secret123", "secret123")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if admin.Role != domain.RoleAdmin || !admin.Active || admin.Email != "admin@city.test" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if _, err := uc.Setup(context.Background(), "second@city.test", "secret123", "secret123"); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict after setup, got %v", err)
	}
}

func TestAuthLogin(t *testing.T) {
	users := newUserRepoFake(
		domain.User{ID: 1, Email: "staff@city.test", PasswordHash: "hashed:secret123", Role: domain.RoleEmployee, Active: true},
		domain.User{ID: 2, Email: "gone@city.test", PasswordHash: "hashed:secret123", Role: domain.RoleEmployee},
	)
	sessions := newSessionFake()
	uc := NewAuthUseCase(users, sessions, plainHasher{}, 2*time.Hour)

	sessionID, principal, err := uc.Login(context.Background(), "STAFF@city.test", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if principal.UserID != 1 || sessionID == "" || sessions.ttl != 2*time.Hour {
		t.Fatalf("unexpected login result: %s %+v ttl=%s", sessionID, principal, sessions.ttl)
	}

	resolved, err := uc.Resolve(context.Background(), sessionID)
	if err != nil || resolved.Email != "staff@city.test" {
		t.Fatalf("Resolve() = %+v, %v", resolved, err)
	}

	if _, _, err := uc.Login(context.Background(), "staff@city.test", "wrong-pass"); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, _, err := uc.Login(context.Background(), "nobody@city.test", "secret123"); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
	if _, _, err := uc.Login(context.Background(), "gone@city.test", "secret123"); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for inactive user, got %v", err)
	}

	if err := uc.Logout(context.Background(), sessionID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := uc.Resolve(context.Background(), sessionID); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestResolveFollowsCurrentAccountState(t *testing.T) {
	users := newUserRepoFake(
		domain.User{ID: 1, Email: "boss@city.test", PasswordHash: "hashed:secret123", Role: domain.RoleAdmin, Active: true},
		domain.User{ID: 2, Email: "staff@city.test", PasswordHash: "hashed:secret123", Role: domain.RoleEmployee, Active: true},
	)
	sessions := newSessionFake()
	auth := NewAuthUseCase(users, sessions, plainHasher{}, time.Hour)
	admin := NewUserAdminUseCase(users, plainHasher{})
	ctx := context.Background()

	bossSession, _, err := auth.Login(ctx, "boss@city.test", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	staffSession, _, err := auth.Login(ctx, "staff@city.test", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	actor := domain.Principal{UserID: 1, Email: "boss@city.test", Role: domain.RoleAdmin}

	if _, err := admin.Update(ctx, actor, 2, domain.UserInput{Email: "staff@city.test", Role: domain.RoleEmployee, Active: false}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := auth.Resolve(ctx, staffSession); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after deactivation, got %v", err)
	}
	if _, ok := sessions.items[staffSession]; ok {
		t.Fatalf("expected session of deactivated user to be revoked")
	}

	// A demotion applies to the next request of an existing session.
	boss := users.items[1]
	boss.Role = domain.RoleEmployee
	users.items[1] = boss
	resolved, err := auth.Resolve(ctx, bossSession)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.IsAdmin() {
		t.Fatalf("expected demoted principal, got %+v", resolved)
	}

	if err := admin.Delete(ctx, domain.Principal{UserID: 99, Role: domain.RoleAdmin}, 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := auth.Resolve(ctx, bossSession); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after deletion, got %v", err)
	}
}

func TestUserAdminGuardsOwnAccount(t *testing.T) {
	users := newUserRepoFake(
		domain.User{ID: 1, Email: "admin@city.test", PasswordHash: "hashed:secret123", Role: domain.RoleAdmin, Active: true},
	)
	uc := NewUserAdminUseCase(users, plainHasher{})
	actor := domain.Principal{UserID: 1, Email: "admin@city.test", Role: domain.RoleAdmin}

	if err := uc.Delete(context.Background(), actor, 1); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected self-delete to be refused, got %v", err)
	}
	_, err := uc.Update(context.Background(), actor, 1, domain.UserInput{Email: "admin@city.test", Role: domain.RoleAdmin, Active: false})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected self-deactivation to be refused, got %v", err)
	}
}

func TestUserAdminCreateAndUpdate(t *testing.T) {
	users := newUserRepoFake(
		domain.User{ID: 1, Email: "admin@city.test", Role: domain.RoleAdmin, Active: true},
	)
	uc := NewUserAdminUseCase(users, plainHasher{})
	actor := domain.Principal{UserID: 1, Role: domain.RoleAdmin}

	created, err := uc.Create(context.Background(), domain.UserInput{Email: "clerk@city.test", Password: "secret123", Active: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Role != domain.RoleEmployee {
		t.Fatalf("expected default employee role, got %s", created.Role)
	}
	if _, err := uc.Create(context.Background(), domain.UserInput{Email: "clerk@city.test", Password: "secret123"}); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected duplicate email conflict, got %v", err)
	}
	if _, err := uc.Create(context.Background(), domain.UserInput{Email: "x@city.test", Password: "secret123", Role: "root"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid role, got %v", err)
	}

	updated, err := uc.Update(context.Background(), actor, created.ID, domain.UserInput{Email: "clerk@city.test", Role: domain.RoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.PasswordHash != "hashed:secret123" || updated.Role != domain.RoleAdmin {
		t.Fatalf("expected password kept and role changed, got %+v", updated)
	}
	if err := uc.Delete(context.Background(), actor, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !h.Verify(hash, "secret123") || h.Verify(hash, "secret124") {
		t.Fatalf("unexpected verify result")
	}
}
