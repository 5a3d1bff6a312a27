package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
)

const minPasswordLength = 8

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type AuthUseCase struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	ttl      time.Duration
}

func NewAuthUseCase(users ports.UserRepository, sessions ports.SessionStore, hasher ports.PasswordHasher, ttl time.Duration) *AuthUseCase {
	return &AuthUseCase{users: users, sessions: sessions, hasher: hasher, ttl: ttl}
}

func (uc *AuthUseCase) SetupNeeded(ctx context.Context) (bool, error) {
	count, err := uc.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count == 0, nil
}

// Setup creates the first administrator. It is refused once any user exists.
func (uc *AuthUseCase) Setup(ctx context.Context, email, password, confirm string) (*domain.User, error) {
	needed, err := uc.SetupNeeded(ctx)
	if err != nil {
		return nil, err
	}
	if !needed {
		return nil, domain.WrapError(domain.ErrConflict, "setup", errors.New("setup already completed"))
	}
	if password != confirm {
		return nil, domain.WrapError(domain.ErrInvalidInput, "setup", errors.New("passwords do not match"))
	}

	email, err = normalizeEmail("setup", email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword("setup", password); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (string, *domain.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "login", errors.New("email and password are required"))
	}

	invalid := domain.WrapError(domain.ErrUnauthorized, "login", errors.New("invalid email or password"))
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return "", nil, invalid
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if !uc.hasher.Verify(user.PasswordHash, password) {
		return "", nil, invalid
	}
	if !user.Active {
		return "", nil, domain.WrapError(domain.ErrForbidden, "login", errors.New("account is deactivated"))
	}

	principal := domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
	sessionID, err := uc.sessions.Create(ctx, principal, uc.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	return sessionID, &principal, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *AuthUseCase) Resolve(ctx context.Context, sessionID string) (*domain.Principal, error) {
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "resolve session", errors.New("no session"))
	}
	principal, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "resolve session", errors.New("session expired"))
	}

	// The session only names the user; role and active flag come from the
	// store on every request so admin changes apply immediately.
	user, err := uc.users.GetByID(ctx, principal.UserID)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if user == nil || !user.Active {
		if delErr := uc.sessions.Delete(ctx, sessionID); delErr != nil {
			slog.Warn("session_revoke_failed", "user_id", principal.UserID, "error", delErr)
		}
		return nil, domain.WrapError(domain.ErrUnauthorized, "resolve session", errors.New("account is no longer active"))
	}
	return &domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

type UserAdminUseCase struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
}

func NewUserAdminUseCase(users ports.UserRepository, hasher ports.PasswordHasher) *UserAdminUseCase {
	return &UserAdminUseCase{users: users, hasher: hasher}
}

func (uc *UserAdminUseCase) List(ctx context.Context) ([]domain.User, error) {
	return uc.users.List(ctx)
}

func (uc *UserAdminUseCase) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	const op = "create user"
	email, err := normalizeEmail(op, in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(op, in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unknown role %q", role))
	}
	if err := uc.ensureEmailFree(ctx, op, email, 0); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       in.Active,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Update changes a user's profile. An empty password keeps the current one.
func (uc *UserAdminUseCase) Update(ctx context.Context, actor domain.Principal, id int64, in domain.UserInput) (*domain.User, error) {
	const op = "update user"
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID == id && !in.Active {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("cannot deactivate your own account"))
	}

	email, err := normalizeEmail(op, in.Email)
	if err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unknown role %q", in.Role))
	}
	if err := uc.ensureEmailFree(ctx, op, email, id); err != nil {
		return nil, err
	}

	if in.Password != "" {
		if err := validatePassword(op, in.Password); err != nil {
			return nil, err
		}
		hash, err := uc.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.Email = email
	user.Role = in.Role
	user.Active = in.Active

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (uc *UserAdminUseCase) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	if actor.UserID == id {
		return domain.WrapError(domain.ErrInvalidInput, "delete user", errors.New("cannot delete your own account"))
	}
	if _, err := uc.users.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.users.Delete(ctx, id)
}

func (uc *UserAdminUseCase) ensureEmailFree(ctx context.Context, op, email string, excludeID int64) error {
	exists, err := uc.users.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.WrapError(domain.ErrConflict, op, fmt.Errorf("email %s is already registered", email))
	}
	return nil
}

func normalizeEmail(op, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, op, errors.New("email is required"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("invalid email %q", email))
	}
	return email, nil
}

func validatePassword(op, password string) error {
	if len(password) < minPasswordLength {
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
