package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

const keyPrefix = "session:"

// Store keeps sessions as JSON principals under "session:<id>" with a TTL.
// Every successful lookup slides the expiry forward.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis ping", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, principal domain.Principal, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(principal)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+id, payload, ttl).Err(); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "redis set session", err)
	}
	return id, nil
}

// Get returns nil, nil for an unknown or expired session.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.Principal, error) {
	key := keyPrefix + sessionID
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrTemporary, "redis get session", err)
	}

	var principal domain.Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		_ = s.client.Del(ctx, key).Err()
		return nil, nil
	}

	if ttl, err := s.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		s.client.Expire(ctx, key, s.slidingTTL(ttl))
	}
	return &principal, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis delete session", err)
	}
	return nil
}

// WithSlidingTTL makes Get reset the expiry of a found session to ttl.
func (s *Store) WithSlidingTTL(ttl time.Duration) *Store {
	s.ttl = ttl
	return s
}

func (s *Store) slidingTTL(remaining time.Duration) time.Duration {
	if s.ttl > remaining {
		return s.ttl
	}
	return remaining
}
