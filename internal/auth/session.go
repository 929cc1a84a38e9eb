package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 24 * time.Hour
)

// Store manages sessions in Redis. A session is an opaque random ID held by
// the client in a cookie, mapped server-side to the authenticated user's id.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a new session store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// TTL returns the session lifetime, for cookie max-age.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores a new session for userID and returns its ID.
// Every login gets a fresh ID; IDs are never reused across logins.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	key := sessionKeyPrefix + id
	if err := s.rdb.Set(ctx, key, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// GetUserID returns the user id bound to the session. ok is false when the
// session does not exist or has expired. Any other Redis failure comes back
// as an error: "no session" and "can't tell" must stay distinguishable, or an
// outage would quietly log everyone out.
func (s *Store) GetUserID(ctx context.Context, id string) (int64, bool, error) {
	userID, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get session: %w", err)
	}
	return userID, true, nil
}

// Delete removes a session by ID. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
