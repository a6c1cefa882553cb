package credential

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campuskit/campuskit/internal/shared"
)

const sessionPrefix = "session:"

// SessionStore keeps an optional server-side session marker alongside the
// stateless token, mapping a session identifier to a user identifier with a
// TTL. Deleting the marker invalidates the session.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore constructs a SessionStore on the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create registers a new session for the user and returns its identifier.
func (s *SessionStore) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, sessionPrefix+id, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a session identifier to its user. Returns shared.ErrNotFound
// when the session is absent or expired.
func (s *SessionStore) Get(ctx context.Context, id string) (int64, error) {
	raw, err := s.client.Get(ctx, sessionPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Delete removes a session marker. Deleting an absent session is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionPrefix+id).Err()
}
