package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"

	sessionPrefix = "session:"
)

// SessionStore wraps Redis for session management.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Create stores a new session mapping sessionID -> identity.
func (s *SessionStore) Create(ctx context.Context, id Identity) (string, error) {
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("auth: encode session: %w", err)
	}

	sid := uuid.New().String()
	if err := s.rdb.Set(ctx, sessionPrefix+sid, payload, SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("auth: create session: %w", err)
	}
	return sid, nil
}

// Get returns the identity for a session, or Anonymous if the session is
// unknown or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (Identity, error) {
	val, err := s.rdb.Get(ctx, sessionPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Anonymous, nil
	}
	if err != nil {
		return Anonymous, fmt.Errorf("auth: get session: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(val, &id); err != nil {
		return Anonymous, fmt.Errorf("auth: decode session: %w", err)
	}
	return id, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionPrefix+sessionID).Err()
}
