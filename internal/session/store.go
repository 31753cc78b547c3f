// Package session keeps authenticated sessions and their CSRF tokens in
// Redis, keyed by an opaque session id carried in the "sid" cookie. The
// CSRF token lives inside the session record, so there is no process-global
// token state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/skilltrack/learning-service/internal/models"
)

// CookieName is the session cookie the HTTP layer reads and writes.
const CookieName = "sid"

const keyPrefix = "session:"

var ErrNotFound = errors.New("session not found")

// Session is the server-side state for one authenticated browser.
type Session struct {
	UserID    uint            `json:"user_id"`
	Role      models.UserRole `json:"role"`
	TeamID    *uint           `json:"team_id,omitempty"`
	CSRFToken string          `json:"csrf_token"`
	CreatedAt time.Time       `json:"created_at"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create opens a fresh session for the user and returns its opaque id.
// The per-session CSRF token is minted here.
func (s *Store) Create(ctx context.Context, user *models.User) (string, *Session, error) {
	sess := &Session{
		UserID:    user.ID,
		Role:      user.Role,
		TeamID:    user.TeamID,
		CSRFToken: uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	sid := uuid.NewString()
	if err := s.write(ctx, sid, sess); err != nil {
		return "", nil, err
	}
	return sid, sess, nil
}

// Get loads the session for sid, returning ErrNotFound for unknown or
// expired ids.
func (s *Store) Get(ctx context.Context, sid string) (*Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Touch extends the session's lifetime by the store TTL.
func (s *Store) Touch(ctx context.Context, sid string) error {
	if err := s.client.Expire(ctx, keyPrefix+sid, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	return nil
}

// Destroy removes the session; destroying an unknown sid is not an error.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, sid string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sid, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
