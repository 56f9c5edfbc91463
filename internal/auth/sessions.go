package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks live sessions so a signed-out token stops working
// before it expires.
type SessionStore interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Active(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "issuedesk:session:"

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore keeps sessions in Redis with the token TTL.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
}

func (s *redisSessionStore) Active(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, sessionID string) error {
	err := s.client.Del(ctx, sessionKey(sessionID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

type memorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]time.Time
}

// NewMemorySessionStore keeps sessions in process memory. Used when Redis is
// not configured and in tests.
func NewMemorySessionStore(now func() time.Time) SessionStore {
	if now == nil {
		now = time.Now
	}
	return &memorySessionStore{now: now, sessions: make(map[string]time.Time)}
}

func (s *memorySessionStore) Save(_ context.Context, sessionID, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = s.now().Add(ttl)
	return nil
}

func (s *memorySessionStore) Active(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *memorySessionStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
