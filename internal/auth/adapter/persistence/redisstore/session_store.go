package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sess:"

// RedisSessionStore keeps sessions as JSON strings with a Redis TTL equal to
// the session's remaining lifetime.
type RedisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisSessionStore creates a new Redis-backed session store
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		now:    time.Now,
	}
}

// NewRedisClient builds a client for the session store
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})
}

func sessionKey(token string) string {
	return keyPrefix + token
}

// Create persists a new session
func (s *RedisSessionStore) Create(ctx context.Context, session *model.Session) error {
	if session == nil || session.Token == "" {
		return errors.New("session token cannot be empty")
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.Token)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionKey(session.Token), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", session.Token)
	}
	return nil
}

// Get retrieves a live session by token
func (s *RedisSessionStore) Get(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}

	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, model.ErrSessionNotFound
	}
	if session.IsExpired(s.now()) {
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

// Destroy deletes a session by token
func (s *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, sessionKey(token)).Err()
}

var _ repository.SessionStore = (*RedisSessionStore)(nil)
