package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"bus-tracker/internal/auth/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RedisSessionStore {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := NewRedisClient(addr, "", 15)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available for testing")
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return NewRedisSessionStore(client)
}

func TestRedisSessionStore_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	session := &model.Session{
		Token:     "tok-r1",
		UserID:    "user-9",
		Role:      model.RoleDriver,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Create(ctx, session))
	assert.Error(t, store.Create(ctx, session), "duplicate token must be rejected")

	got, err := store.Get(ctx, "tok-r1")
	require.NoError(t, err)
	assert.Equal(t, "user-9", got.UserID)
	assert.Equal(t, model.RoleDriver, got.Role)

	ttl, err := store.client.TTL(ctx, sessionKey("tok-r1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, store.Destroy(ctx, "tok-r1"))
	_, err = store.Get(ctx, "tok-r1")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.NoError(t, store.Destroy(ctx, "tok-r1"))
}

func TestRedisSessionStore_RejectsExpired(t *testing.T) {
	store := newTestStore(t)
	err := store.Create(context.Background(), &model.Session{
		Token: "late", UserID: "u", Role: model.RoleStudent, ExpiresAt: time.Now().Add(-time.Second),
	})
	assert.Error(t, err)
}

func TestRedisSessionStore_EmptyToken(t *testing.T) {
	store := NewRedisSessionStore(NewRedisClient("localhost:0", "", 0))
	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.NoError(t, store.Destroy(context.Background(), ""))
}
