package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := NewRedisStore(client, "", 30*time.Minute)

	got, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := New(5, CourseDialogue{Step: CourseUniversity, TeacherID: 2, Name: "Algorithms"}, time.Now().UTC())
	require.NoError(t, store.Set(ctx, 5, s))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"5"))
	assert.Equal(t, 30*time.Minute, mr.TTL(DefaultKeyPrefix+"5"))

	got, err = store.Get(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Dialogue, got.Dialogue)

	mr.FastForward(31 * time.Minute)
	got, err = store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set(ctx, 5, s))
	require.NoError(t, store.Clear(ctx, 5))
	assert.False(t, mr.Exists(DefaultKeyPrefix+"5"))
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisStore(client, "test:", time.Minute)
	require.NoError(t, mr.Set("test:1", "not json"))

	_, err := store.Get(context.Background(), 1)
	assert.Error(t, err)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisStore(client, "", time.Minute)
	mr.Close()

	_, err := store.Get(context.Background(), 1)
	assert.Error(t, err)
}
