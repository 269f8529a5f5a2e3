package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLocker(t *testing.T, l Locker) {
	t.Helper()
	var (
		active  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), 42)
			if !assert.NoError(t, err) {
				return
			}
			n := active.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestMemoryLockerSerialisesUser(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	exerciseLocker(t, l)
	assert.Equal(t, 0, l.Held())
}

func TestMemoryLockerTimeout(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := l.Lock(context.Background(), 2)
	require.NoError(t, err, "other users are independent")
	other()

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, l.Held())
}

func TestRedisLocker(t *testing.T) {
	_, client := newRedis(t)
	l := NewRedisLocker(client, time.Second)
	exerciseLocker(t, l)
}

func TestRedisLockerTimeoutAndToken(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLocker(client, 50*time.Millisecond)

	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, mr.Exists(DefaultLockPrefix+"1"))

	_, err = l.Lock(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLockTimeout)

	require.NoError(t, mr.Set(DefaultLockPrefix+"1", "someone-else"))
	unlock()
	assert.True(t, mr.Exists(DefaultLockPrefix+"1"), "release keeps a lock owned by another token")

	mr.Del(DefaultLockPrefix + "1")
	again, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
	assert.False(t, mr.Exists(DefaultLockPrefix+"1"))
}
