package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a user's lock could not be taken in time.
var ErrLockTimeout = errors.New("session: lock timeout")

// Locker serialises message handling per user.
type Locker interface {
	// Lock blocks until the user's lock is held and returns its release func.
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

type memoryLock struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is an in-process keyed lock. Entries are removed once no
// goroutine holds or waits for them.
type MemoryLocker struct {
	mu      sync.Mutex
	locks   map[int64]*memoryLock
	timeout time.Duration
}

// NewMemoryLocker creates a locker; timeout <= 0 waits until ctx is done.
func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{locks: make(map[int64]*memoryLock), timeout: timeout}
}

func (l *MemoryLocker) acquireRef(userID int64) *memoryLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[userID]
	if !ok {
		lk = &memoryLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = lk
	}
	lk.refs++
	return lk
}

func (l *MemoryLocker) releaseRef(userID int64, lk *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, userID)
	}
}

// Lock implements Locker.
func (l *MemoryLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	lk := l.acquireRef(userID)
	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(userID, lk)
		return nil, fmt.Errorf("%w: user %d: %w", ErrLockTimeout, userID, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.ch
			l.releaseRef(userID, lk)
		})
	}, nil
}

// Held reports how many users currently hold or wait for a lock.
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DefaultLockPrefix namespaces lock keys in Redis.
const DefaultLockPrefix = "coursebot:lock:"

// RedisLocker takes per-user locks with SET NX PX so replicas sharing one
// Redis never advance the same user's dialogue concurrently. The lock expires
// after ttl if its holder dies.
type RedisLocker struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
}

// NewRedisLocker creates a Redis locker. timeout bounds the wait; the lock
// itself lives for twice the timeout unless released.
func NewRedisLocker(client *redis.Client, timeout time.Duration) *RedisLocker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisLocker{
		client:  client,
		prefix:  DefaultLockPrefix,
		ttl:     2 * timeout,
		timeout: timeout,
		retry:   25 * time.Millisecond,
	}
}

// Lock implements Locker.
func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := l.prefix + strconv.FormatInt(userID, 10)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("redis lock %d: %w", userID, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: user %d: %w", ErrLockTimeout, userID, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}
