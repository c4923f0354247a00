package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("Serializes holders of the same key", func(t *testing.T) {
		// Arrange
		m := NewKeyedMutex()
		ctx := t.Context()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			active  int
			maxSeen int
		)

		// Act
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				unlock, err := m.Lock(ctx, "cart:1")
				if !assert.NoError(t, err) {
					return
				}
				defer unlock()

				mu.Lock()
				active++
				maxSeen = max(maxSeen, active)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
			}()
		}
		wg.Wait()

		// Assert
		assert.Equal(t, 1, maxSeen)
		assert.Equal(t, 0, m.Len(), "entries should be released")
	})

	t.Run("Different keys do not block each other", func(t *testing.T) {
		m := NewKeyedMutex()

		unlockA, err := m.Lock(t.Context(), "a")
		require.NoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
		defer cancel()

		unlockB, err := m.Lock(ctx, "b")
		require.NoError(t, err)
		unlockB()
	})

	t.Run("Gives up when context expires", func(t *testing.T) {
		// Arrange
		m := NewKeyedMutex()
		unlock, err := m.Lock(t.Context(), "a")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		// Act
		_, err = m.Lock(ctx, "a")

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotAcquired)
		assert.Equal(t, 1, m.Len())

		unlock()
		unlock()
		assert.Equal(t, 0, m.Len())
	})
}

func TestLockAll(t *testing.T) {
	t.Run("Opposite orders do not deadlock", func(t *testing.T) {
		m := NewKeyedMutex()
		ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
		defer cancel()

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				keys := []string{"session:1", "user:1"}
				if i%2 == 0 {
					keys = []string{"user:1", "session:1"}
				}

				unlock, err := LockAll(ctx, m, keys...)
				if assert.NoError(t, err) {
					unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 0, m.Len())
	})

	t.Run("Duplicate keys are locked once", func(t *testing.T) {
		m := NewKeyedMutex()

		unlock, err := LockAll(t.Context(), m, "a", "a")
		require.NoError(t, err)
		unlock()

		assert.Equal(t, 0, m.Len())
	})
}

func TestRedisLocker(t *testing.T) {
	ttl := 5 * time.Second
	token := func() string { return "token-1" }

	t.Run("Success - Acquire after retry and release", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		locker := NewRedisLocker(client, ttl, WithRetryDelay(time.Millisecond), WithTokenSource(token))

		mock.ExpectSetNX("lock:user:1", "token-1", ttl).SetVal(false)
		mock.ExpectSetNX("lock:user:1", "token-1", ttl).SetVal(true)
		mock.ExpectEvalSha(releaseScript.Hash(), []string{"lock:user:1"}, "token-1").SetVal(int64(1))

		// Act
		unlock, err := locker.Lock(t.Context(), "user:1")
		require.NoError(t, err)
		unlock()
		unlock()

		// Assert
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Failure - Redis error", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		locker := NewRedisLocker(client, ttl, WithTokenSource(token))
		expectedErr := errors.New("connection refused")

		mock.ExpectSetNX("lock:user:1", "token-1", ttl).SetErr(expectedErr)

		// Act
		unlock, err := locker.Lock(t.Context(), "user:1")

		// Assert
		require.Error(t, err)
		assert.Nil(t, unlock)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Held until context expires", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		locker := NewRedisLocker(client, ttl, WithRetryDelay(50*time.Millisecond), WithTokenSource(token))
		mock.ExpectSetNX("lock:user:1", "token-1", ttl).SetVal(false)

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		// Act
		_, err := locker.Lock(ctx, "user:1")

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotAcquired)
	})
}
