package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchaseLock_Key(t *testing.T) {
	client, _ := redismock.NewClientMock()
	l := NewPurchaseLock(client, 7, "note", 42, "req-1", time.Second)
	assert.Equal(t, "purchase:lock:note:42:user:7", l.Key())
}

func TestTryLock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewDistributedLock(client, "k", "v", 10*time.Second)

	mock.ExpectSetNX("k", "v", 10*time.Second).SetVal(true)
	ok, err := l.TryLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectSetNX("k", "v", 10*time.Second).SetVal(false)
	ok, err = l.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_RetriesUntilAcquired(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewDistributedLock(client, "k", "v", time.Second)

	mock.ExpectSetNX("k", "v", time.Second).SetVal(false)
	mock.ExpectSetNX("k", "v", time.Second).SetVal(false)
	mock.ExpectSetNX("k", "v", time.Second).SetVal(true)

	err := l.Lock(context.Background(), time.Millisecond, 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_GivesUp(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewDistributedLock(client, "k", "v", time.Second)

	for i := 0; i < 3; i++ {
		mock.ExpectSetNX("k", "v", time.Second).SetVal(false)
	}

	err := l.Lock(context.Background(), time.Millisecond, 3)
	assert.ErrorIs(t, err, ErrLockFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_RedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewDistributedLock(client, "k", "v", time.Second)

	boom := errors.New("connection refused")
	mock.ExpectSetNX("k", "v", time.Second).SetErr(boom)

	err := l.Lock(context.Background(), time.Millisecond, 3)
	assert.ErrorIs(t, err, boom)
}

func TestUnlock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewDistributedLock(client, "k", "v", time.Second)

	mock.ExpectEval(UnlockScript, []string{"k"}, "v").SetVal(int64(1))
	assert.NoError(t, l.Unlock(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
