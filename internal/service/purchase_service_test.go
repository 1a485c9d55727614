package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"studyverse/internal/auth"
	"studyverse/internal/infrastructure/lock"
	"studyverse/internal/ledger"
	"studyverse/internal/ledger/memory"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryLedger() (*ledger.Ledger, *memory.Store) {
	store := memory.New()
	var mu sync.Mutex
	seq := 0
	l := ledger.New(store, func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("TXN%d", seq)
	})
	return l, store
}

func student(id int64) auth.Identity {
	return auth.Identity{UserID: id, Role: "student"}
}

func TestPurchaseService_WithoutRedis(t *testing.T) {
	l, store := newMemoryLedger()
	store.AddAccount(1, 100)
	store.AddAccount(2, 10)
	store.AddItem(ledger.Item{Kind: ledger.KindNote, ID: 7, SellerID: 2, Price: 40})

	svc := NewPurchaseService(l, nil, time.Second)

	receipt, err := svc.BuyNote(context.Background(), student(1), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(60), receipt.NewBalance)
	assert.Equal(t, int64(50), store.Balance(2))

	_, err = svc.BuyNote(context.Background(), student(1), 7)
	assert.ErrorIs(t, err, ledger.ErrAlreadyOwned)
}

func TestPurchaseService_TakesLock(t *testing.T) {
	l, store := newMemoryLedger()
	store.AddAccount(1, 100)
	store.AddAccount(2, 0)
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 3, SellerID: 2, Price: 30})

	client, mock := redismock.NewClientMock()
	svc := NewPurchaseService(l, client, 5*time.Second)
	svc.newToken = func() string { return "tok" }

	mock.ExpectSetNX("purchase:lock:course:3:user:1", "tok", 5*time.Second).SetVal(true)

	mock.ExpectEval(lock.UnlockScript, []string{"purchase:lock:course:3:user:1"}, "tok").SetVal(int64(1))

	receipt, err := svc.Enroll(context.Background(), student(1), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(70), receipt.NewBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseService_LockBusy(t *testing.T) {
	l, store := newMemoryLedger()
	store.AddAccount(1, 100)
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 3, SellerID: 2, Price: 30})

	client, mock := redismock.NewClientMock()
	svc := NewPurchaseService(l, client, time.Second)
	svc.newToken = func() string { return "tok" }
	svc.retryInterval = time.Millisecond
	svc.maxRetries = 2

	mock.ExpectSetNX("purchase:lock:course:3:user:1", "tok", time.Second).SetVal(false)
	mock.ExpectSetNX("purchase:lock:course:3:user:1", "tok", time.Second).SetVal(false)

	_, err := svc.Enroll(context.Background(), student(1), 3)
	assert.ErrorIs(t, err, ErrPurchaseInProgress)
	assert.Equal(t, int64(100), store.Balance(1))
}

func TestPurchaseService_RedisDownFallsThrough(t *testing.T) {
	l, store := newMemoryLedger()
	store.AddAccount(1, 100)
	store.AddAccount(2, 0)
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 3, SellerID: 2, Price: 30})

	client, mock := redismock.NewClientMock()
	svc := NewPurchaseService(l, client, time.Second)
	svc.newToken = func() string { return "tok" }

	mock.ExpectSetNX("purchase:lock:course:3:user:1", "tok", time.Second).SetErr(errors.New("connection refused"))

	receipt, err := svc.Enroll(context.Background(), student(1), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(70), receipt.NewBalance)
}

func TestPurchaseService_SelfPurchase(t *testing.T) {
	l, store := newMemoryLedger()
	store.AddAccount(2, 100)
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 3, SellerID: 2, Price: 30})

	svc := NewPurchaseService(l, nil, time.Second)
	_, err := svc.Enroll(context.Background(), auth.Identity{UserID: 2, Role: "educator"}, 3)
	assert.ErrorIs(t, err, ledger.ErrSelfPurchaseForbidden)
}
