package service

import (
	"context"
	"errors"
	"log"
	"time"

	"studyverse/internal/auth"
	"studyverse/internal/infrastructure/lock"
	"studyverse/internal/ledger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	purchaseLockRetryInterval = 100 * time.Millisecond
	purchaseLockMaxRetries    = 30
)

// PurchaseService 课程报名 / 笔记购买入口
type PurchaseService struct {
	ledger      *ledger.Ledger
	redisClient *redis.Client
	lockTTL     time.Duration

	retryInterval time.Duration
	maxRetries    int
	newToken      func() string
}

// NewPurchaseService redisClient 为 nil 时不加购买锁
func NewPurchaseService(l *ledger.Ledger, redisClient *redis.Client, lockTTL time.Duration) *PurchaseService {
	return &PurchaseService{
		ledger:        l,
		redisClient:   redisClient,
		lockTTL:       lockTTL,
		retryInterval: purchaseLockRetryInterval,
		maxRetries:    purchaseLockMaxRetries,
		newToken:      uuid.NewString,
	}
}

// Enroll 报名课程
func (s *PurchaseService) Enroll(ctx context.Context, id auth.Identity, courseID int64) (*ledger.Receipt, error) {
	return s.purchase(ctx, id, ledger.KindCourse, courseID)
}

// BuyNote 购买笔记
func (s *PurchaseService) BuyNote(ctx context.Context, id auth.Identity, noteID int64) (*ledger.Receipt, error) {
	return s.purchase(ctx, id, ledger.KindNote, noteID)
}

func (s *PurchaseService) purchase(ctx context.Context, id auth.Identity, kind ledger.ItemKind, itemID int64) (*ledger.Receipt, error) {
	if s.redisClient != nil {
		purchaseLock := lock.NewPurchaseLock(s.redisClient, id.UserID, string(kind), itemID, s.newToken(), s.lockTTL)
		err := purchaseLock.Lock(ctx, s.retryInterval, s.maxRetries)
		switch {
		case err == nil:
			defer func() {
				if err := purchaseLock.Unlock(context.Background()); err != nil {
					log.Printf("[PurchaseService] 释放购买锁失败: key=%s, err=%v", purchaseLock.Key(), err)
				}
			}()
		case errors.Is(err, lock.ErrLockFailed):
			return nil, ErrPurchaseInProgress
		default:
			// 锁只是前置削峰，Redis 故障不影响购买，正确性由数据库保证
			log.Printf("[PurchaseService] Redis 不可用，跳过购买锁: %v", err)
		}
	}

	receipt, err := s.ledger.Purchase(ctx, id.UserID, kind, itemID)
	if err != nil {
		if errors.Is(err, ledger.ErrStorage) {
			log.Printf("[PurchaseService] 购买失败: buyer=%d, %s=%d, err=%v", id.UserID, kind, itemID, err)
		}
		return nil, err
	}

	log.Printf("[PurchaseService] 购买成功: buyer=%d, %s=%d, amount=%d, txn=%s",
		id.UserID, kind, itemID, receipt.Amount, receipt.TransactionNo)

	return receipt, nil
}
