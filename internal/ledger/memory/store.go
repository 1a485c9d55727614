// Package memory 账本存储的内存实现
//
// 行锁用每个账户一把 sync.Mutex 模拟，事务回滚靠 undo 日志；
// 主要给单元测试和本地调试用，语义上与 MySQL 实现保持一致：
// 只有被 LockAccount 的账户行是互斥的，其余写入立即可见。
package memory

import (
	"context"
	"sync"

	"studyverse/internal/ledger"

	"github.com/shopspring/decimal"
)

type itemKey struct {
	kind ledger.ItemKind
	id   int64
}

type ownKey struct {
	kind   ledger.ItemKind
	userID int64
	itemID int64
}

// Store 内存账本存储
type Store struct {
	mu           sync.Mutex
	accounts     map[int64]int64
	rowLocks     map[int64]*sync.Mutex
	items        map[itemKey]ledger.Item
	entitlements map[ownKey]struct{}
	ratings      map[ownKey]ledger.Rating
	itemRatings  map[itemKey]ledger.RatingStats
	transfers    []ledger.Transfer
}

func New() *Store {
	return &Store{
		accounts:     make(map[int64]int64),
		rowLocks:     make(map[int64]*sync.Mutex),
		items:        make(map[itemKey]ledger.Item),
		entitlements: make(map[ownKey]struct{}),
		ratings:      make(map[ownKey]ledger.Rating),
		itemRatings:  make(map[itemKey]ledger.RatingStats),
	}
}

// AddAccount 开户
func (s *Store) AddAccount(userID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = balance
}

// AddItem 上架商品
func (s *Store) AddItem(item ledger.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[itemKey{item.Kind, item.ID}] = item
}

// Balance 查询余额，账户不存在时返回 0
func (s *Store) Balance(userID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[userID]
}

// TotalBalance 所有账户余额之和
func (s *Store) TotalBalance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, b := range s.accounts {
		total += b
	}
	return total
}

// EntitlementCount 某个 (用户, 商品) 的权益数量
func (s *Store) EntitlementCount(kind ledger.ItemKind, userID, itemID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entitlements[ownKey{kind, userID, itemID}]; ok {
		return 1
	}
	return 0
}

// ItemRating 商品当前的冗余评分字段
func (s *Store) ItemRating(kind ledger.ItemKind, itemID int64) ledger.RatingStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemRatings[itemKey{kind, itemID}]
}

// Transfers 已提交的流水
func (s *Store) Transfers() []ledger.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

func (s *Store) HasEntitlement(_ context.Context, kind ledger.ItemKind, userID, itemID int64) (bool, error) {
	return s.EntitlementCount(kind, userID, itemID) > 0, nil
}

func (s *Store) WithinTx(_ context.Context, fn func(tx ledger.Tx) error) error {
	tx := &memTx{s: s, locked: make(map[int64]*sync.Mutex)}
	err := fn(tx)
	if err != nil {
		tx.rollback()
	}
	tx.release()
	return err
}

func (s *Store) rowLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[userID] = l
	}
	return l
}

type memTx struct {
	s      *Store
	undo   []func()
	locked map[int64]*sync.Mutex
}

func (t *memTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) release() {
	for _, l := range t.locked {
		l.Unlock()
	}
	t.locked = nil
}

func (t *memTx) FindItem(_ context.Context, kind ledger.ItemKind, itemID int64) (*ledger.Item, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	item, ok := t.s.items[itemKey{kind, itemID}]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &item, nil
}

func (t *memTx) LockAccount(_ context.Context, userID int64) (*ledger.Account, error) {
	if _, held := t.locked[userID]; !held {
		l := t.s.rowLock(userID)
		l.Lock()
		t.locked[userID] = l
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	balance, ok := t.s.accounts[userID]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &ledger.Account{UserID: userID, Balance: balance}, nil
}

func (t *memTx) Debit(_ context.Context, userID, amount int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	balance, ok := t.s.accounts[userID]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if balance < amount {
		return ledger.ErrInsufficientFunds
	}
	t.s.accounts[userID] = balance - amount
	t.undo = append(t.undo, func() { t.s.accounts[userID] += amount })
	return nil
}

func (t *memTx) Credit(_ context.Context, userID, amount int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.accounts[userID]; !ok {
		return ledger.ErrAccountNotFound
	}
	t.s.accounts[userID] += amount
	t.undo = append(t.undo, func() { t.s.accounts[userID] -= amount })
	return nil
}

func (t *memTx) CreateEntitlement(_ context.Context, kind ledger.ItemKind, userID, itemID int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	k := ownKey{kind, userID, itemID}
	if _, ok := t.s.entitlements[k]; ok {
		return ledger.ErrAlreadyOwned
	}
	t.s.entitlements[k] = struct{}{}
	t.undo = append(t.undo, func() { delete(t.s.entitlements, k) })
	return nil
}

func (t *memTx) RecordTransfer(_ context.Context, tr *ledger.Transfer) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.transfers = append(t.s.transfers, *tr)
	no := tr.TransactionNo
	t.undo = append(t.undo, func() {
		for i := range t.s.transfers {
			if t.s.transfers[i].TransactionNo == no {
				t.s.transfers = append(t.s.transfers[:i], t.s.transfers[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (t *memTx) FindRating(_ context.Context, kind ledger.ItemKind, itemID, userID int64) (*ledger.Rating, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.ratings[ownKey{kind, userID, itemID}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *memTx) InsertRating(_ context.Context, r *ledger.Rating) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	k := ownKey{r.Kind, r.UserID, r.ItemID}
	if _, ok := t.s.ratings[k]; ok {
		return ledger.ErrRatingExists
	}
	t.s.ratings[k] = *r
	t.undo = append(t.undo, func() { delete(t.s.ratings, k) })
	return nil
}

func (t *memTx) UpdateRating(_ context.Context, r *ledger.Rating) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	k := ownKey{r.Kind, r.UserID, r.ItemID}
	prev := t.s.ratings[k]
	t.s.ratings[k] = *r
	t.undo = append(t.undo, func() { t.s.ratings[k] = prev })
	return nil
}

func (t *memTx) RatingStats(_ context.Context, kind ledger.ItemKind, itemID int64) (*ledger.RatingStats, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var sum, count int64
	for k, r := range t.s.ratings {
		if k.kind == kind && k.itemID == itemID {
			sum += int64(r.Value)
			count++
		}
	}
	stats := &ledger.RatingStats{Average: decimal.Zero, Count: count}
	if count > 0 {
		stats.Average = decimal.NewFromInt(sum).Div(decimal.NewFromInt(count))
	}
	return stats, nil
}

func (t *memTx) SetItemRating(_ context.Context, kind ledger.ItemKind, itemID int64, stats *ledger.RatingStats) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	k := itemKey{kind, itemID}
	prev, had := t.s.itemRatings[k]
	t.s.itemRatings[k] = *stats
	t.undo = append(t.undo, func() {
		if had {
			t.s.itemRatings[k] = prev
		} else {
			delete(t.s.itemRatings, k)
		}
	})
	return nil
}
