package repository

import (
	"context"
	"encoding/json"
	"errors"

	"studyverse/internal/ledger"
	"studyverse/internal/model"

	"gorm.io/gorm"
)

// ============================================================================
// 账本存储的 MySQL 实现
// ============================================================================
//
// ledger 包只认 Store/Tx 两个接口，这里把它们落到 gorm 上：
//   - WithinTx       -> db.Transaction，fn 返回错误即回滚
//   - LockAccount    -> SELECT ... FOR UPDATE
//   - CreateEntitlement 唯一索引冲突 -> ledger.ErrAlreadyOwned
//   - RecordTransfer -> 流水 + outbox 同事务写入
//
// ============================================================================

// PurchaseEvent 写入 outbox 的消息体
type PurchaseEvent struct {
	TransactionNo string `json:"transaction_no"`
	Type          string `json:"type"`
	BuyerID       int64  `json:"buyer_id"`
	SellerID      int64  `json:"seller_id,omitempty"`
	ItemType      string `json:"item_type,omitempty"`
	ItemID        int64  `json:"item_id,omitempty"`
	Amount        int64  `json:"amount"`
	OccurredAt    int64  `json:"occurred_at"`
}

type LedgerStore struct {
	db              *gorm.DB
	topic           string
	accountRepo     *AccountRepository
	entitlementRepo *EntitlementRepository
	courseRepo      *CourseRepository
	noteRepo        *NoteRepository
	ratingRepo      *RatingRepository
	transactionRepo *TransactionRepository
	outboxRepo      *OutboxRepository
}

// NewLedgerStore topic 为购买/充值事件投递的 Kafka topic
func NewLedgerStore(db *gorm.DB, topic string) *LedgerStore {
	return &LedgerStore{
		db:              db,
		topic:           topic,
		accountRepo:     NewAccountRepository(db),
		entitlementRepo: NewEntitlementRepository(db),
		courseRepo:      NewCourseRepository(db),
		noteRepo:        NewNoteRepository(db),
		ratingRepo:      NewRatingRepository(db),
		transactionRepo: NewTransactionRepository(db),
		outboxRepo:      NewOutboxRepository(db),
	}
}

func (s *LedgerStore) HasEntitlement(ctx context.Context, kind ledger.ItemKind, userID, itemID int64) (bool, error) {
	return s.entitlementRepo.Exists(ctx, nil, string(kind), userID, itemID)
}

func (s *LedgerStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{s: s, tx: tx})
	})
}

type ledgerTx struct {
	s  *LedgerStore
	tx *gorm.DB
}

func (t *ledgerTx) FindItem(ctx context.Context, kind ledger.ItemKind, itemID int64) (*ledger.Item, error) {
	switch kind {
	case ledger.KindCourse:
		course, err := t.s.courseRepo.GetByID(ctx, t.tx, itemID)
		if errors.Is(err, ErrCourseNotFound) {
			return nil, ledger.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &ledger.Item{Kind: kind, ID: course.ID, SellerID: course.TeacherID, Price: course.Price, Title: course.Title}, nil

	case ledger.KindNote:
		note, err := t.s.noteRepo.GetByID(ctx, t.tx, itemID)
		if errors.Is(err, ErrNoteNotFound) {
			return nil, ledger.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &ledger.Item{Kind: kind, ID: note.ID, SellerID: note.UploaderID, Price: note.Price, Title: note.Title}, nil
	}

	return nil, ledger.ErrNotFound
}

func (t *ledgerTx) LockAccount(ctx context.Context, userID int64) (*ledger.Account, error) {
	account, err := t.s.accountRepo.GetByUserIDForUpdate(ctx, t.tx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ledger.Account{UserID: account.UserID, Balance: account.Balance}, nil
}

func (t *ledgerTx) Debit(ctx context.Context, userID, amount int64) error {
	err := t.s.accountRepo.Deduct(ctx, t.tx, userID, amount)
	if errors.Is(err, ErrBalanceNotEnough) {
		return ledger.ErrInsufficientFunds
	}
	return err
}

func (t *ledgerTx) Credit(ctx context.Context, userID, amount int64) error {
	err := t.s.accountRepo.Increase(ctx, t.tx, userID, amount)
	if errors.Is(err, ErrAccountNotFound) {
		return ledger.ErrAccountNotFound
	}
	return err
}

func (t *ledgerTx) CreateEntitlement(ctx context.Context, kind ledger.ItemKind, userID, itemID int64) error {
	err := t.s.entitlementRepo.Create(ctx, t.tx, string(kind), userID, itemID)
	if errors.Is(err, ErrDuplicate) {
		return ledger.ErrAlreadyOwned
	}
	return err
}

// RecordTransfer 写流水和 outbox
//
// 购买写两行：买家 PURCHASE（负数，带前后余额），卖家 SALE（正数）。
// 充值只写一行 DEPOSIT。
func (t *ledgerTx) RecordTransfer(ctx context.Context, tr *ledger.Transfer) error {
	before, after := tr.BalanceBefore, tr.BalanceAfter
	var entries []*model.AccountTransaction

	switch tr.Type {
	case ledger.EntryTypePurchase:
		entries = append(entries,
			&model.AccountTransaction{
				TransactionNo:  tr.TransactionNo,
				UserID:         tr.BuyerID,
				CounterpartyID: tr.SellerID,
				ItemType:       string(tr.ItemKind),
				ItemID:         tr.ItemID,
				Amount:         -tr.Amount,
				Type:           model.TransactionTypePurchase,
				BalanceBefore:  &before,
				BalanceAfter:   &after,
				CreatedAt:      tr.CreatedAt,
			},
			&model.AccountTransaction{
				TransactionNo:  tr.TransactionNo,
				UserID:         tr.SellerID,
				CounterpartyID: tr.BuyerID,
				ItemType:       string(tr.ItemKind),
				ItemID:         tr.ItemID,
				Amount:         tr.Amount,
				Type:           model.TransactionTypeSale,
				CreatedAt:      tr.CreatedAt,
			},
		)
	default:
		entries = append(entries, &model.AccountTransaction{
			TransactionNo: tr.TransactionNo,
			UserID:        tr.BuyerID,
			Amount:        tr.Amount,
			Type:          tr.Type,
			BalanceBefore: &before,
			BalanceAfter:  &after,
			CreatedAt:     tr.CreatedAt,
		})
	}

	if err := t.s.transactionRepo.CreateBatch(ctx, t.tx, entries); err != nil {
		return err
	}

	payload, err := json.Marshal(&PurchaseEvent{
		TransactionNo: tr.TransactionNo,
		Type:          tr.Type,
		BuyerID:       tr.BuyerID,
		SellerID:      tr.SellerID,
		ItemType:      string(tr.ItemKind),
		ItemID:        tr.ItemID,
		Amount:        tr.Amount,
		OccurredAt:    tr.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}

	return t.s.outboxRepo.Create(ctx, t.tx, &model.OutboxMessage{
		MessageKey: tr.TransactionNo,
		Topic:      t.s.topic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}

func (t *ledgerTx) FindRating(ctx context.Context, kind ledger.ItemKind, itemID, userID int64) (*ledger.Rating, error) {
	row, err := t.s.ratingRepo.FindForUpdate(ctx, t.tx, string(kind), itemID, userID)
	if err != nil || row == nil {
		return nil, err
	}
	return &ledger.Rating{
		Kind:   kind,
		ItemID: row.ItemID,
		UserID: row.UserID,
		Value:  row.RatingValue,
		Review: row.Review,
	}, nil
}

// InsertRating MySQL 唯一键冲突只回滚这一条语句，事务里已加的锁和写入都还在
func (t *ledgerTx) InsertRating(ctx context.Context, r *ledger.Rating) error {
	err := t.s.ratingRepo.Create(ctx, t.tx, &model.Rating{
		ItemType:    string(r.Kind),
		ItemID:      r.ItemID,
		UserID:      r.UserID,
		RatingValue: r.Value,
		Review:      r.Review,
	})
	if errors.Is(err, ErrDuplicate) {
		return ledger.ErrRatingExists
	}
	return err
}

func (t *ledgerTx) UpdateRating(ctx context.Context, r *ledger.Rating) error {
	return t.s.ratingRepo.Update(ctx, t.tx, string(r.Kind), r.ItemID, r.UserID, r.Value, r.Review)
}

func (t *ledgerTx) RatingStats(ctx context.Context, kind ledger.ItemKind, itemID int64) (*ledger.RatingStats, error) {
	average, count, err := t.s.ratingRepo.Stats(ctx, t.tx, string(kind), itemID)
	if err != nil {
		return nil, err
	}
	return &ledger.RatingStats{Average: average, Count: count}, nil
}

func (t *ledgerTx) SetItemRating(ctx context.Context, kind ledger.ItemKind, itemID int64, stats *ledger.RatingStats) error {
	switch kind {
	case ledger.KindCourse:
		return t.s.courseRepo.UpdateRating(ctx, t.tx, itemID, stats.Average, stats.Count)
	case ledger.KindNote:
		return t.s.noteRepo.UpdateRating(ctx, t.tx, itemID, stats.Average, stats.Count)
	}
	return ledger.ErrNotFound
}

var _ ledger.Store = (*LedgerStore)(nil)
