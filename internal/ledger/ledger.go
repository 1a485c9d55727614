package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 账本事务组件
// ============================================================================
//
// 课程报名和笔记购买走的是同一条路径：
//
//	检查是否已拥有 -> 查询商品 -> 禁止自购 -> 锁买家账户 -> 校验余额
//	-> 扣买家 -> 加卖家 -> 写入权益 -> 记流水 -> 写 outbox
//
// 后半段全部在一个数据库事务里完成，任何一步失败整体回滚。
//
// 【锁的范围】只锁买家的账户行，卖家账户是盲加（balance = balance + ?），
// 所以一个事务只持有一把行锁，不存在跨账户死锁。
//
// ============================================================================

// ItemKind 可购买商品类型
type ItemKind string

const (
	KindCourse ItemKind = "course"
	KindNote   ItemKind = "note"
)

// Valid 是否为已知的商品类型
func (k ItemKind) Valid() bool {
	return k == KindCourse || k == KindNote
}

const (
	EntryTypePurchase = "PURCHASE" // 买家扣款
	EntryTypeSale     = "SALE"     // 卖家入账
	EntryTypeDeposit  = "DEPOSIT"  // 充值
)

var (
	ErrAlreadyOwned          = errors.New("已拥有该商品")
	ErrNotFound              = errors.New("商品不存在")
	ErrSelfPurchaseForbidden = errors.New("不能购买自己的商品")
	ErrInsufficientFunds     = errors.New("余额不足")
	ErrAccountNotFound       = errors.New("账户不存在")
	ErrInvalidAmount         = errors.New("金额必须大于0")
	ErrInvalidRating         = errors.New("评分必须在 1 到 5 之间")

	// ErrRatingExists Tx.InsertRating 撞上唯一约束，Rate 内部处理，不会返回给调用方
	ErrRatingExists = errors.New("评分已存在")

	// ErrStorage 存储层故障（锁等待超时、连接中断等），事务已整体回滚
	ErrStorage = errors.New("存储异常")
)

// Item 可购买商品（课程或笔记）的账本视图
type Item struct {
	Kind     ItemKind
	ID       int64
	SellerID int64
	Price    int64
	Title    string
}

// Account 账户余额，单位为最小货币单位
type Account struct {
	UserID  int64
	Balance int64
}

// Transfer 一次资金划转，落到流水表和 outbox
type Transfer struct {
	TransactionNo string
	Type          string
	BuyerID       int64
	SellerID      int64
	ItemKind      ItemKind
	ItemID        int64
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}

// Rating 用户对某个商品的评分，每个 (商品, 用户) 只有一行
type Rating struct {
	Kind   ItemKind
	ItemID int64
	UserID int64
	Value  int
	Review string
}

// RatingStats 商品上的冗余评分字段
type RatingStats struct {
	Average decimal.Decimal
	Count   int64
}

// Store 账本依赖的存储
type Store interface {
	// HasEntitlement 权益查询，事务外执行
	HasEntitlement(ctx context.Context, kind ItemKind, userID, itemID int64) (bool, error)
	// WithinTx 在一个原子单元内执行 fn，fn 返回错误时全部回滚
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx 原子单元内可用的操作
type Tx interface {
	FindItem(ctx context.Context, kind ItemKind, itemID int64) (*Item, error)
	// LockAccount 排他读取账户行，锁持有到事务结束
	LockAccount(ctx context.Context, userID int64) (*Account, error)
	Debit(ctx context.Context, userID, amount int64) error
	Credit(ctx context.Context, userID, amount int64) error
	// CreateEntitlement 唯一约束冲突时返回 ErrAlreadyOwned
	CreateEntitlement(ctx context.Context, kind ItemKind, userID, itemID int64) error
	RecordTransfer(ctx context.Context, t *Transfer) error

	// FindRating 不存在时返回 nil, nil
	FindRating(ctx context.Context, kind ItemKind, itemID, userID int64) (*Rating, error)
	// InsertRating 唯一约束冲突时返回 ErrRatingExists，事务仍可继续使用
	InsertRating(ctx context.Context, r *Rating) error
	UpdateRating(ctx context.Context, r *Rating) error
	RatingStats(ctx context.Context, kind ItemKind, itemID int64) (*RatingStats, error)
	SetItemRating(ctx context.Context, kind ItemKind, itemID int64, stats *RatingStats) error
}

// Ledger 账本事务组件
type Ledger struct {
	store Store
	newNo func() string
	now   func() time.Time
}

// New 创建账本，newNo 用于生成流水号
func New(store Store, newNo func() string) *Ledger {
	return &Ledger{
		store: store,
		newNo: newNo,
		now:   time.Now,
	}
}

// HasEntitlement 访问控制：评分、评论、完成课时都要先过这一关
func (l *Ledger) HasEntitlement(ctx context.Context, kind ItemKind, userID, itemID int64) (bool, error) {
	ok, err := l.store.HasEntitlement(ctx, kind, userID, itemID)
	if err != nil {
		return false, storageError(err)
	}
	return ok, nil
}

// storageError 业务错误原样返回，其余统一归为 ErrStorage
func storageError(err error) error {
	if err == nil || isDomainError(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrAlreadyOwned,
		ErrNotFound,
		ErrSelfPurchaseForbidden,
		ErrInsufficientFunds,
		ErrAccountNotFound,
		ErrInvalidAmount,
		ErrInvalidRating,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
