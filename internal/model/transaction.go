package model

import (
	"time"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeDeposit  = "DEPOSIT"  // 充值
	TransactionTypePurchase = "PURCHASE" // 购买（扣款）
	TransactionTypeSale     = "SALE"     // 出售（入账）
)

// AccountTransaction 账户流水表
// 记录账户的每一笔资金变动，是对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除，便于审计追溯
// 2. 一次购买写两行（买家 PURCHASE、卖家 SALE），共用一个流水号
// 3. 买家行记录交易前后余额；卖家账户未加锁，只记录金额
type AccountTransaction struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo  string    `gorm:"type:varchar(64);uniqueIndex:uk_txn_no_user;not null" json:"transaction_no"`
	UserID         int64     `gorm:"uniqueIndex:uk_txn_no_user;index;not null" json:"user_id"`
	CounterpartyID int64     `gorm:"not null;default:0" json:"counterparty_id"`
	ItemType       string    `gorm:"type:varchar(20)" json:"item_type"`
	ItemID         int64     `gorm:"not null;default:0" json:"item_id"`
	Amount         int64     `gorm:"not null" json:"amount"` // 正数入账，负数出账
	Type           string    `gorm:"type:varchar(20);not null" json:"type"`
	BalanceBefore  *int64    `json:"balance_before,omitempty"`
	BalanceAfter   *int64    `json:"balance_after,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AccountTransaction) TableName() string {
	return "account_transaction"
}
