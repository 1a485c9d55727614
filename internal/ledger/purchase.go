package ledger

import (
	"context"
)

// Receipt 购买/充值成功后的回执
type Receipt struct {
	TransactionNo string   `json:"transaction_no"`
	ItemKind      ItemKind `json:"item_type,omitempty"`
	ItemID        int64    `json:"item_id,omitempty"`
	SellerID      int64    `json:"seller_id,omitempty"`
	Amount        int64    `json:"amount"`
	NewBalance    int64    `json:"new_balance"`
}

// Purchase 购买课程或笔记
//
// 【关键点】
//  1. 已拥有检查放在事务外，只是为了尽早返回；真正防重靠的是权益表上的唯一索引
//  2. 余额只有在 FOR UPDATE 之后读到的才作数，同一买家的并发购买在这里排队
//  3. 事务内任何错误都会回滚已经做过的扣款/入账
func (l *Ledger) Purchase(ctx context.Context, buyerID int64, kind ItemKind, itemID int64) (*Receipt, error) {
	if !kind.Valid() {
		return nil, ErrNotFound
	}

	owned, err := l.store.HasEntitlement(ctx, kind, buyerID, itemID)
	if err != nil {
		return nil, storageError(err)
	}
	if owned {
		return nil, ErrAlreadyOwned
	}

	var receipt *Receipt
	err = l.store.WithinTx(ctx, func(tx Tx) error {
		item, err := tx.FindItem(ctx, kind, itemID)
		if err != nil {
			return err
		}

		if item.SellerID == buyerID {
			return ErrSelfPurchaseForbidden
		}

		account, err := tx.LockAccount(ctx, buyerID)
		if err != nil {
			return err
		}

		if account.Balance < item.Price {
			return ErrInsufficientFunds
		}

		if item.Price > 0 {
			if err := tx.Debit(ctx, buyerID, item.Price); err != nil {
				return err
			}
			// 卖家不加锁，直接在原值上累加
			if err := tx.Credit(ctx, item.SellerID, item.Price); err != nil {
				return err
			}
		}

		if err := tx.CreateEntitlement(ctx, kind, buyerID, itemID); err != nil {
			return err
		}

		transfer := &Transfer{
			TransactionNo: l.newNo(),
			Type:          EntryTypePurchase,
			BuyerID:       buyerID,
			SellerID:      item.SellerID,
			ItemKind:      kind,
			ItemID:        itemID,
			Amount:        item.Price,
			BalanceBefore: account.Balance,
			BalanceAfter:  account.Balance - item.Price,
			CreatedAt:     l.now(),
		}
		if err := tx.RecordTransfer(ctx, transfer); err != nil {
			return err
		}

		receipt = &Receipt{
			TransactionNo: transfer.TransactionNo,
			ItemKind:      kind,
			ItemID:        itemID,
			SellerID:      item.SellerID,
			Amount:        item.Price,
			NewBalance:    transfer.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	return receipt, nil
}

// Deposit 充值（简化版，实际应该走支付渠道）
func (l *Ledger) Deposit(ctx context.Context, userID, amount int64) (*Receipt, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var receipt *Receipt
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		account, err := tx.LockAccount(ctx, userID)
		if err != nil {
			return err
		}

		if err := tx.Credit(ctx, userID, amount); err != nil {
			return err
		}

		transfer := &Transfer{
			TransactionNo: l.newNo(),
			Type:          EntryTypeDeposit,
			BuyerID:       userID,
			Amount:        amount,
			BalanceBefore: account.Balance,
			BalanceAfter:  account.Balance + amount,
			CreatedAt:     l.now(),
		}
		if err := tx.RecordTransfer(ctx, transfer); err != nil {
			return err
		}

		receipt = &Receipt{
			TransactionNo: transfer.TransactionNo,
			Amount:        amount,
			NewBalance:    transfer.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	return receipt, nil
}
