package repository

import (
	"context"

	"studyverse/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateBatch 一次购买的买家行和卖家行一起写入
func (r *TransactionRepository) CreateBatch(ctx context.Context, tx *gorm.DB, entries []*model.AccountTransaction) error {
	return conn(r.db, tx).WithContext(ctx).Create(&entries).Error
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.AccountTransaction, int64, error) {
	var transactions []*model.AccountTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AccountTransaction{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// GetByTransactionNo 一个流水号可能对应买家、卖家两行
func (r *TransactionRepository) GetByTransactionNo(ctx context.Context, transactionNo string) ([]*model.AccountTransaction, error) {
	var entries []*model.AccountTransaction
	err := r.db.WithContext(ctx).
		Where("transaction_no = ?", transactionNo).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
