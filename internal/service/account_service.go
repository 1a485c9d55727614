package service

import (
	"context"

	"studyverse/internal/auth"
	"studyverse/internal/ledger"
	"studyverse/internal/model"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

const maxPageSize = 100

type AccountService struct {
	ledger          *ledger.Ledger
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
}

func NewAccountService(db *gorm.DB, l *ledger.Ledger) *AccountService {
	return &AccountService{
		ledger:          l,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

func (s *AccountService) GetAccount(ctx context.Context, id auth.Identity) (*model.Account, error) {
	return s.accountRepo.GetByUserID(ctx, id.UserID)
}

type TopUpRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// TopUp 充值，走账本记流水
func (s *AccountService) TopUp(ctx context.Context, id auth.Identity, req *TopUpRequest) (*ledger.Receipt, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}
	return s.ledger.Deposit(ctx, id.UserID, req.Amount)
}

type TransactionPage struct {
	Items    []*model.AccountTransaction `json:"items"`
	Total    int64                       `json:"total"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
}

func (s *AccountService) ListTransactions(ctx context.Context, id auth.Identity, page, pageSize int) (*TransactionPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	items, total, err := s.transactionRepo.ListByUserID(ctx, id.UserID, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
