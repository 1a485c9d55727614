package repository

import (
	"context"

	"studyverse/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 邮箱重复时返回 ErrDuplicate
func (r *UserRepository) Create(ctx context.Context, tx *gorm.DB, user *model.User) error {
	err := conn(r.db, tx).WithContext(ctx).Create(user).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// UserWithBalance 管理后台用户列表
type UserWithBalance struct {
	model.User
	Balance int64 `json:"balance"`
}

func (r *UserRepository) ListWithBalance(ctx context.Context, page, pageSize int) ([]*UserWithBalance, int64, error) {
	var users []*UserWithBalance
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Table("`user` AS u").
		Select("u.*, COALESCE(a.balance, 0) AS balance").
		Joins("LEFT JOIN account a ON a.user_id = u.id").
		Order("u.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&users).Error

	return users, total, err
}
