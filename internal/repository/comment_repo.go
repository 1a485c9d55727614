package repository

import (
	"context"

	"studyverse/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByItem 最新的在前
func (r *CommentRepository) ListByItem(ctx context.Context, itemType string, itemID int64) ([]*model.CommentView, error) {
	var comments []*model.CommentView
	err := r.db.WithContext(ctx).
		Table("comment AS c").
		Select("c.id, c.text, c.created_at, u.name AS author_name").
		Joins("LEFT JOIN `user` u ON u.id = c.user_id").
		Where("c.item_type = ? AND c.item_id = ?", itemType, itemID).
		Order("c.created_at DESC").
		Scan(&comments).Error
	return comments, err
}

func (r *CommentRepository) DeleteByItem(ctx context.Context, tx *gorm.DB, itemType string, itemID int64) error {
	return conn(r.db, tx).WithContext(ctx).
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Delete(&model.Comment{}).Error
}
