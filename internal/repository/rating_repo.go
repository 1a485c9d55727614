package repository

import (
	"context"

	"studyverse/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// FindForUpdate 锁住 (商品, 用户) 的评分行，不存在时返回 nil, nil
//
// 不存在时 InnoDB 只加间隙锁，间隙锁之间互不阻塞：
// 同一用户的两次并发首次评分都会走到 INSERT，后到的一方撞唯一索引（1062）
// 或被判死锁（1213）。前者由 Create 返回 ErrDuplicate，后者整个事务回滚。
func (r *RatingRepository) FindForUpdate(ctx context.Context, tx *gorm.DB, itemType string, itemID, userID int64) (*model.Rating, error) {
	var ratings []*model.Rating
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_type = ? AND item_id = ? AND user_id = ?", itemType, itemID, userID).
		Limit(1).
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, nil
	}
	return ratings[0], nil
}

// Create 唯一索引冲突时返回 ErrDuplicate
func (r *RatingRepository) Create(ctx context.Context, tx *gorm.DB, rating *model.Rating) error {
	err := conn(r.db, tx).WithContext(ctx).Create(rating).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *RatingRepository) Update(ctx context.Context, tx *gorm.DB, itemType string, itemID, userID int64, value int, review string) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.Rating{}).
		Where("item_type = ? AND item_id = ? AND user_id = ?", itemType, itemID, userID).
		Updates(map[string]interface{}{
			"rating_value": value,
			"review":       review,
		}).Error
}

// Stats 按评分行计算平均分和数量，没有评分时为 0, 0
func (r *RatingRepository) Stats(ctx context.Context, tx *gorm.DB, itemType string, itemID int64) (decimal.Decimal, int64, error) {
	var row struct {
		Average decimal.Decimal
		Total   int64
	}
	err := conn(r.db, tx).WithContext(ctx).
		Model(&model.Rating{}).
		Select("COALESCE(AVG(rating_value), 0) AS average, COUNT(*) AS total").
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Scan(&row).Error
	return row.Average, row.Total, err
}

// ListReviews 评价列表，带评价人姓名
func (r *RatingRepository) ListReviews(ctx context.Context, itemType string, itemID int64) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Table("rating AS r").
		Select("r.rating_value, r.review, r.created_at, u.name AS author_name").
		Joins("LEFT JOIN `user` u ON u.id = r.user_id").
		Where("r.item_type = ? AND r.item_id = ?", itemType, itemID).
		Order("r.updated_at DESC").
		Scan(&reviews).Error
	return reviews, err
}

// ListRatedItemIDs 有评分的商品，按 id 游标分页，给对账任务用
func (r *RatingRepository) ListRatedItemIDs(ctx context.Context, itemType string, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Rating{}).
		Distinct("item_id").
		Where("item_type = ? AND item_id > ?", itemType, afterID).
		Order("item_id ASC").
		Limit(limit).
		Pluck("item_id", &ids).Error
	return ids, err
}

func (r *RatingRepository) DeleteByItem(ctx context.Context, tx *gorm.DB, itemType string, itemID int64) error {
	return conn(r.db, tx).WithContext(ctx).
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Delete(&model.Rating{}).Error
}
