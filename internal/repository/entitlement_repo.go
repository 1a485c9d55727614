package repository

import (
	"context"
	"fmt"

	"studyverse/internal/model"

	"gorm.io/gorm"
)

// EntitlementRepository 课程报名和笔记购买两张权益表
type EntitlementRepository struct {
	db *gorm.DB
}

func NewEntitlementRepository(db *gorm.DB) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

func (r *EntitlementRepository) Exists(ctx context.Context, tx *gorm.DB, itemType string, userID, itemID int64) (bool, error) {
	var count int64
	var err error
	db := conn(r.db, tx).WithContext(ctx)

	switch itemType {
	case model.ItemTypeCourse:
		err = db.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, itemID).
			Count(&count).Error
	case model.ItemTypeNote:
		err = db.Model(&model.NotePurchase{}).
			Where("user_id = ? AND note_id = ?", userID, itemID).
			Count(&count).Error
	default:
		return false, fmt.Errorf("unknown item type %q", itemType)
	}

	return count > 0, err
}

// Create 唯一索引冲突时返回 ErrDuplicate
func (r *EntitlementRepository) Create(ctx context.Context, tx *gorm.DB, itemType string, userID, itemID int64) error {
	var row interface{}
	switch itemType {
	case model.ItemTypeCourse:
		row = &model.Enrollment{UserID: userID, CourseID: itemID}
	case model.ItemTypeNote:
		row = &model.NotePurchase{UserID: userID, NoteID: itemID}
	default:
		return fmt.Errorf("unknown item type %q", itemType)
	}

	err := conn(r.db, tx).WithContext(ctx).Create(row).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteByItem 商品被删除时清理权益
func (r *EntitlementRepository) DeleteByItem(ctx context.Context, tx *gorm.DB, itemType string, itemID int64) error {
	db := conn(r.db, tx).WithContext(ctx)
	switch itemType {
	case model.ItemTypeCourse:
		return db.Where("course_id = ?", itemID).Delete(&model.Enrollment{}).Error
	case model.ItemTypeNote:
		return db.Where("note_id = ?", itemID).Delete(&model.NotePurchase{}).Error
	default:
		return fmt.Errorf("unknown item type %q", itemType)
	}
}
