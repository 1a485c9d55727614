package model

import (
	"time"
)

// ============================================================================
// 权益表
// ============================================================================
//
// (user_id, 商品id) 上的唯一索引是防止重复购买的最终保障，
// 事务外的存在性检查只是提前返回。
// 只追加，不修改；课程/笔记被管理员删除时一并清理。

// Enrollment 课程报名
type Enrollment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:uk_enrollment_user_course;not null" json:"user_id"`
	CourseID  int64     `gorm:"uniqueIndex:uk_enrollment_user_course;index;not null" json:"course_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Enrollment) TableName() string {
	return "enrollment"
}

// NotePurchase 笔记购买记录
type NotePurchase struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:uk_purchase_user_note;not null" json:"user_id"`
	NoteID    int64     `gorm:"uniqueIndex:uk_purchase_user_note;index;not null" json:"note_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (NotePurchase) TableName() string {
	return "note_purchase"
}
