package model

import (
	"time"
)

// 评分和评论共用的商品类型，与 ledger.ItemKind 取值一致
const (
	ItemTypeCourse = "course"
	ItemTypeNote   = "note"
)

// Rating 评分表，每个用户对每个商品只有一行
type Rating struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemType    string    `gorm:"type:varchar(20);uniqueIndex:uk_rating_item_user;not null" json:"item_type"`
	ItemID      int64     `gorm:"uniqueIndex:uk_rating_item_user;not null" json:"item_id"`
	UserID      int64     `gorm:"uniqueIndex:uk_rating_item_user;not null" json:"user_id"`
	RatingValue int       `gorm:"not null" json:"rating_value"`
	Review      string    `gorm:"type:text" json:"review"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Rating) TableName() string {
	return "rating"
}

// Review 评价列表展示
type Review struct {
	RatingValue int       `json:"rating_value"`
	Review      string    `json:"review"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorName  string    `json:"author_name"`
}

type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemType  string    `gorm:"type:varchar(20);index:idx_comment_item;not null" json:"item_type"`
	ItemID    int64     `gorm:"index:idx_comment_item;not null" json:"item_id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Comment) TableName() string {
	return "comment"
}

// CommentView 评论列表展示
type CommentView struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name"`
}
