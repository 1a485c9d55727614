package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Note struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string          `gorm:"type:varchar(200);not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	FileURL       string          `gorm:"type:varchar(512);not null" json:"-"` // 通过 GET /notes/:id/file 下载
	ImageURL      *string         `gorm:"type:varchar(512)" json:"image_url"`
	Price         int64           `gorm:"not null;default:0" json:"price"`
	UploaderID    int64           `gorm:"index;not null" json:"uploader_id"`
	CourseID      *int64          `gorm:"index" json:"course_id"` // 为空表示独立笔记
	AverageRating decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0" json:"average_rating"`
	RatingCount   int64           `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Note) TableName() string {
	return "note"
}
