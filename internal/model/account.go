package model

import (
	"time"
)

// Account 用户账户表
// 每个用户注册时开一个账户，余额只允许账本组件修改
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // 余额（最小货币单位）
	Version   int       `gorm:"not null;default:0" json:"version"` // 每次变动 +1，便于排查
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
