package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrAccountNotFound  = errors.New("账户不存在")
	ErrBalanceNotEnough = errors.New("余额不足")
	ErrCourseNotFound   = errors.New("课程不存在")
	ErrLessonNotFound   = errors.New("课时不存在")
	ErrNoteNotFound     = errors.New("笔记不存在")
	ErrDuplicate        = errors.New("记录已存在")
)

// mysqlDuplicateEntry ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// isDuplicate 唯一索引冲突
//
// gorm 打开了 TranslateError 时会返回 gorm.ErrDuplicatedKey，
// 没打开（或者驱动没翻译）时退回到 MySQL 原始错误码判断。
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// orNotFound 把 gorm.ErrRecordNotFound 换成业务上的 not found
func orNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// conn 有事务用事务，没有就用根连接
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
