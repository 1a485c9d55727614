package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 课程审核状态
const (
	CourseStatusPending  = "pending"
	CourseStatusApproved = "approved"
	CourseStatusRejected = "rejected"
)

type Course struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string          `gorm:"type:varchar(200);not null" json:"title"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	TeacherID     int64           `gorm:"index;not null" json:"teacher_id"`
	Price         int64           `gorm:"not null;default:0" json:"price"`
	Status        string          `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	AverageRating decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0" json:"average_rating"`
	RatingCount   int64           `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Course) TableName() string {
	return "course"
}

// CourseWithTeacher 列表页带上讲师姓名
type CourseWithTeacher struct {
	Course
	TeacherName string `json:"teacher_name"`
}

type Lesson struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID  int64     `gorm:"index;not null" json:"course_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	VideoURL  string    `gorm:"type:varchar(512)" json:"video_url"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lesson"
}

type LessonCompletion struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:uk_completion_user_lesson;not null" json:"user_id"`
	LessonID  int64     `gorm:"uniqueIndex:uk_completion_user_lesson;index;not null" json:"lesson_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completion"
}
