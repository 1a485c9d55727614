package repository

import (
	"context"

	"studyverse/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *CourseRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Course, error) {
	var course model.Course
	if err := conn(r.db, tx).WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, orNotFound(err, ErrCourseNotFound)
	}
	return &course, nil
}

func (r *CourseRepository) GetWithTeacher(ctx context.Context, id int64) (*model.CourseWithTeacher, error) {
	var course model.CourseWithTeacher
	result := r.withTeacher(ctx).Where("c.id = ?", id).Limit(1).Scan(&course)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrCourseNotFound
	}
	return &course, nil
}

// ListApproved 公开课程列表，只展示审核通过的
func (r *CourseRepository) ListApproved(ctx context.Context) ([]*model.CourseWithTeacher, error) {
	var courses []*model.CourseWithTeacher
	err := r.withTeacher(ctx).
		Where("c.status = ?", model.CourseStatusApproved).
		Order("c.created_at DESC").
		Scan(&courses).Error
	return courses, err
}

// ListByTeacher 讲师自己的课程，包含所有审核状态
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*model.Course, error) {
	var courses []*model.Course
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// ListEnrolled 学生已报名的课程
func (r *CourseRepository) ListEnrolled(ctx context.Context, userID int64) ([]*model.CourseWithTeacher, error) {
	var courses []*model.CourseWithTeacher
	err := r.withTeacher(ctx).
		Joins("JOIN enrollment e ON e.course_id = c.id").
		Where("e.user_id = ?", userID).
		Order("e.created_at DESC").
		Scan(&courses).Error
	return courses, err
}

// Search 标题或描述模糊匹配，只查审核通过的
func (r *CourseRepository) Search(ctx context.Context, keyword string, limit int) ([]*model.CourseWithTeacher, error) {
	var courses []*model.CourseWithTeacher
	like := "%" + keyword + "%"
	err := r.withTeacher(ctx).
		Where("c.status = ?", model.CourseStatusApproved).
		Where("c.title LIKE ? OR c.description LIKE ?", like, like).
		Order("c.created_at DESC").
		Limit(limit).
		Scan(&courses).Error
	return courses, err
}

// UpdateDetails 讲师修改标题/描述/价格
// 值没变时 MySQL 的 RowsAffected 为 0，所以存在性由调用方先查
func (r *CourseRepository) UpdateDetails(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *CourseRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateRating 写入冗余评分字段
func (r *CourseRepository) UpdateRating(ctx context.Context, tx *gorm.DB, id int64, average decimal.Decimal, count int64) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"rating_count":   count,
		}).Error
}

func (r *CourseRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	result := conn(r.db, tx).WithContext(ctx).Delete(&model.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) withTeacher(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("course AS c").
		Select("c.*, u.name AS teacher_name").
		Joins("LEFT JOIN `user` u ON u.id = c.teacher_id")
}
