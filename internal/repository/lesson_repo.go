package repository

import (
	"context"

	"studyverse/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Create 追加到课程末尾
func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		err := tx.Model(&model.Lesson{}).
			Select("COALESCE(MAX(position), 0) + 1").
			Where("course_id = ?", lesson.CourseID).
			Scan(&next).Error
		if err != nil {
			return err
		}
		lesson.Position = next
		return tx.Create(lesson).Error
	})
}

func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, orNotFound(err, ErrLessonNotFound)
	}
	return &lesson, nil
}

func (r *LessonRepository) ListByCourse(ctx context.Context, courseID int64) ([]*model.Lesson, error) {
	var lessons []*model.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *LessonRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete 连同完成记录一起删
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&model.LessonCompletion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Lesson{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLessonNotFound
		}
		return nil
	})
}

// DeleteByCourse 课程下架时清理课时和完成记录
func (r *LessonRepository) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID int64) error {
	db := conn(r.db, tx).WithContext(ctx)
	err := db.Where("lesson_id IN (?)",
		db.Model(&model.Lesson{}).Select("id").Where("course_id = ?", courseID),
	).Delete(&model.LessonCompletion{}).Error
	if err != nil {
		return err
	}
	return db.Where("course_id = ?", courseID).Delete(&model.Lesson{}).Error
}

// MarkCompleted 重复标记不报错
func (r *LessonRepository) MarkCompleted(ctx context.Context, userID, lessonID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.LessonCompletion{UserID: userID, LessonID: lessonID}).Error
}

// CompletedLessonIDs 某个学生在某门课里已完成的课时
func (r *LessonRepository) CompletedLessonIDs(ctx context.Context, userID, courseID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.LessonCompletion{}).
		Joins("JOIN lesson l ON l.id = lesson_completion.lesson_id").
		Where("lesson_completion.user_id = ? AND l.course_id = ?", userID, courseID).
		Pluck("lesson_completion.lesson_id", &ids).Error
	return ids, err
}
