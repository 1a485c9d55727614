package repository

import (
	"context"

	"studyverse/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *NoteRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Note, error) {
	var note model.Note
	if err := conn(r.db, tx).WithContext(ctx).First(&note, id).Error; err != nil {
		return nil, orNotFound(err, ErrNoteNotFound)
	}
	return &note, nil
}

// ListStandalone 不属于任何课程的笔记
func (r *NoteRepository) ListStandalone(ctx context.Context) ([]*model.Note, error) {
	var notes []*model.Note
	err := r.db.WithContext(ctx).
		Where("course_id IS NULL").
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) ListByCourse(ctx context.Context, courseID int64) ([]*model.Note, error) {
	var notes []*model.Note
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

// ListPurchased 学生已购买的笔记
func (r *NoteRepository) ListPurchased(ctx context.Context, userID int64) ([]*model.Note, error) {
	var notes []*model.Note
	err := r.db.WithContext(ctx).
		Joins("JOIN note_purchase p ON p.note_id = note.id").
		Where("p.user_id = ?", userID).
		Order("p.created_at DESC").
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) Search(ctx context.Context, keyword string, limit int) ([]*model.Note, error) {
	var notes []*model.Note
	like := "%" + keyword + "%"
	err := r.db.WithContext(ctx).
		Where("title LIKE ? OR description LIKE ?", like, like).
		Order("created_at DESC").
		Limit(limit).
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) UpdateRating(ctx context.Context, tx *gorm.DB, id int64, average decimal.Decimal, count int64) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"rating_count":   count,
		}).Error
}

func (r *NoteRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	result := conn(r.db, tx).WithContext(ctx).Delete(&model.Note{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DetachFromCourse 课程被删除后，其下笔记变为独立笔记
func (r *NoteRepository) DetachFromCourse(ctx context.Context, tx *gorm.DB, courseID int64) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.Note{}).
		Where("course_id = ?", courseID).
		Update("course_id", nil).Error
}
