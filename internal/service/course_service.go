package service

import (
	"context"
	"strings"

	"studyverse/internal/auth"
	"studyverse/internal/model"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

type CourseService struct {
	db              *gorm.DB
	courseRepo      *repository.CourseRepository
	lessonRepo      *repository.LessonRepository
	noteRepo        *repository.NoteRepository
	entitlementRepo *repository.EntitlementRepository
	ratingRepo      *repository.RatingRepository
	commentRepo     *repository.CommentRepository
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{
		db:              db,
		courseRepo:      repository.NewCourseRepository(db),
		lessonRepo:      repository.NewLessonRepository(db),
		noteRepo:        repository.NewNoteRepository(db),
		entitlementRepo: repository.NewEntitlementRepository(db),
		ratingRepo:      repository.NewRatingRepository(db),
		commentRepo:     repository.NewCommentRepository(db),
	}
}

type CourseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Price       int64  `json:"price" validate:"gte=0"`
}

// UpdateCourseRequest 只更新传了的字段
type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
}

func (s *CourseService) ListApproved(ctx context.Context) ([]*model.CourseWithTeacher, error) {
	return s.courseRepo.ListApproved(ctx)
}

func (s *CourseService) Get(ctx context.Context, courseID int64) (*model.CourseWithTeacher, error) {
	return s.courseRepo.GetWithTeacher(ctx, courseID)
}

// Create 讲师创建课程，初始状态为待审核
func (s *CourseService) Create(ctx context.Context, id auth.Identity, req *CourseRequest) (*model.Course, error) {
	if err := requireRole(id, model.RoleEducator); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateInput(req); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   id.UserID,
		Price:       req.Price,
		Status:      model.CourseStatusPending,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, id auth.Identity, courseID int64, req *UpdateCourseRequest) (*model.Course, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	course, err := s.ownedCourse(ctx, id, courseID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
		fields["title"] = course.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
		fields["description"] = course.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
		fields["price"] = course.Price
	}
	if len(fields) == 0 {
		return course, nil
	}

	if err := s.courseRepo.UpdateDetails(ctx, courseID, fields); err != nil {
		return nil, err
	}
	return course, nil
}

// Delete 讲师删除自己的课程
func (s *CourseService) Delete(ctx context.Context, id auth.Identity, courseID int64) error {
	if _, err := s.ownedCourse(ctx, id, courseID); err != nil {
		return err
	}
	return s.remove(ctx, courseID)
}

// ListMine 讲师自己的课程
func (s *CourseService) ListMine(ctx context.Context, id auth.Identity) ([]*model.Course, error) {
	if err := requireRole(id, model.RoleEducator); err != nil {
		return nil, err
	}
	return s.courseRepo.ListByTeacher(ctx, id.UserID)
}

// ListEnrolled 学生已报名的课程
func (s *CourseService) ListEnrolled(ctx context.Context, id auth.Identity) ([]*model.CourseWithTeacher, error) {
	return s.courseRepo.ListEnrolled(ctx, id.UserID)
}

// ListNotes 课程下的笔记
func (s *CourseService) ListNotes(ctx context.Context, courseID int64) ([]*model.Note, error) {
	if _, err := s.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		return nil, err
	}
	return s.noteRepo.ListByCourse(ctx, courseID)
}

// ownedCourse 只有课程讲师本人可以修改
func (s *CourseService) ownedCourse(ctx context.Context, id auth.Identity, courseID int64) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != id.UserID {
		return nil, ErrForbidden
	}
	return course, nil
}

// remove 删除课程及其附属数据，课程下的笔记保留为独立笔记
func (s *CourseService) remove(ctx context.Context, courseID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lessonRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.ratingRepo.DeleteByItem(ctx, tx, model.ItemTypeCourse, courseID); err != nil {
			return err
		}
		if err := s.commentRepo.DeleteByItem(ctx, tx, model.ItemTypeCourse, courseID); err != nil {
			return err
		}
		if err := s.entitlementRepo.DeleteByItem(ctx, tx, model.ItemTypeCourse, courseID); err != nil {
			return err
		}
		if err := s.noteRepo.DetachFromCourse(ctx, tx, courseID); err != nil {
			return err
		}
		return s.courseRepo.Delete(ctx, tx, courseID)
	})
}
