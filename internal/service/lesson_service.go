package service

import (
	"context"
	"strings"

	"studyverse/internal/auth"
	"studyverse/internal/ledger"
	"studyverse/internal/model"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

type LessonService struct {
	ledger     *ledger.Ledger
	courseRepo *repository.CourseRepository
	lessonRepo *repository.LessonRepository
}

func NewLessonService(db *gorm.DB, l *ledger.Ledger) *LessonService {
	return &LessonService{
		ledger:     l,
		courseRepo: repository.NewCourseRepository(db),
		lessonRepo: repository.NewLessonRepository(db),
	}
}

type LessonRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content"`
	VideoURL string `json:"video_url" validate:"omitempty,url,max=512"`
}

type UpdateLessonRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string `json:"content"`
	VideoURL *string `json:"video_url" validate:"omitempty,url,max=512"`
}

func (s *LessonService) List(ctx context.Context, courseID int64) ([]*model.Lesson, error) {
	if _, err := s.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		return nil, err
	}
	return s.lessonRepo.ListByCourse(ctx, courseID)
}

// Add 课程讲师追加课时，位置为当前课时数 + 1
func (s *LessonService) Add(ctx context.Context, id auth.Identity, courseID int64, req *LessonRequest) (*model.Lesson, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, id, courseID); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
	}
	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Update(ctx context.Context, id auth.Identity, lessonID int64, req *UpdateLessonRequest) (*model.Lesson, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, id, lesson.CourseID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
		fields["title"] = lesson.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
		fields["content"] = lesson.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
		fields["video_url"] = lesson.VideoURL
	}
	if len(fields) == 0 {
		return lesson, nil
	}

	if err := s.lessonRepo.Update(ctx, lessonID, fields); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Delete(ctx context.Context, id auth.Identity, lessonID int64) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.checkOwner(ctx, id, lesson.CourseID); err != nil {
		return err
	}
	return s.lessonRepo.Delete(ctx, lessonID)
}

// Complete 标记课时完成，只有已报名的学生可以，重复标记幂等
func (s *LessonService) Complete(ctx context.Context, id auth.Identity, lessonID int64) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}

	enrolled, err := s.ledger.HasEntitlement(ctx, ledger.KindCourse, id.UserID, lesson.CourseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEntitled
	}

	return s.lessonRepo.MarkCompleted(ctx, id.UserID, lessonID)
}

// Progress 已完成的课时 id
func (s *LessonService) Progress(ctx context.Context, id auth.Identity, courseID int64) ([]int64, error) {
	if _, err := s.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		return nil, err
	}
	return s.lessonRepo.CompletedLessonIDs(ctx, id.UserID, courseID)
}

func (s *LessonService) checkOwner(ctx context.Context, id auth.Identity, courseID int64) error {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return err
	}
	if course.TeacherID != id.UserID {
		return ErrForbidden
	}
	return nil
}
