package service

import (
	"context"
	"log"

	"studyverse/internal/auth"
	"studyverse/internal/model"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

type AdminService struct {
	courses    *CourseService
	notes      *NoteService
	courseRepo *repository.CourseRepository
	userRepo   *repository.UserRepository
	outboxRepo *repository.OutboxRepository
}

func NewAdminService(db *gorm.DB, courses *CourseService, notes *NoteService) *AdminService {
	return &AdminService{
		courses:    courses,
		notes:      notes,
		courseRepo: repository.NewCourseRepository(db),
		userRepo:   repository.NewUserRepository(db),
		outboxRepo: repository.NewOutboxRepository(db),
	}
}

type CourseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// SetCourseStatus 审核课程
func (s *AdminService) SetCourseStatus(ctx context.Context, id auth.Identity, courseID int64, req *CourseStatusRequest) (*model.Course, error) {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateInput(req); err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.courseRepo.UpdateStatus(ctx, courseID, req.Status); err != nil {
		return nil, err
	}
	course.Status = req.Status

	log.Printf("[AdminService] 课程审核: course=%d, status=%s, admin=%d", courseID, req.Status, id.UserID)
	return course, nil
}

func (s *AdminService) DeleteCourse(ctx context.Context, id auth.Identity, courseID int64) error {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		return err
	}
	if err := s.courses.remove(ctx, courseID); err != nil {
		return err
	}
	log.Printf("[AdminService] 删除课程: course=%d, admin=%d", courseID, id.UserID)
	return nil
}

func (s *AdminService) DeleteNote(ctx context.Context, id auth.Identity, noteID int64) error {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return err
	}
	if err := s.notes.remove(ctx, noteID); err != nil {
		return err
	}
	log.Printf("[AdminService] 删除笔记: note=%d, admin=%d", noteID, id.UserID)
	return nil
}

type UserPage struct {
	Items    []*repository.UserWithBalance `json:"items"`
	Total    int64                         `json:"total"`
	Page     int                           `json:"page"`
	PageSize int                           `json:"page_size"`
}

func (s *AdminService) ListUsers(ctx context.Context, id auth.Identity, page, pageSize int) (*UserPage, error) {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)

	users, total, err := s.userRepo.ListWithBalance(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: users, Total: total, Page: page, PageSize: pageSize}, nil
}

// OutboxStats 各状态的 outbox 消息数
func (s *AdminService) OutboxStats(ctx context.Context, id auth.Identity) (map[string]int64, error) {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.outboxRepo.CountByStatus(ctx)
}
