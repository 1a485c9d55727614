package service

import (
	"context"
	"strings"

	"studyverse/internal/model"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

const searchLimit = 50

type SearchService struct {
	courseRepo *repository.CourseRepository
	noteRepo   *repository.NoteRepository
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{
		courseRepo: repository.NewCourseRepository(db),
		noteRepo:   repository.NewNoteRepository(db),
	}
}

type SearchResult struct {
	Courses []*model.CourseWithTeacher `json:"courses"`
	Notes   []*model.Note              `json:"notes"`
}

// Search 课程只返回审核通过的
func (s *SearchService) Search(ctx context.Context, keyword string) (*SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, invalidInput("搜索关键词不能为空")
	}

	courses, err := s.courseRepo.Search(ctx, keyword, searchLimit)
	if err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.Search(ctx, keyword, searchLimit)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Courses: courses, Notes: notes}, nil
}
