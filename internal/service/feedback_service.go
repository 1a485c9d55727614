package service

import (
	"context"
	"strings"

	"studyverse/internal/auth"
	"studyverse/internal/ledger"
	"studyverse/internal/model"
	"studyverse/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeedbackService 评分和评论，都要求调用方已拥有该商品
type FeedbackService struct {
	ledger      *ledger.Ledger
	courseRepo  *repository.CourseRepository
	noteRepo    *repository.NoteRepository
	ratingRepo  *repository.RatingRepository
	commentRepo *repository.CommentRepository
}

func NewFeedbackService(db *gorm.DB, l *ledger.Ledger) *FeedbackService {
	return &FeedbackService{
		ledger:      l,
		courseRepo:  repository.NewCourseRepository(db),
		noteRepo:    repository.NewNoteRepository(db),
		ratingRepo:  repository.NewRatingRepository(db),
		commentRepo: repository.NewCommentRepository(db),
	}
}

type RateRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// RatingResult 评分后商品的最新统计
type RatingResult struct {
	AverageRating decimal.Decimal `json:"average_rating"`
	RatingCount   int64           `json:"rating_count"`
}

// Rate 提交或覆盖评分
func (s *FeedbackService) Rate(ctx context.Context, id auth.Identity, kind ledger.ItemKind, itemID int64, req *RateRequest) (*RatingResult, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ledger.ErrInvalidRating
	}
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if err := s.gate(ctx, id, kind, itemID); err != nil {
		return nil, err
	}

	stats, err := s.ledger.Rate(ctx, &ledger.Rating{
		Kind:   kind,
		ItemID: itemID,
		UserID: id.UserID,
		Value:  req.Rating,
		Review: strings.TrimSpace(req.Review),
	})
	if err != nil {
		return nil, err
	}

	return &RatingResult{AverageRating: stats.Average, RatingCount: stats.Count}, nil
}

func (s *FeedbackService) Reviews(ctx context.Context, kind ledger.ItemKind, itemID int64) ([]*model.Review, error) {
	if err := s.ensureItem(ctx, kind, itemID); err != nil {
		return nil, err
	}
	return s.ratingRepo.ListReviews(ctx, string(kind), itemID)
}

func (s *FeedbackService) Comments(ctx context.Context, kind ledger.ItemKind, itemID int64) ([]*model.CommentView, error) {
	if err := s.ensureItem(ctx, kind, itemID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByItem(ctx, string(kind), itemID)
}

func (s *FeedbackService) AddComment(ctx context.Context, id auth.Identity, kind ledger.ItemKind, itemID int64, req *CommentRequest) (*model.Comment, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if err := s.gate(ctx, id, kind, itemID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ItemType: string(kind),
		ItemID:   itemID,
		UserID:   id.UserID,
		Text:     req.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// gate 商品存在且调用方已拥有
func (s *FeedbackService) gate(ctx context.Context, id auth.Identity, kind ledger.ItemKind, itemID int64) error {
	if err := s.ensureItem(ctx, kind, itemID); err != nil {
		return err
	}
	owned, err := s.ledger.HasEntitlement(ctx, kind, id.UserID, itemID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotEntitled
	}
	return nil
}

func (s *FeedbackService) ensureItem(ctx context.Context, kind ledger.ItemKind, itemID int64) error {
	var err error
	switch kind {
	case ledger.KindCourse:
		_, err = s.courseRepo.GetByID(ctx, nil, itemID)
	case ledger.KindNote:
		_, err = s.noteRepo.GetByID(ctx, nil, itemID)
	default:
		err = ledger.ErrNotFound
	}
	return err
}
