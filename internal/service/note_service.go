package service

import (
	"context"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"studyverse/internal/auth"
	"studyverse/internal/ledger"
	"studyverse/internal/model"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

// FileStore 上传文件的存放位置
type FileStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(url string) error
	Path(url string) (string, error)
}

var previewImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type NoteService struct {
	db              *gorm.DB
	ledger          *ledger.Ledger
	docs            FileStore // 笔记文件，不公开
	images          FileStore // 预览图，静态路由公开
	noteRepo        *repository.NoteRepository
	courseRepo      *repository.CourseRepository
	entitlementRepo *repository.EntitlementRepository
	ratingRepo      *repository.RatingRepository
	commentRepo     *repository.CommentRepository
}

func NewNoteService(db *gorm.DB, l *ledger.Ledger, docs, images FileStore) *NoteService {
	return &NoteService{
		db:              db,
		ledger:          l,
		docs:            docs,
		images:          images,
		noteRepo:        repository.NewNoteRepository(db),
		courseRepo:      repository.NewCourseRepository(db),
		entitlementRepo: repository.NewEntitlementRepository(db),
		ratingRepo:      repository.NewRatingRepository(db),
		commentRepo:     repository.NewCommentRepository(db),
	}
}

// UploadNoteRequest multipart 表单：noteFile 必填，previewImage 可选
type UploadNoteRequest struct {
	Title        string `validate:"required,max=200"`
	Description  string
	Price        int64                 `validate:"gte=0"`
	CourseID     *int64                `validate:"omitempty,gt=0"`
	NoteFile     *multipart.FileHeader `validate:"required"`
	PreviewImage *multipart.FileHeader
}

func (s *NoteService) ListStandalone(ctx context.Context) ([]*model.Note, error) {
	return s.noteRepo.ListStandalone(ctx)
}

func (s *NoteService) Get(ctx context.Context, noteID int64) (*model.Note, error) {
	return s.noteRepo.GetByID(ctx, nil, noteID)
}

// NoteFile 下载用的本地文件
type NoteFile struct {
	Path string
	Name string
}

// Download 笔记文件只给上传者、管理员和已购买的用户
func (s *NoteService) Download(ctx context.Context, id auth.Identity, noteID int64) (*NoteFile, error) {
	note, err := s.noteRepo.GetByID(ctx, nil, noteID)
	if err != nil {
		return nil, err
	}

	if note.UploaderID != id.UserID && id.Role != model.RoleAdmin {
		owned, err := s.ledger.HasEntitlement(ctx, ledger.KindNote, id.UserID, noteID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, ErrNotEntitled
		}
	}

	p, err := s.docs.Path(note.FileURL)
	if err != nil {
		return nil, err
	}
	return &NoteFile{Path: p, Name: note.Title + filepath.Ext(p)}, nil
}

// ListPurchased 已购买的笔记
func (s *NoteService) ListPurchased(ctx context.Context, id auth.Identity) ([]*model.Note, error) {
	return s.noteRepo.ListPurchased(ctx, id.UserID)
}

// Upload 上传笔记，上传者即卖家
//
// 先落盘再写库；写库失败时把已保存的文件删掉。
func (s *NoteService) Upload(ctx context.Context, id auth.Identity, req *UploadNoteRequest) (*model.Note, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if req.PreviewImage != nil && !previewImageExts[strings.ToLower(filepath.Ext(req.PreviewImage.Filename))] {
		return nil, invalidInput("previewImage 必须是图片")
	}

	if req.CourseID != nil {
		if _, err := s.courseRepo.GetByID(ctx, nil, *req.CourseID); err != nil {
			return nil, err
		}
	}

	fileURL, err := s.docs.Save(req.NoteFile)
	if err != nil {
		return nil, err
	}

	var imageURL *string
	if req.PreviewImage != nil {
		url, err := s.images.Save(req.PreviewImage)
		if err != nil {
			s.cleanup(fileURL, nil)
			return nil, err
		}
		imageURL = &url
	}

	note := &model.Note{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     fileURL,
		ImageURL:    imageURL,
		Price:       req.Price,
		UploaderID:  id.UserID,
		CourseID:    req.CourseID,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		s.cleanup(fileURL, imageURL)
		return nil, err
	}

	log.Printf("[NoteService] 笔记上传: id=%d, uploader=%d, price=%d", note.ID, note.UploaderID, note.Price)
	return note, nil
}

// remove 删除笔记及其附属数据，然后删除文件
func (s *NoteService) remove(ctx context.Context, noteID int64) error {
	note, err := s.noteRepo.GetByID(ctx, nil, noteID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ratingRepo.DeleteByItem(ctx, tx, model.ItemTypeNote, noteID); err != nil {
			return err
		}
		if err := s.commentRepo.DeleteByItem(ctx, tx, model.ItemTypeNote, noteID); err != nil {
			return err
		}
		if err := s.entitlementRepo.DeleteByItem(ctx, tx, model.ItemTypeNote, noteID); err != nil {
			return err
		}
		return s.noteRepo.Delete(ctx, tx, noteID)
	})
	if err != nil {
		return err
	}

	s.cleanup(note.FileURL, note.ImageURL)
	return nil
}

func (s *NoteService) cleanup(fileURL string, imageURL *string) {
	if err := s.docs.Remove(fileURL); err != nil {
		log.Printf("[NoteService] 删除笔记文件失败: url=%s, err=%v", fileURL, err)
	}
	if imageURL == nil {
		return
	}
	if err := s.images.Remove(*imageURL); err != nil {
		log.Printf("[NoteService] 删除预览图失败: url=%s, err=%v", *imageURL, err)
	}
}
