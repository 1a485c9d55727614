package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge = errors.New("文件过大")
	ErrFileNotFound = errors.New("文件不存在")
)

// LocalStorage 上传文件落在本地目录
//
// 是否对外公开由路由决定：预览图目录挂在 /uploads 静态路由上，
// 笔记文件目录不挂，只能通过鉴权后的下载接口读取。
type LocalStorage struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

func NewLocalStorage(dir, urlPrefix string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStorage{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save 以随机文件名保存，保留原扩展名，返回对外 URL
func (s *LocalStorage) Save(fh *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove 按 URL 删除文件，文件已不存在不算错误
func (s *LocalStorage) Remove(url string) error {
	if !strings.HasPrefix(url, s.urlPrefix+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, s.urlPrefix+"/"))
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path 把 URL 还原成本地文件路径
func (s *LocalStorage) Path(url string) (string, error) {
	if !strings.HasPrefix(url, s.urlPrefix+"/") {
		return "", ErrFileNotFound
	}
	p := filepath.Join(s.dir, filepath.Base(strings.TrimPrefix(url, s.urlPrefix+"/")))
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", ErrFileNotFound
	}
	if err != nil {
		return "", err
	}
	return p, nil
}
