package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("noteFile", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["noteFile"][0]
}

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads", 1<<20)
	require.NoError(t, err)

	url, err := s.Save(fileHeader(t, "Chapter1.PDF", []byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	stored := filepath.Join(dir, filepath.Base(url))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.Remove(url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, s.Remove(url))
}

func TestSave_TooLarge(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads", 4)
	require.NoError(t, err)

	_, err = s.Save(fileHeader(t, "big.pdf", []byte("0123456789")))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestRemove_IgnoresForeignURLs(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads", 0)
	require.NoError(t, err)
	assert.NoError(t, s.Remove("https://cdn.example.com/x.pdf"))
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/files/notes", 1<<20)
	require.NoError(t, err)

	url, err := s.Save(fileHeader(t, "notes.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)

	p, err := s.Path(url)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, filepath.Base(url)), p)

	_, err = s.Path("/uploads/" + filepath.Base(url))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = s.Path("/files/notes/missing.pdf")
	assert.ErrorIs(t, err, ErrFileNotFound)

	// 不能借 ../ 跳出目录
	_, err = s.Path("/files/notes/../../etc/passwd")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
