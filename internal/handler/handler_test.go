package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"studyverse/internal/auth"
	"studyverse/internal/config"
	"studyverse/internal/infrastructure/storage"
	"studyverse/internal/ledger"
	"studyverse/internal/ledger/memory"
	"studyverse/pkg/response"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type noopFiles struct{}

func (noopFiles) Save(fh *multipart.FileHeader) (string, error) {
	return "/uploads/" + fh.Filename, nil
}

func (noopFiles) Remove(string) error {
	return nil
}

func (noopFiles) Path(string) (string, error) {
	return "", storage.ErrFileNotFound
}

type testEnv struct {
	router http.Handler
	tokens *auth.TokenManager
	store  *memory.Store
	mock   sqlmock.Sqlmock
	docs   *storage.LocalStorage
}

func newTestEnv(t *testing.T, store ledger.Store) *testEnv {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var mu sync.Mutex
	seq := 0
	l := ledger.New(store, func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("TXN%d", seq)
	})

	cfg := &config.Config{Business: config.BusinessConfig{PurchaseLockSeconds: 10}}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	docs, err := storage.NewLocalStorage(t.TempDir(), "/files/notes", 1<<20)
	require.NoError(t, err)
	h := NewHandler(db, l, nil, docs, noopFiles{}, tokens, cfg)

	env := &testEnv{
		router: SetupRouter(h, tokens, t.TempDir(), 20),
		tokens: tokens,
		mock:   mock,
		docs:   docs,
	}
	if ms, ok := store.(*memory.Store); ok {
		env.store = ms
	}
	return env
}

func (e *testEnv) token(t *testing.T, userID int64, role string) string {
	tok, err := e.tokens.Issue(auth.Identity{UserID: userID, Role: role})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func seededStore() *memory.Store {
	store := memory.New()
	store.AddAccount(1, 100) // 学生
	store.AddAccount(2, 10)  // 讲师
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 10, SellerID: 2, Price: 40})
	store.AddItem(ledger.Item{Kind: ledger.KindNote, ID: 20, SellerID: 2, Price: 500})
	store.AddItem(ledger.Item{Kind: ledger.KindNote, ID: 21, SellerID: 1, Price: 5})
	return store
}

func TestEnroll_RequiresToken(t *testing.T) {
	env := newTestEnv(t, seededStore())

	w, resp := env.do(t, "POST", "/api/v1/items/courses/10/enroll", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Reason)
}

func TestEnroll_ScenarioAndDuplicate(t *testing.T) {
	env := newTestEnv(t, seededStore())
	tok := env.token(t, 1, "student")

	w, resp := env.do(t, "POST", "/api/v1/items/courses/10/enroll", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(60), data["new_balance"])
	assert.Equal(t, float64(40), data["price"])
	assert.Equal(t, "course", data["item_type"])
	assert.Equal(t, int64(50), env.store.Balance(2))

	w, resp = env.do(t, "POST", "/api/v1/items/courses/10/enroll", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_OWNED", resp.Reason)
	assert.Equal(t, response.CodeAlreadyOwned, resp.Code)
}

func TestPurchase_ErrorReasons(t *testing.T) {
	env := newTestEnv(t, seededStore())
	tok := env.token(t, 1, "student")

	cases := []struct {
		path   string
		status int
		reason string
	}{
		{"/api/v1/items/notes/20/purchase", http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"},
		{"/api/v1/items/notes/21/purchase", http.StatusForbidden, "SELF_PURCHASE_FORBIDDEN"},
		{"/api/v1/items/notes/999/purchase", http.StatusNotFound, "NOT_FOUND"},
		{"/api/v1/items/notes/abc/purchase", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w, resp := env.do(t, "POST", tc.path, tok, nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.reason, resp.Reason)
		})
	}

	assert.Equal(t, int64(100), env.store.Balance(1))
	assert.Equal(t, int64(10), env.store.Balance(2))
}

func TestAuth_XAuthTokenHeader(t *testing.T) {
	env := newTestEnv(t, seededStore())

	req := httptest.NewRequest("POST", "/api/v1/items/courses/10/enroll", nil)
	req.Header.Set("x-auth-token", env.token(t, 1, "student"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuth_InvalidToken(t *testing.T) {
	env := newTestEnv(t, seededStore())

	w, resp := env.do(t, "GET", "/api/v1/me/account", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Reason)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t, seededStore())

	w, resp := env.do(t, "GET", "/api/v1/admin/users", env.token(t, 1, "student"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Reason)
}

func TestCreateCourse_StudentForbidden(t *testing.T) {
	env := newTestEnv(t, seededStore())

	w, _ := env.do(t, "POST", "/api/v1/courses", env.token(t, 1, "student"), map[string]interface{}{
		"title": "x", "description": "y",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearch_EmptyQuery(t *testing.T) {
	env := newTestEnv(t, seededStore())

	w, resp := env.do(t, "GET", "/api/v1/search?q=", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", resp.Reason)
}

func TestRegister_ValidationMessage(t *testing.T) {
	env := newTestEnv(t, seededStore())

	w, resp := env.do(t, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"name": "Ada", "email": "nope", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Message, "email: email")
	assert.Contains(t, resp.Message, "password: min=6")
}

func TestTopUp(t *testing.T) {
	env := newTestEnv(t, seededStore())
	tok := env.token(t, 1, "student")

	w, resp := env.do(t, "POST", "/api/v1/me/account/topup", tok, map[string]interface{}{"amount": 25})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(125), resp.Data.(map[string]interface{})["new_balance"])

	w, resp = env.do(t, "POST", "/api/v1/me/account/topup", tok, map[string]interface{}{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", resp.Reason)
}

func TestGetCourse_NotFound(t *testing.T) {
	env := newTestEnv(t, seededStore())

	env.mock.ExpectQuery("SELECT c.\\*, u.name AS teacher_name FROM course AS c").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w, resp := env.do(t, "GET", "/api/v1/courses/77", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Reason)
}

type brokenStore struct{}

func (brokenStore) HasEntitlement(context.Context, ledger.ItemKind, int64, int64) (bool, error) {
	return false, errors.New("connection reset by peer")
}

func (brokenStore) WithinTx(context.Context, func(ledger.Tx) error) error {
	return errors.New("connection reset by peer")
}

func TestPurchase_StorageFailure(t *testing.T) {
	env := newTestEnv(t, brokenStore{})

	w, resp := env.do(t, "POST", "/api/v1/items/courses/10/enroll", env.token(t, 1, "student"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORAGE_FAILURE", resp.Reason)
}

func TestDownloadNote_RequiresPurchase(t *testing.T) {
	env := newTestEnv(t, seededStore())
	require.NoError(t, os.WriteFile(filepath.Join(env.docs.Dir(), "abc.pdf"), []byte("%PDF-1.4"), 0o644))

	noteRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "title", "file_url", "price", "uploader_id"}).
			AddRow(20, "期末复习", "/files/notes/abc.pdf", 500, 2)
	}

	w, _ := env.do(t, "GET", "/api/v1/notes/20/file", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := env.token(t, 1, "student")
	env.mock.ExpectQuery("SELECT \\* FROM `note`").WillReturnRows(noteRow())
	w, resp := env.do(t, "GET", "/api/v1/notes/20/file", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_ENTITLED", resp.Reason)

	env.store.AddAccount(1, 1000)
	w, _ = env.do(t, "POST", "/api/v1/items/notes/20/purchase", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	env.mock.ExpectQuery("SELECT \\* FROM `note`").WillReturnRows(noteRow())
	req := httptest.NewRequest("GET", "/api/v1/notes/20/file", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	// 讲师下载自己的笔记不需要购买
	env.mock.ExpectQuery("SELECT \\* FROM `note`").WillReturnRows(noteRow())
	req = httptest.NewRequest("GET", "/api/v1/notes/20/file", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, 2, "educator"))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestNoteFiles_NotServedStatically(t *testing.T) {
	env := newTestEnv(t, seededStore())
	require.NoError(t, os.WriteFile(filepath.Join(env.docs.Dir(), "abc.pdf"), []byte("%PDF-1.4"), 0o644))

	req := httptest.NewRequest("GET", "/uploads/abc.pdf", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
