package service

import (
	"context"
	"testing"
	"time"

	"studyverse/internal/auth"
	"studyverse/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock, *auth.TokenManager) {
	db, mock := newMockDB(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	cfg := &config.Config{Business: config.BusinessConfig{InitialBalance: 10000}}
	return NewAuthService(db, tokens, cfg), mock, tokens
}

func TestRegister_CreatesUserAndAccount(t *testing.T) {
	svc, mock, tokens := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO `account` \\(`user_id`,`balance`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Ada",
		Email:    " Ada@Example.com ",
		Password: "secret1",
		Role:     "educator",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, int64(5), result.User.ID)

	id, err := tokens.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: 5, Role: "educator"}, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DefaultsToStudent(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user`").WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectExec("INSERT INTO `account`").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	result, err := svc.Register(context.Background(), &RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "student", result.User.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user`").WillReturnError(&mysqldriver.MySQLError{Number: 1062})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthService(t)

	cases := []*RegisterRequest{
		{Name: "", Email: "a@b.com", Password: "secret1"},
		{Name: "a", Email: "not-an-email", Password: "secret1"},
		{Name: "a", Email: "a@b.com", Password: "123"},
		{Name: "a", Email: "a@b.com", Password: "secret1", Role: "admin"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput)

		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	}
}

func TestLogin(t *testing.T) {
	svc, mock, _ := newAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role"}).
			AddRow(9, "Ada", "ada@example.com", string(hash), "student")
	}

	mock.ExpectQuery("SELECT \\* FROM `user` WHERE email = \\?").WillReturnRows(rows())
	result, err := svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	mock.ExpectQuery("SELECT \\* FROM `user` WHERE email = \\?").WillReturnRows(rows())
	_, err = svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	mock.ExpectQuery("SELECT \\* FROM `user` WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, mock.ExpectationsWereMet())
}
