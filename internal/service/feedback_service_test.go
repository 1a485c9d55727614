package service

import (
	"context"
	"testing"

	"studyverse/internal/ledger"
	"studyverse/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseRow(id, teacherID, price int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "teacher_id", "price", "status"}).
		AddRow(id, "Go 入门", teacherID, price, "approved")
}

func TestFeedback_RateRequiresEntitlement(t *testing.T) {
	db, mock := newMockDB(t)
	l, store := newMemoryLedger()
	store.AddAccount(1, 100)
	store.AddAccount(2, 0)
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 10, SellerID: 2, Price: 40})

	svc := NewFeedbackService(db, l)

	mock.ExpectQuery("SELECT \\* FROM `course`").WillReturnRows(courseRow(10, 2, 40))
	_, err := svc.Rate(context.Background(), student(1), ledger.KindCourse, 10, &RateRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrNotEntitled)

	_, err = l.Purchase(context.Background(), 1, ledger.KindCourse, 10)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `course`").WillReturnRows(courseRow(10, 2, 40))
	result, err := svc.Rate(context.Background(), student(1), ledger.KindCourse, 10, &RateRequest{Rating: 4, Review: " 不错 "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RatingCount)
	assert.Equal(t, "4", result.AverageRating.String())

	// 重新评分覆盖原值
	mock.ExpectQuery("SELECT \\* FROM `course`").WillReturnRows(courseRow(10, 2, 40))
	result, err = svc.Rate(context.Background(), student(1), ledger.KindCourse, 10, &RateRequest{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RatingCount)
	assert.Equal(t, "2", result.AverageRating.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedback_RateOutOfRange(t *testing.T) {
	db, _ := newMockDB(t)
	l, _ := newMemoryLedger()
	svc := NewFeedbackService(db, l)

	for _, v := range []int{0, 6, -1} {
		_, err := svc.Rate(context.Background(), student(1), ledger.KindNote, 1, &RateRequest{Rating: v})
		assert.ErrorIs(t, err, ledger.ErrInvalidRating)
	}
}

func TestFeedback_MissingItem(t *testing.T) {
	db, mock := newMockDB(t)
	l, _ := newMemoryLedger()
	svc := NewFeedbackService(db, l)

	mock.ExpectQuery("SELECT \\* FROM `note`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := svc.AddComment(context.Background(), student(1), ledger.KindNote, 404, &CommentRequest{Text: "hi"})
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
}

func TestFeedback_CommentGate(t *testing.T) {
	db, mock := newMockDB(t)
	l, store := newMemoryLedger()
	store.AddAccount(1, 100)
	store.AddAccount(2, 0)
	store.AddItem(ledger.Item{Kind: ledger.KindNote, ID: 5, SellerID: 2, Price: 0})

	svc := NewFeedbackService(db, l)
	noteRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "title", "uploader_id", "price"}).AddRow(5, "笔记", 2, 0)
	}

	mock.ExpectQuery("SELECT \\* FROM `note`").WillReturnRows(noteRow())
	_, err := svc.AddComment(context.Background(), student(1), ledger.KindNote, 5, &CommentRequest{Text: "hi"})
	assert.ErrorIs(t, err, ErrNotEntitled)

	_, err = l.Purchase(context.Background(), 1, ledger.KindNote, 5)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `note`").WillReturnRows(noteRow())
	mock.ExpectExec("INSERT INTO `comment`").WillReturnResult(sqlmock.NewResult(3, 1))
	comment, err := svc.AddComment(context.Background(), student(1), ledger.KindNote, 5, &CommentRequest{Text: "  hi  "})
	require.NoError(t, err)
	assert.Equal(t, "hi", comment.Text)
	assert.Equal(t, "note", comment.ItemType)

	_, err = svc.AddComment(context.Background(), student(1), ledger.KindNote, 5, &CommentRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.NoError(t, mock.ExpectationsWereMet())
}
