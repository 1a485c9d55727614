package job

import (
	"context"
	"errors"
	"testing"

	"studyverse/internal/infrastructure/mq"
	"studyverse/internal/ledger"
	"studyverse/internal/ledger/memory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func outboxRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "message_key", "topic", "payload", "status", "retry_count"}).
		AddRow(1, "TXN1", "studyverse.purchase", `{"type":"PURCHASE"}`, "PENDING", 0).
		AddRow(2, "TXN2", "studyverse.purchase", `{"type":"DEPOSIT"}`, "PENDING", 4)
}

func TestOutboxSender_SendsThroughKafka(t *testing.T) {
	db, mock := newMockDB(t)

	kafka := mocks.NewSyncProducer(t, nil)
	kafka.ExpectSendMessageAndSucceed()
	kafka.ExpectSendMessageAndSucceed()
	producer := mq.NewProducer(kafka)
	defer producer.Close()

	sender := NewOutboxSender(db, producer, 5)

	mock.ExpectQuery("SELECT \\* FROM `outbox_message` WHERE status = \\?").WillReturnRows(outboxRows())
	mock.ExpectExec("UPDATE `outbox_message` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `outbox_message` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.Equal(t, 2, sender.processPendingMessages(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxSender_RecordsFailures(t *testing.T) {
	db, mock := newMockDB(t)

	kafka := mocks.NewSyncProducer(t, nil)
	kafka.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	kafka.ExpectSendMessageAndSucceed()
	producer := mq.NewProducer(kafka)
	defer producer.Close()

	sender := NewOutboxSender(db, producer, 5)

	mock.ExpectQuery("SELECT \\* FROM `outbox_message`").WillReturnRows(outboxRows())
	mock.ExpectExec("UPDATE `outbox_message` SET `retry_count`=retry_count \\+ 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `outbox_message` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.Equal(t, 1, sender.processPendingMessages(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingPublisher struct{}

func (failingPublisher) SendMessage(string, string, string) error {
	return errors.New("broker down")
}

func TestOutboxSender_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	sender := NewOutboxSender(db, failingPublisher{}, 5)

	mock.ExpectQuery("SELECT \\* FROM `outbox_message`").WillReturnError(errors.New("gone away"))
	assert.Equal(t, 0, sender.processPendingMessages(context.Background()))
}

func TestRatingReconcile_RefreshesRatedItems(t *testing.T) {
	db, mock := newMockDB(t)

	store := memory.New()
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 3, SellerID: 9})
	store.AddItem(ledger.Item{Kind: ledger.KindCourse, ID: 4, SellerID: 9})
	l := ledger.New(store, func() string { return "TXN" })

	for _, r := range []ledger.Rating{
		{Kind: ledger.KindCourse, ItemID: 3, UserID: 1, Value: 3},
		{Kind: ledger.KindCourse, ItemID: 3, UserID: 2, Value: 4},
		{Kind: ledger.KindCourse, ItemID: 4, UserID: 1, Value: 5},
	} {
		r := r
		_, err := l.Rate(context.Background(), &r)
		require.NoError(t, err)
	}

	job := NewRatingReconcileJob(db, l, 0)
	job.batchSize = 1

	mock.ExpectQuery("SELECT DISTINCT `item_id` FROM `rating`").
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(3))
	mock.ExpectQuery("SELECT DISTINCT `item_id` FROM `rating`").
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(4))
	mock.ExpectQuery("SELECT DISTINCT `item_id` FROM `rating`").
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))

	assert.Equal(t, 2, job.reconcile(context.Background(), ledger.KindCourse))
	assert.NoError(t, mock.ExpectationsWereMet())

	stats := store.ItemRating(ledger.KindCourse, 3)
	assert.True(t, decimal.RequireFromString("3.5").Equal(stats.Average))
	assert.Equal(t, int64(2), stats.Count)
}
