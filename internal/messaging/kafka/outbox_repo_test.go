package kafka_test

import (
	"context"
	"testing"

	"go-plantation/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newOutboxTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

// A failed publication must come back around: the drain query selects failed
// rows alongside pending ones once their retry window has elapsed.
func TestOutboxRepository_ListPendingIncludesRetryableFailures(t *testing.T) {
	db, mock := newOutboxTestDB(t)
	repo := kafka.NewOutboxRepository(db)

	rows := sqlmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_type", "topic", "payload", "status", "retry_count"}).
		AddRow(uuid.New(), "pay_calculation", "2025-03", "pay_calculation.accumulated", "plantation.paycalc.updated.v1", []byte(`{}`), kafka.OutboxStatusPending, 0).
		AddRow(uuid.New(), "pay_calculation", "2025-02", "pay_calculation.reversed", "plantation.paycalc.updated.v1", []byte(`{}`), kafka.OutboxStatusFailed, 2)

	mock.ExpectQuery(`SELECT \* FROM "outbox_events" WHERE status IN .+ AND \(next_retry_at IS NULL OR next_retry_at <= .+\)`).
		WillReturnRows(rows)

	events, err := repo.ListPending(context.Background(), 50)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, kafka.OutboxStatusPending, events[0].Status)
	assert.Equal(t, kafka.OutboxStatusFailed, events[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkFailedSchedulesRetry(t *testing.T) {
	db, mock := newOutboxTestDB(t)
	repo := kafka.NewOutboxRepository(db)

	mock.ExpectExec(`UPDATE "outbox_events" SET .*"retry_count"=retry_count \+ 1.* WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), uuid.New(), "broker unreachable")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	db, mock := newOutboxTestDB(t)
	repo := kafka.NewOutboxRepository(db)

	mock.ExpectExec(`UPDATE "outbox_events" SET "status"=.+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkSent(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
