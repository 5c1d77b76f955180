package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	"github.com/tindago/tindago-backend/pkg/logger"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(
    hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' ||
    substr(hex(randomblob(2)),2) || '-' ||
    substr('89ab', abs(random()) % 4 + 1, 1) ||
    substr(hex(randomblob(2)),2) || '-' || hex(randomblob(6))
  )),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func outboxTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
}

func seedUnpublished(t *testing.T, db *gorm.DB) models.OutboxEvent {
	t.Helper()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventInvoiceGenerated,
		AggregateType: enums.AggregatePayoutInvoice,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"net_cents":12345}`),
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func TestEmitStoresEnvelopeInsideTx(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, outboxTestLogger())

	orgID := uuid.New()
	aggregateID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{UserID: uuid.New(), OrgID: &orgID, Role: "seller"},
			Data:          map[string]any{"reason": "customer request"},
			Version:       1,
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, enums.EventOrderCancelled, row.EventType)
	assert.Equal(t, enums.AggregateOrder, row.AggregateType)
	assert.Equal(t, aggregateID, row.AggregateID)
	assert.Zero(t, row.AttemptCount)
	assert.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "seller", envelope.Actor.Role)
	assert.JSONEq(t, `{"reason":"customer request"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), outboxTestLogger())

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventPaymentVerified,
		AggregateType: enums.AggregatePayment,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
}

func TestMarkFailedIncrementsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedUnpublished(t, db)

	require.NoError(t, repo.MarkFailed(context.Background(), event.ID, errors.New("topic unavailable")))
	require.NoError(t, repo.MarkFailed(context.Background(), event.ID, errors.New("still down")))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, 2, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "still down", *row.LastError)
	assert.Nil(t, row.PublishedAt)
}

func TestMarkPublishedHidesFromFetch(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	published := seedUnpublished(t, db)
	pending := seedUnpublished(t, db)

	require.NoError(t, repo.MarkPublished(context.Background(), published.ID))

	rows, err := repo.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)
}

func TestDeletePublishedBeforePrunesOnlyOldDrainedRows(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	old := seedUnpublished(t, db)
	recent := seedUnpublished(t, db)
	pending := seedUnpublished(t, db)

	longAgo := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", old.ID).Update("published_at", longAgo).Error)
	require.NoError(t, repo.MarkPublished(context.Background(), recent.ID))

	deleted, err := repo.DeletePublishedBefore(context.Background(), time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)

	var stillPending models.OutboxEvent
	require.NoError(t, db.First(&stillPending, "id = ?", pending.ID).Error)
}
