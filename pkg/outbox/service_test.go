package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	editorID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventRowStatusChanged,
			AggregateType: enums.AggregateShipmentRow,
			AggregateID:   "r1",
			Actor:         &ActorRef{EditorID: editorID, Role: "planner"},
			Data:          map[string]string{"status": "completed"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0].AggregateID)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, editorID, envelope.Actor.EditorID)
	assert.JSONEq(t, `{"status":"completed"}`, string(envelope.Data))
}

func TestEmitRequiresTransactionAndAggregate(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{AggregateID: "r1"})
	require.ErrorIs(t, err, ErrTxRequired)

	db := newTestDB(t)
	err = svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventRowNoteAdded})
	require.ErrorIs(t, err, ErrAggregateRequired)

	err = svc.Emit(context.Background(), db, DomainEvent{
		EventType:     "row_teleported",
		AggregateType: enums.AggregateShipmentRow,
		AggregateID:   "r1",
	})
	require.ErrorContains(t, err, "unknown event type")

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMarkPublishedAndFailed(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	first := models.OutboxEvent{
		EventType:     enums.EventRowNoteAdded,
		AggregateType: enums.AggregateShipmentRow,
		AggregateID:   "r1",
		Payload:       json.RawMessage(`{}`),
	}
	second := first
	second.AggregateID = "r2"
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublished(rows[0].ID))
	require.NoError(t, repo.MarkFailed(rows[1].ID, errors.New("pubsub unavailable")))

	remaining, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 1, remaining[0].AttemptCount)
	require.NotNil(t, remaining[0].LastError)
	assert.Equal(t, "pubsub unavailable", *remaining[0].LastError)
}

func TestDLQRepositoryTruncatesMessage(t *testing.T) {
	db := newTestDB(t)
	repo := NewDLQRepository(db)
	eventID := uuid.New()
	long := make([]byte, maxDLQErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, repo.InsertTx(db, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventRowOrderCommitted,
		AggregateType: enums.AggregateShipmentList,
		AggregateID:   "manufacturing",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}))

	found, err := repo.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.ErrorMessage)
	assert.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	missing, err := repo.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.List(context.Background(), DLQFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDLQRepositoryListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewDLQRepository(db)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, entry := range []models.OutboxDLQ{
		{EventType: enums.EventRowStatusChanged, AggregateType: enums.AggregateShipmentRow, ErrorReason: enums.OutboxDLQReasonMaxAttempts},
		{EventType: enums.EventRowNoteAdded, AggregateType: enums.AggregateShipmentRow, ErrorReason: enums.OutboxDLQReasonNonRetryable},
		{EventType: enums.EventRowStatusChanged, AggregateType: enums.AggregateShipmentRow, ErrorReason: enums.OutboxDLQReasonNonRetryable},
	} {
		entry.EventID = uuid.New()
		entry.AggregateID = "SH-1-A"
		entry.Payload = json.RawMessage(`{}`)
		entry.FailedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.InsertTx(db, entry))
	}
	ctx := context.Background()

	byReason, err := repo.List(ctx, DLQFilter{Reason: enums.OutboxDLQReasonNonRetryable})
	require.NoError(t, err)
	require.Len(t, byReason, 2)
	assert.Equal(t, enums.EventRowStatusChanged, byReason[0].EventType, "newest first")

	byType, err := repo.List(ctx, DLQFilter{EventType: enums.EventRowStatusChanged, Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, byType, 1)

	limited, err := repo.List(ctx, DLQFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDLQRepositoryDeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	repo := NewDLQRepository(db)
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, failedAt := range []time.Time{cutoff.Add(-48 * time.Hour), cutoff.Add(-time.Minute), cutoff.Add(time.Hour)} {
		require.NoError(t, repo.InsertTx(db, models.OutboxDLQ{
			EventID:       uuid.New(),
			EventType:     enums.EventRowStatusChanged,
			AggregateType: enums.AggregateShipmentRow,
			AggregateID:   "SH-9",
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			FailedAt:      failedAt,
		}))
	}

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	remaining, err := repo.List(context.Background(), DLQFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].FailedAt.After(cutoff))
}

func TestDLQRepositoryReplay(t *testing.T) {
	db := newTestDB(t)
	repo := NewDLQRepository(db)
	ctx := context.Background()

	parked := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventRowNoteAdded,
		AggregateType: enums.AggregateShipmentRow,
		AggregateID:   "SH-2-B",
		Payload:       json.RawMessage(`{"version":1}`),
		AttemptCount:  10,
	}
	require.NoError(t, db.Create(&parked).Error)
	pruned := uuid.New()
	for _, id := range []uuid.UUID{parked.ID, pruned} {
		require.NoError(t, repo.InsertTx(db, models.OutboxDLQ{
			EventID:       id,
			EventType:     enums.EventRowNoteAdded,
			AggregateType: enums.AggregateShipmentRow,
			AggregateID:   "SH-2-B",
			Payload:       json.RawMessage(`{"version":1}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		}))
	}

	require.NoError(t, repo.Replay(ctx, parked.ID))
	require.NoError(t, repo.Replay(ctx, pruned))
	assert.ErrorIs(t, repo.Replay(ctx, uuid.New()), ErrDLQEntryNotFound)

	var events []models.OutboxEvent
	require.NoError(t, db.Order("aggregate_id").Find(&events).Error)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Zero(t, e.AttemptCount)
		assert.Nil(t, e.PublishedAt)
	}

	remaining, err := repo.List(ctx, DLQFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestFetchForPublishSkipsTerminalEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.Insert(db, models.OutboxEvent{
			EventType:     enums.EventRowStatusChanged,
			AggregateType: enums.AggregateShipmentRow,
			AggregateID:   id,
			Payload:       json.RawMessage(`{}`),
		}))
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		require.NoError(t, repo.MarkPublishedTx(tx, rows[0].ID))
		require.NoError(t, repo.MarkFailedTx(tx, rows[1].ID, errors.New("timeout")))
		return repo.MarkTerminalTx(tx, rows[2].ID, errors.New("bad payload"), 3)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "r2", rows[0].AggregateID)
		assert.Equal(t, 1, rows[0].AttemptCount)
		return nil
	})
	require.NoError(t, err)
}

func TestDeletePublishedBeforeKeepsPendingEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	seed := []models.OutboxEvent{
		{AggregateID: "published-old", CreatedAt: old, PublishedAt: &old},
		{AggregateID: "published-recent", CreatedAt: recent, PublishedAt: &recent},
		{AggregateID: "parked-old", CreatedAt: old, AttemptCount: 10},
		{AggregateID: "retrying-old", CreatedAt: old, AttemptCount: 2},
	}
	for _, event := range seed {
		event.EventType = enums.EventRowStatusChanged
		event.AggregateType = enums.AggregateShipmentRow
		event.Payload = json.RawMessage(`{}`)
		require.NoError(t, repo.Insert(db, event))
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	deleted, err := repo.DeletePublishedBefore(context.Background(), db, cutoff, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	var remaining []string
	require.NoError(t, db.Model(&models.OutboxEvent{}).Order("aggregate_id").Pluck("aggregate_id", &remaining).Error)
	assert.Equal(t, []string{"published-recent", "retrying-old"}, remaining)
}
