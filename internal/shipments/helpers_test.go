package shipments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/pkg/db"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

type fixture struct {
	db     *gorm.DB
	repo   Repository
	outbox *outbox.Repository
	svc    Service
	actor  outbox.ActorRef
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.ShipmentRow{}, &models.RowNote{}, &models.OutboxEvent{}, &models.OutboxDLQ{}))

	repo := NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	svc, err := NewService(repo, db.NewFromGorm(conn), outbox.NewService(outboxRepo, nil))
	require.NoError(t, err)

	return fixture{
		db:     conn,
		repo:   repo,
		outbox: outboxRepo,
		svc:    svc,
		actor:  outbox.ActorRef{EditorID: uuid.New(), Role: string(enums.EditorRolePlanner)},
	}
}

func storedRow(id string, position, qty int, shipment string) models.ShipmentRow {
	return models.ShipmentRow{
		ID:             id,
		Position:       position,
		Status:         enums.RowStatusNotStarted,
		ShipmentNumber: shipment,
		Type:           "bottle",
		Formula:        "fx-" + id,
		Size:           "500ml",
		Quantity:       qty,
		Tote:           "T" + id,
		Volume:         decimal.NewFromInt(int64(qty)),
		Measure:        "L",
	}
}

func (f fixture) seed(t *testing.T, rows ...models.ShipmentRow) {
	t.Helper()
	require.NoError(t, f.repo.CreateRows(context.Background(), rows))
}

func (f fixture) storedIDs(t *testing.T) []string {
	t.Helper()
	rows, err := f.repo.ListRows(context.Background())
	require.NoError(t, err)
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.ID
	}
	return out
}

func (f fixture) events(t *testing.T) []models.OutboxEvent {
	t.Helper()
	events, err := f.outbox.FetchUnpublished(100)
	require.NoError(t, err)
	return events
}

func decodeEventData(t *testing.T, event models.OutboxEvent, out any) {
	t.Helper()
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(event.Payload, &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
