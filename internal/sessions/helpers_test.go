package sessions

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

type statusCall struct {
	rowID  string
	status enums.RowStatus
}

type noteCall struct {
	rowID string
	body  string
}

type stubShipments struct {
	rows      []manufacturing.Row
	commits   [][]manufacturing.Row
	statuses  []statusCall
	notes     []noteCall
	actors    []outbox.ActorRef
	commitErr error
}

func (s *stubShipments) ListRows(context.Context) ([]manufacturing.Row, error) {
	out := make([]manufacturing.Row, len(s.rows))
	for i, row := range s.rows {
		out[i] = row.Clone()
	}
	return out, nil
}

func (s *stubShipments) CommitOrder(_ context.Context, actor outbox.ActorRef, rows []manufacturing.Row) (*shipments.CommitResult, error) {
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	s.actors = append(s.actors, actor)
	s.commits = append(s.commits, rows)
	return &shipments.CommitResult{Rows: len(rows)}, nil
}

func (s *stubShipments) UpdateStatus(_ context.Context, actor outbox.ActorRef, rowID string, status enums.RowStatus) (*shipments.StatusResult, error) {
	s.actors = append(s.actors, actor)
	s.statuses = append(s.statuses, statusCall{rowID: rowID, status: status})
	return &shipments.StatusResult{RowID: rowID, Status: status}, nil
}

func (s *stubShipments) AddNote(_ context.Context, actor outbox.ActorRef, rowID, body string) (*shipments.NoteDTO, error) {
	s.actors = append(s.actors, actor)
	s.notes = append(s.notes, noteCall{rowID: rowID, body: body})
	return &shipments.NoteDTO{ID: uuid.New(), RowID: rowID, Body: body}, nil
}

func sourceRow(id string, qty int, shipment string) manufacturing.Row {
	return manufacturing.Row{Line: manufacturing.Line{
		ID:             manufacturing.RowID(id),
		Status:         enums.RowStatusNotStarted,
		ShipmentNumber: shipment,
		Type:           "bottle",
		Formula:        "fx-" + id,
		Size:           "500ml",
		Quantity:       qty,
		Volume:         decimal.NewFromInt(int64(qty)),
	}}
}

type harness struct {
	svc       Service
	store     *MemoryStore
	shipments *stubShipments
	logs      *bytes.Buffer
	editor    Editor
}

func newHarness(t *testing.T, m *metrics.SessionMetrics, rows ...manufacturing.Row) harness {
	t.Helper()
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: logs})
	store := NewMemoryStore()
	stub := &stubShipments{rows: rows}
	svc, err := NewService(store, stub, logg, m, Options{})
	require.NoError(t, err)
	return harness{
		svc:       svc,
		store:     store,
		shipments: stub,
		logs:      logs,
		editor:    Editor{ID: uuid.New(), Role: enums.EditorRolePlanner},
	}
}

func viewIDs(v *manufacturing.View) []manufacturing.RowID {
	out := make([]manufacturing.RowID, len(v.Rows))
	for i, row := range v.Rows {
		out[i] = row.ID
	}
	return out
}

type fakeSessionClient struct {
	values  map[string]string
	ttls    map[string]time.Duration
	touched []string
}

func newFakeSessionClient() *fakeSessionClient {
	return &fakeSessionClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSessionClient) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeSessionClient) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSessionClient) Touch(_ context.Context, key string, ttl time.Duration) error {
	f.touched = append(f.touched, key)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSessionClient) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeSessionClient) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeSessionClient) TableSessionKey(editorID string) string {
	return "sl:session:table:" + editorID
}

func (f *fakeSessionClient) TableLockKey(editorID string) string {
	return "sl:session:lock:" + editorID
}
