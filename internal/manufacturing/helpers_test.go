package manufacturing

import (
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func line(id string, qty int, shipment string) Row {
	return Row{Line: Line{
		ID:             RowID(id),
		Status:         enums.RowStatusNotStarted,
		ShipmentNumber: shipment,
		Type:           "bottle",
		Formula:        "fx-" + id,
		Size:           "500ml",
		Quantity:       qty,
		Tote:           "T" + id,
		Volume:         decimal.NewFromFloat(0.5).Mul(decimal.NewFromInt(int64(qty))),
		Measure:        "L",
	}}
}

func ids(rows []Row) []RowID {
	out := make([]RowID, len(rows))
	for i, row := range rows {
		out[i] = row.ID
	}
	return out
}

func statusOf(rows []Row, id RowID) enums.RowStatus {
	for _, row := range rows {
		if row.ID == id {
			return row.Status
		}
	}
	return ""
}

type recordingListener struct {
	events    []string
	committed [][]Row
	notes     map[RowID][]string
	statuses  map[RowID]enums.RowStatus
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		notes:    map[RowID][]string{},
		statuses: map[RowID]enums.RowStatus{},
	}
}

func (l *recordingListener) SortExited() {
	l.events = append(l.events, "sort_exited")
}

func (l *recordingListener) OrderCommitted(rows []Row) {
	l.events = append(l.events, "order_committed")
	l.committed = append(l.committed, rows)
}

func (l *recordingListener) NoteAdded(rowID RowID, text string) {
	l.events = append(l.events, "note_added")
	l.notes[rowID] = append(l.notes[rowID], text)
}

func (l *recordingListener) StatusChanged(rowID RowID, status enums.RowStatus) {
	l.events = append(l.events, "status_changed")
	l.statuses[rowID] = status
}
