package manufacturing

import "github.com/angelmondragon/shiplist-backend/pkg/enums"

// Listener receives the outbound notifications of a Table. Calls happen
// synchronously inside the transition that caused them.
type Listener interface {
	SortExited()
	OrderCommitted(rows []Row)
	NoteAdded(rowID RowID, text string)
	StatusChanged(rowID RowID, status enums.RowStatus)
}

// NopListener ignores every notification.
type NopListener struct{}

func (NopListener) SortExited()                          {}
func (NopListener) OrderCommitted([]Row)                 {}
func (NopListener) NoteAdded(RowID, string)              {}
func (NopListener) StatusChanged(RowID, enums.RowStatus) {}
