package enums

import "slices"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateShipmentRow  OutboxAggregateType = "shipment_row"
	AggregateShipmentList OutboxAggregateType = "shipment_list"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateShipmentRow,
	AggregateShipmentList,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseEnum("aggregate type", value, validAggregateTypes)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventRowOrderCommitted OutboxEventType = "row_order_committed"
	EventRowStatusChanged  OutboxEventType = "row_status_changed"
	EventRowNoteAdded      OutboxEventType = "row_note_added"
	EventRowsImported      OutboxEventType = "rows_imported"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRowOrderCommitted,
	EventRowStatusChanged,
	EventRowNoteAdded,
	EventRowsImported,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseEnum("event type", value, validOutboxEventTypes)
}

// OutboxEventTypes returns every known event type.
func OutboxEventTypes() []OutboxEventType {
	return slices.Clone(validOutboxEventTypes)
}
