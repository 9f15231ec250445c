package enums

import "slices"

// RowStatus tracks production progress of a shipment line item.
type RowStatus string

const (
	RowStatusNotStarted RowStatus = "not_started"
	RowStatusInProgress RowStatus = "in_progress"
	RowStatusCompleted  RowStatus = "completed"
	RowStatusOnHold     RowStatus = "on_hold"
)

var validRowStatuses = []RowStatus{
	RowStatusNotStarted,
	RowStatusInProgress,
	RowStatusCompleted,
	RowStatusOnHold,
}

// String implements fmt.Stringer.
func (s RowStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RowStatus.
func (s RowStatus) IsValid() bool {
	return slices.Contains(validRowStatuses, s)
}

// ParseRowStatus converts raw input into a RowStatus.
func ParseRowStatus(value string) (RowStatus, error) {
	return parseEnum("row status", value, validRowStatuses)
}

// RowStatuses returns every status in display order.
func RowStatuses() []RowStatus {
	return slices.Clone(validRowStatuses)
}
