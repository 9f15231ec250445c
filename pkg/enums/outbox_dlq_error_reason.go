package enums

import "slices"

// OutboxDLQErrorReason records why an outbox event was parked instead of retried.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts      OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable     OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonUnsupportedEvent OutboxDLQErrorReason = "unsupported_event"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonUnsupportedEvent,
}

func (r OutboxDLQErrorReason) String() string { return string(r) }

func (r OutboxDLQErrorReason) IsValid() bool {
	return slices.Contains(validOutboxDLQErrorReasons, r)
}

// ParseOutboxDLQErrorReason accepts the stored lower snake case form.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return parseEnum("dlq error reason", value, validOutboxDLQErrorReasons)
}
