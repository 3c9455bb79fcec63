package enums

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProduct OutboxAggregateType = "product"
)

func (a OutboxAggregateType) IsValid() bool {
	return member(a, []OutboxAggregateType{AggregateOrder, AggregateProduct})
}

// OutboxEventType is the event_type column of outbox_events and the routing
// key handed to the registry.
type OutboxEventType string

const (
	EventOrderCreated   OutboxEventType = "order_created"
	EventProductChanged OutboxEventType = "product_changed"
	EventProductDeleted OutboxEventType = "product_deleted"
)

var outboxEventTypes = []OutboxEventType{EventOrderCreated, EventProductChanged, EventProductDeleted}

func (e OutboxEventType) IsValid() bool { return member(e, outboxEventTypes) }

// OutboxDLQErrorReason records why the publisher gave up on an event.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
