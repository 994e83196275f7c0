package shell

import (
	"context"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

// QueriesEvents is the read side of the event store used by query handlers.
type QueriesEvents interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
}

// EventStore is what command handlers need: query a dynamic event stream and append to it conditionally.
type EventStore interface {
	QueriesEvents
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		events ...eventstore.StorableEvent,
	) error
}

// Command is implemented by all commands. CommandType labels logs, metrics and spans.
type Command interface {
	CommandType() string
}

// Query is implemented by all queries. QueryType labels logs, metrics and spans.
type Query interface {
	QueryType() string
}
