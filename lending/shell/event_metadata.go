package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

// ErrMappingToEventMetadataFailed is returned when metadata conversion fails.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// MessageID represents a unique message identifier.
type MessageID = string

// CausationID represents the ID of the message that caused this event.
type CausationID = string

// CorrelationID represents the ID correlating related events, e.g. the HTTP request id.
type CorrelationID = string

// EventMetadata contains event tracking information.
type EventMetadata struct {
	MessageID     MessageID
	CausationID   CausationID
	CorrelationID CorrelationID
}

type correlationIDKey struct{}

// WithCorrelationID returns a context carrying correlationID for the events appended while handling it.
func WithCorrelationID(ctx context.Context, correlationID CorrelationID) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFrom returns the correlation id of ctx, if any.
func CorrelationIDFrom(ctx context.Context) (CorrelationID, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(CorrelationID)
	return id, ok && id != ""
}

// BuildEventMetadata creates metadata for one event. Without a correlation id in ctx the
// causation id is used, so that all events of one command share a correlation id.
func BuildEventMetadata(ctx context.Context, causationID CausationID) EventMetadata {
	correlationID, ok := CorrelationIDFrom(ctx)
	if !ok {
		correlationID = causationID
	}

	return EventMetadata{
		MessageID:     newMessageID(),
		CausationID:   causationID,
		CorrelationID: correlationID,
	}
}

// EventMetadataFrom extracts EventMetadata from a StorableEvent.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	metadata := new(EventMetadata)
	err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, metadata)
	if err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return *metadata, nil
}

func newMessageID() MessageID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
