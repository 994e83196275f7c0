// Package memengine implements the event store in process memory.
//
// It has the same Query/Append contract as the PostgreSQL engine: sequence numbers start at 1,
// Query returns the max sequence number of the matching events, and Append is all-or-nothing
// and fails with eventstore.ErrConcurrencyConflict when a matching event was appended after the
// expected sequence number. A single mutex serialises appends, which makes it suitable for tests,
// local development and single-instance deployments.
package memengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/internal/observe"
)

const (
	engineName                = "memory"
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
)

type storedEvent struct {
	sequenceNumber eventstore.MaxSequenceNumberUint
	event          eventstore.StorableEvent
	payload        map[string]string
}

// EventStore keeps all events in a slice ordered by sequence number.
type EventStore struct {
	mu     sync.RWMutex
	events []storedEvent
	obs    observe.Instrumentation
}

// Option configures an EventStore.
type Option func(*EventStore)

// WithLogger sets the logger.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.obs.Logger = logger
	}
}

// WithContextualLogger sets a context-aware logger that takes precedence over WithLogger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) {
		es.obs.ContextualLogger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) {
		es.obs.Metrics = collector
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) {
		es.obs.Tracing = collector
	}
}

// NewEventStore creates an empty EventStore.
func NewEventStore(options ...Option) *EventStore {
	es := &EventStore{obs: observe.Instrumentation{Engine: engineName}}

	for _, option := range options {
		option(es)
	}

	return es
}

// Ping always succeeds.
func (es *EventStore) Ping(_ context.Context) error {
	return nil
}

// Query returns the events matching filter in sequence order and their max sequence number.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	ctx, span := es.obs.StartSpan(ctx, observe.SpanNameQuery, map[string]string{observe.AttrFilter: filter.String()})
	start := time.Now()

	es.mu.RLock()
	events := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if filter.Matches(stored.event.EventType, lookupIn(stored.payload)) {
			events = append(events, stored.event)
			maxSequenceNumber = stored.sequenceNumber
		}
	}
	es.mu.RUnlock()

	duration := time.Since(start)
	es.obs.RecordDuration(ctx, observe.MetricQueryDuration, duration, observe.OperationQuery, observe.StatusSuccess)
	es.obs.RecordValue(ctx, observe.MetricEventsQueried, float64(len(events)), observe.OperationQuery)
	es.obs.FinishSpan(span, observe.StatusSuccess, map[string]string{observe.AttrEventCount: fmt.Sprint(len(events))})
	es.obs.Debug(ctx, logMsgQueryCompleted,
		observe.AttrEventCount, len(events),
		observe.AttrDurationMS, observe.Milliseconds(duration))

	return events, maxSequenceNumber, nil
}

// Append appends events if no event matching filter has a sequence number above expectedMaxSequenceNumber.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	events ...eventstore.StorableEvent,
) error {

	if len(events) == 0 {
		return eventstore.ErrNoEventsToAppend
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := es.obs.StartSpan(ctx, observe.SpanNameAppend, map[string]string{
		observe.AttrFilter:     filter.String(),
		observe.AttrEventCount: fmt.Sprint(len(events)),
	})
	start := time.Now()

	toStore := make([]storedEvent, 0, len(events))

	for _, event := range events {
		payload, err := flatPayload(event.PayloadJSON)
		if err != nil {
			es.obs.FinishSpan(span, observe.StatusError, map[string]string{observe.AttrError: err.Error()})
			es.obs.Error(ctx, "decoding payload failed", err)

			return fmt.Errorf("%w: %w", eventstore.ErrAppendingEventFailed, err)
		}

		toStore = append(toStore, storedEvent{event: event, payload: payload})
	}

	es.mu.Lock()
	actual := es.maxSequenceNumberLocked(filter)

	if actual != expectedMaxSequenceNumber {
		es.mu.Unlock()

		es.obs.RecordDuration(ctx, observe.MetricAppendDuration, time.Since(start), observe.OperationAppend, observe.StatusConflict)
		es.obs.IncrementCounter(ctx, observe.MetricConcurrencyConflict, observe.OperationAppend, nil)
		es.obs.FinishSpan(span, observe.StatusConflict, nil)
		es.obs.Info(ctx, logMsgConcurrencyConflict,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
			logAttrActualSequence, actual)

		return eventstore.ErrConcurrencyConflict
	}

	next := eventstore.MaxSequenceNumberUint(len(es.events))
	for i := range toStore {
		next++
		toStore[i].sequenceNumber = next
	}

	es.events = append(es.events, toStore...)
	es.mu.Unlock()

	duration := time.Since(start)
	es.obs.RecordDuration(ctx, observe.MetricAppendDuration, duration, observe.OperationAppend, observe.StatusSuccess)
	es.obs.IncrementCounter(ctx, observe.MetricEventsAppended, observe.OperationAppend, nil)
	es.obs.FinishSpan(span, observe.StatusSuccess, nil)
	es.obs.Debug(ctx, logMsgEventsAppended,
		observe.AttrEventCount, len(events),
		observe.AttrDurationMS, observe.Milliseconds(duration))

	return nil
}

// Len returns the number of stored events.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func (es *EventStore) maxSequenceNumberLocked(filter eventstore.Filter) eventstore.MaxSequenceNumberUint {
	for i := len(es.events) - 1; i >= 0; i-- {
		stored := es.events[i]
		if filter.Matches(stored.event.EventType, lookupIn(stored.payload)) {
			return stored.sequenceNumber
		}
	}

	return 0
}

// flatPayload extracts the top level string values of a JSON object, which is all predicates can address.
func flatPayload(payloadJSON []byte) (map[string]string, error) {
	iter := jsoniter.ConfigFastest.BorrowIterator(payloadJSON)
	defer jsoniter.ConfigFastest.ReturnIterator(iter)

	payload := make(map[string]string)

	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		if it.WhatIsNext() == jsoniter.StringValue {
			payload[key] = it.ReadString()
		} else {
			it.Skip()
		}

		return true
	})

	if iter.Error != nil {
		return nil, iter.Error
	}

	return payload, nil
}

func lookupIn(payload map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		val, ok := payload[key]
		return val, ok
	}
}
