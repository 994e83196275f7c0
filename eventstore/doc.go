// Package eventstore provides the storage abstractions of the lending service:
// an append-only log of events that is read and guarded through dynamic event streams.
//
// A Filter selects events by event type and JSON payload predicates. Query returns all
// matching events together with the highest sequence number among them. Append writes one or
// more events atomically, but only if no event matching the same Filter was written after
// that sequence number. Command handlers therefore get per-item optimistic concurrency
// without declaring fixed streams up front.
//
// Typical usage:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.ItemListedEventType, core.ItemStatusChangedEventType).
//		AndAnyPredicateOf(P("ItemID", itemID)).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	err = store.Append(ctx, filter, maxSeq, newEvents...)
//	if errors.Is(err, ErrConcurrencyConflict) {
//		// somebody else touched the same items, query again and re-decide
//	}
//
// Engines live in sub packages: postgresengine for PostgreSQL and memengine for an
// in-process store with the same semantics.
package eventstore
