package eventstore

import (
	"errors"
)

var (
	// ErrEmptyEventsTableName is returned when an empty table name is supplied to an engine.
	ErrEmptyEventsTableName = errors.New("events table name must not be empty")

	// ErrNilDatabaseConnection is returned when an engine is constructed without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrNoEventsToAppend is returned when Append is called without events.
	ErrNoEventsToAppend = errors.New("no events to append")

	// ErrConcurrencyConflict is returned when an event matching the append filter was written after the expected
	// max sequence number. Callers should query again and repeat their decision.
	ErrConcurrencyConflict = errors.New("concurrency conflict: the event stream was modified concurrently")

	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrScanningDBRowFailed         = errors.New("scanning db row failed")
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")
	ErrBuildingQueryFailed         = errors.New("building query failed")
	ErrAppendingEventFailed        = errors.New("appending the event failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting rows affected failed")
)

// MaxSequenceNumberUint is the highest sequence number of a "dynamic event stream" at the time it was queried.
type MaxSequenceNumberUint = uint
