package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/internal/observe"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName          = "events"
	engineName                     = "postgres"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgQueryCompleted           = "eventstore operation: query completed"
	logMsgEventsAppended           = "eventstore operation: events appended"
	logMsgConcurrencyConflict      = "eventstore operation: concurrency conflict detected"
	logMsgSQLExecuted              = "executed sql for: "
	logAttrQuery                   = "query"
	logAttrExpectedEvents          = "expected_events"
	logAttrRowsAffected            = "rows_affected"
	logAttrExpectedSequence        = "expected_sequence"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	cteContext                     = "context"
	cteVals                        = "vals"
	dialectPostgres                = "postgres"
	aliasMaxSeq                    = "max_seq"
	castText                       = "?::text"
	castTimestamp                  = "?::timestamp with time zone"
	castJsonb                      = "?::jsonb"
	payloadContains                = colPayload + " @> ?::jsonb"
)

// EventStore is the PostgreSQL engine.
// Appends are conditional inserts executed in a SERIALIZABLE transaction, so two writers
// deciding on overlapping dynamic event streams can never both succeed.
type EventStore struct {
	db             adapters.DBAdapter
	eventTableName string
	obs            observe.Instrumentation
}

type queryResultRow struct {
	eventType         string
	occurredAt        time.Time
	payload           []byte
	metadata          []byte
	maxSequenceNumber eventstore.MaxSequenceNumberUint
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore that serves eventually consistent reads from replica.
func NewEventStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

// NewEventStoreFromSQLXAndReplica creates a new EventStore on sqlx that serves eventually consistent reads from replica.
func NewEventStoreFromSQLXAndReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
		obs:            observe.Instrumentation{Engine: engineName},
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Ping checks that the primary database is reachable.
func (es EventStore) Ping(ctx context.Context) error {
	return es.db.Ping(ctx)
}

// Query retrieves the events matching filter in sequence order,
// together with the MaxSequenceNumberUint of this "dynamic event stream" at the time of the query.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	ctx, span := es.obs.StartSpan(ctx, observe.SpanNameQuery, map[string]string{observe.AttrFilter: filter.String()})
	start := time.Now()

	events, maxSequenceNumber, err := es.query(ctx, filter)
	duration := time.Since(start)

	if err != nil {
		es.obs.RecordDuration(ctx, observe.MetricQueryDuration, duration, observe.OperationQuery, observe.StatusError)
		es.obs.IncrementCounter(ctx, observe.MetricDatabaseErrors, observe.OperationQuery,
			map[string]string{observe.AttrErrorType: observe.ErrorType(err)})
		es.obs.FinishSpan(span, observe.StatusError, map[string]string{observe.AttrError: err.Error()})

		return nil, 0, err
	}

	es.obs.RecordDuration(ctx, observe.MetricQueryDuration, duration, observe.OperationQuery, observe.StatusSuccess)
	es.obs.RecordValue(ctx, observe.MetricEventsQueried, float64(len(events)), observe.OperationQuery)
	es.obs.FinishSpan(span, observe.StatusSuccess, map[string]string{observe.AttrEventCount: fmt.Sprint(len(events))})
	es.obs.Info(ctx, logMsgQueryCompleted,
		observe.AttrEventCount, len(events),
		observe.AttrDurationMS, observe.Milliseconds(duration))

	return events, maxSequenceNumber, nil
}

func (es EventStore) query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	sqlQuery, err := es.buildSelectQuery(filter)
	if err != nil {
		es.obs.Error(ctx, logMsgBuildSelectQueryFailed, err)
		return nil, 0, err
	}

	start := time.Now()
	rows, err := es.db.Query(ctx, sqlQuery)
	es.obs.Debug(ctx, logMsgSQLExecuted+observe.OperationQuery,
		observe.AttrDurationMS, observe.Milliseconds(time.Since(start)),
		logAttrQuery, sqlQuery)

	if err != nil {
		es.obs.Error(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			es.obs.Warn(ctx, logMsgCloseRowsFailed, observe.AttrError, closeErr.Error())
		}
	}()

	return es.processQueryResults(ctx, rows)
}

func (es EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	result := queryResultRow{}
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		if err := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata, &result.maxSequenceNumber); err != nil {
			es.obs.Error(ctx, logMsgScanRowFailed, err)
			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		event, err := eventstore.BuildStorableEvent(result.eventType, result.occurredAt, result.payload, result.metadata)
		if err != nil {
			es.obs.Error(ctx, logMsgBuildStorableEventFailed, err, colEventType, result.eventType)
			return nil, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, err)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = result.maxSequenceNumber
	}

	if err := rows.Err(); err != nil {
		es.obs.Error(ctx, logMsgScanRowFailed, err)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	return eventStream, maxSequenceNumber, nil
}

// Append atomically appends events if no event matching filter was appended after expectedMaxSequenceNumber.
//
// The filter must be the one used for the Query on which the caller based its decision.
// A lost race is reported as eventstore.ErrConcurrencyConflict, whether it is detected by the
// conditional insert or by PostgreSQL's serializable isolation.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	events ...eventstore.StorableEvent,
) error {

	if len(events) == 0 {
		return eventstore.ErrNoEventsToAppend
	}

	ctx, span := es.obs.StartSpan(ctx, observe.SpanNameAppend, map[string]string{
		observe.AttrFilter:     filter.String(),
		observe.AttrEventCount: fmt.Sprint(len(events)),
	})
	start := time.Now()

	err := es.append(ctx, filter, expectedMaxSequenceNumber, events)
	duration := time.Since(start)

	switch {
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		es.obs.RecordDuration(ctx, observe.MetricAppendDuration, duration, observe.OperationAppend, observe.StatusConflict)
		es.obs.IncrementCounter(ctx, observe.MetricConcurrencyConflict, observe.OperationAppend, nil)
		es.obs.FinishSpan(span, observe.StatusConflict, nil)
		es.obs.Info(ctx, logMsgConcurrencyConflict,
			logAttrExpectedEvents, len(events),
			logAttrExpectedSequence, expectedMaxSequenceNumber)

		return err

	case err != nil:
		es.obs.RecordDuration(ctx, observe.MetricAppendDuration, duration, observe.OperationAppend, observe.StatusError)
		es.obs.IncrementCounter(ctx, observe.MetricDatabaseErrors, observe.OperationAppend,
			map[string]string{observe.AttrErrorType: observe.ErrorType(err)})
		es.obs.FinishSpan(span, observe.StatusError, map[string]string{observe.AttrError: err.Error()})

		return err
	}

	es.obs.RecordDuration(ctx, observe.MetricAppendDuration, duration, observe.OperationAppend, observe.StatusSuccess)
	es.obs.IncrementCounter(ctx, observe.MetricEventsAppended, observe.OperationAppend, nil)
	es.obs.FinishSpan(span, observe.StatusSuccess, nil)
	es.obs.Info(ctx, logMsgEventsAppended,
		observe.AttrEventCount, len(events),
		observe.AttrDurationMS, observe.Milliseconds(duration))

	return nil
}

func (es EventStore) append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	events eventstore.StorableEvents,
) error {

	sqlQuery, err := es.buildInsertQuery(events, filter, expectedMaxSequenceNumber)
	if err != nil {
		es.obs.Error(ctx, logMsgBuildInsertQueryFailed, err, observe.AttrEventCount, len(events))
		return err
	}

	start := time.Now()
	result, err := es.db.ExecSerializable(ctx, sqlQuery)
	es.obs.Debug(ctx, logMsgSQLExecuted+observe.OperationAppend,
		observe.AttrDurationMS, observe.Milliseconds(time.Since(start)),
		logAttrQuery, sqlQuery)

	if err != nil {
		if isSerializationConflict(err) {
			return errors.Join(eventstore.ErrConcurrencyConflict, err)
		}

		es.obs.Error(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)

		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		es.obs.Error(ctx, logMsgRowsAffectedFailed, err)
		return errors.Join(eventstore.ErrGettingRowsAffectedFailed, err)
	}

	if rowsAffected < int64(len(events)) {
		es.obs.Debug(ctx, logMsgConcurrencyConflict, logAttrRowsAffected, rowsAffected)
		return eventstore.ErrConcurrencyConflict
	}

	return nil
}

// isSerializationConflict reports whether err is a PostgreSQL error that means "somebody else won the race".
// pgx surfaces *pgconn.PgError, lib/pq surfaces *pq.Error.
func isSerializationConflict(err error) bool {
	var code string

	var pgErr *pgconn.PgError
	var pqErr *pq.Error

	switch {
	case errors.As(err, &pgErr):
		code = pgErr.Code
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	default:
		return false
	}

	switch code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation:
		return true
	default:
		return false
	}
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt, err := es.addWhereClause(filter, selectStmt)
	if err != nil {
		return "", err
	}

	sqlQuery, _, err := selectStmt.ToSQL()
	if err != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// buildInsertQuery builds INSERT ... SELECT ... WHERE COALESCE(max_seq, 0) = expected.
// A single event is inserted from literal values, multiple events from a UNION ALL of typed literals.
func (es EventStore) buildInsertQuery(
	events eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (string, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, err := es.addWhereClause(
		filter,
		builder.From(es.eventTableName).Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq)),
	)
	if err != nil {
		return "", err
	}

	guard := goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber))

	var insertStmt *goqu.InsertDataset

	if len(events) == 1 {
		event := events[0]

		insertStmt = builder.
			Insert(es.eventTableName).
			Cols(colEventType, colOccurredAt, colPayload, colMetadata).
			With(cteContext, cteStmt).
			FromQuery(
				builder.From(cteContext).
					Select(
						goqu.L(castText, event.EventType),
						goqu.L(castTimestamp, event.OccurredAt),
						goqu.L(castJsonb, string(event.PayloadJSON)),
						goqu.L(castJsonb, string(event.MetadataJSON))).
					Where(guard),
			)
	} else {
		valuesStmt := literalRow(builder, events[0])
		for _, event := range events[1:] {
			valuesStmt = valuesStmt.UnionAll(literalRow(builder, event))
		}

		insertStmt = builder.
			Insert(es.eventTableName).
			Cols(colEventType, colOccurredAt, colPayload, colMetadata).
			With(cteContext, cteStmt).
			With(cteVals, valuesStmt).
			FromQuery(
				builder.From(cteContext, cteVals).
					Select(
						cteVals+"."+colEventType,
						cteVals+"."+colOccurredAt,
						cteVals+"."+colPayload,
						cteVals+"."+colMetadata).
					Where(guard),
			)
	}

	sqlQuery, _, err := insertStmt.ToSQL()
	if err != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

func literalRow(builder goqu.DialectWrapper, event eventstore.StorableEvent) *goqu.SelectDataset {
	return builder.Select(
		goqu.L(castText, event.EventType).As(colEventType),
		goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
		goqu.L(castJsonb, string(event.PayloadJSON)).As(colPayload),
		goqu.L(castJsonb, string(event.MetadataJSON)).As(colMetadata),
	)
}

// addWhereClause ORs the filter items; each item is (eventType OR ...) AND (predicates combined by AND or OR).
// Predicates become JSONB containment checks, so a GIN index on payload serves them.
func (es EventStore) addWhereClause(filter eventstore.Filter, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	itemsExpressions := make([]goqu.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		itemExpressions := make([]goqu.Expression, 0, 2)

		if len(item.EventTypes()) > 0 {
			itemExpressions = append(itemExpressions, goqu.C(colEventType).In(item.EventTypes()))
		}

		predicateExpressions := make([]goqu.Expression, 0, len(item.Predicates()))

		for _, predicate := range item.Predicates() {
			containment, err := jsoniter.ConfigFastest.MarshalToString(map[string]string{predicate.Key(): predicate.Val()})
			if err != nil {
				return nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
			}

			predicateExpressions = append(predicateExpressions, goqu.L(payloadContains, containment))
		}

		if len(predicateExpressions) > 0 {
			var predicates exp.ExpressionList

			if item.AllPredicatesMustMatch() {
				predicates = goqu.And(predicateExpressions...)
			} else {
				predicates = goqu.Or(predicateExpressions...)
			}

			itemExpressions = append(itemExpressions, predicates)
		}

		itemsExpressions = append(itemsExpressions, goqu.And(itemExpressions...))
	}

	if len(itemsExpressions) == 0 {
		return selectStmt, nil
	}

	return selectStmt.Where(goqu.Or(itemsExpressions...)), nil
}
