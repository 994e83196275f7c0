package postgresengine

import (
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

func Test_buildSelectQuery_TranslatesFilter(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: "events"}
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("ItemListed", "ItemStatusChanged").
		AndAnyPredicateOf(eventstore.P("ItemID", "a"), eventstore.P("ItemID", "b")).
		OrMatching().
		AnyEventTypeOf("LendingRequested").
		AndAllPredicatesOf(eventstore.P("OwnerID", "o"), eventstore.P("RequestedItemID", "a")).
		Finalize()

	// act
	sqlQuery, err := es.buildSelectQuery(filter)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "events"`)
	assert.Contains(t, sqlQuery, `"event_type" IN ('ItemListed', 'ItemStatusChanged')`)
	assert.Contains(t, sqlQuery, `payload @> '{"ItemID":"a"}'::jsonb`)
	assert.Contains(t, sqlQuery, `payload @> '{"ItemID":"b"}'::jsonb`)
	assert.Contains(t, sqlQuery, `payload @> '{"RequestedItemID":"a"}'::jsonb`)
	assert.Contains(t, sqlQuery, ` OR `)
	assert.Contains(t, sqlQuery, `ORDER BY "sequence_number" ASC`)
}

func Test_buildSelectQuery_EscapesPredicateValues(t *testing.T) {
	es := EventStore{eventTableName: "events"}
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyPredicateOf(eventstore.P("ItemID", "x'); DROP TABLE events; --")).
		Finalize()

	sqlQuery, err := es.buildSelectQuery(filter)

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `x''); DROP TABLE events; --`)
}

func Test_buildSelectQuery_EmptyFilterHasNoWhereClause(t *testing.T) {
	es := EventStore{eventTableName: "events"}

	sqlQuery, err := es.buildSelectQuery(eventstore.BuildEventFilter().MatchingAnyEvent())

	require.NoError(t, err)
	assert.NotContains(t, sqlQuery, "WHERE")
}

func Test_buildInsertQuery_GuardsOnExpectedSequence(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: "events"}
	event, err := eventstore.BuildStorableEventWithEmptyMetadata("ItemListed", time.Now(), []byte(`{"ItemID":"a"}`))
	require.NoError(t, err)

	// act
	sqlQuery, err := es.buildInsertQuery(eventstore.StorableEvents{event}, eventstore.BuildEventFilter().MatchingAnyEvent(), 42)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, "WITH ")
	assert.Contains(t, sqlQuery, `MAX("sequence_number") AS "max_seq"`)
	assert.Contains(t, sqlQuery, `COALESCE("max_seq", 0) = 42`)
	assert.Contains(t, sqlQuery, `'{"ItemID":"a"}'::jsonb`)
}

func Test_isSerializationConflict(t *testing.T) {
	assert.True(t, isSerializationConflict(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, isSerializationConflict(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, isSerializationConflict(&pq.Error{Code: pq.ErrorCode(pgerrcode.DeadlockDetected)}))
	assert.False(t, isSerializationConflict(&pgconn.PgError{Code: pgerrcode.UndefinedTable}))
	assert.False(t, isSerializationConflict(assert.AnError))
}
