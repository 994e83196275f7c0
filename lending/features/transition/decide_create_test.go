package transition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/transition"
)

func Test_DecideCreate_FreeRequest(t *testing.T) {
	// arrange
	s := core.NewSession(history(listed("I1", owner, core.ModeFree)))
	command := givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeFree, "")

	// act
	request, result := transition.DecideCreate(s, command)

	// assert
	require.NoError(t, result.HasError())
	require.True(t, result.HasEventsToAppend())
	require.Len(t, result.Events, 2)
	assert.Equal(t, core.LendingRequestedEventType, result.Events[0].IsEventType())
	assert.Equal(t, core.BuildItemStatusChanged("I1", core.ItemPending, "T1", command.OccurredAt), result.Events[1])

	assert.Equal(t, core.RequestPending, request.Status)
	assert.Equal(t, owner, request.OwnerID)
	assert.Equal(t, core.ItemPending, itemStatus(t, s, "I1"))
}

func Test_DecideCreate_ExchangeRequest_MarksBothItemsPending(t *testing.T) {
	s := core.NewSession(history(listed("I1", owner, core.ModeExchange), listed("J", alice, core.ModeFree)))
	command := givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeExchange, "J")

	request, result := transition.DecideCreate(s, command)

	require.NoError(t, result.HasError())
	require.Len(t, result.Events, 3)
	assert.Equal(t, "J", request.OfferedItemID)
	assert.Equal(t, core.ItemPending, itemStatus(t, s, "I1"))
	assert.Equal(t, core.ItemPending, itemStatus(t, s, "J"))
}

func Test_DecideCreate_SameRequestAgain_IsIdempotent(t *testing.T) {
	s := core.NewSession(history(
		listed("I1", owner, core.ModeFree),
		pendingRequest("T1", alice, "I1", owner, core.ModeFree, ""),
	))

	request, result := transition.DecideCreate(s, givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeFree, ""))

	assert.True(t, result.IsIdempotent())
	assert.False(t, result.HasEventsToAppend())
	assert.Equal(t, "T1", request.ID)
}

func Test_DecideCreate_RequestIDTakenByDifferentRequest(t *testing.T) {
	s := core.NewSession(history(
		listed("I1", owner, core.ModeFree),
		pendingRequest("T1", alice, "I1", owner, core.ModeFree, ""),
	))

	_, result := transition.DecideCreate(s, givenCreateCommand(t, "T1", bob, "I1", owner, core.ModeFree, ""))

	assert.ErrorIs(t, result.HasError(), core.ErrConflict)
}

func Test_DecideCreate_Rejections(t *testing.T) {
	base := history(
		listed("I1", owner, core.ModeExchange),
		listed("F1", owner, core.ModeFree),
		listed("A1", alice, core.ModeFree),
		listed("B1", bob, core.ModeFree),
		listed("A2", alice, core.ModeFree),
		pendingRequest("TX", carol, "A2", alice, core.ModeFree, ""),
	)

	testCases := []struct {
		name      string
		history   core.DomainEvents
		command   transition.CreateRequestCommand
		wantKind  error
		wantField string
	}{
		{
			name:     "a. requested item does not exist",
			history:  base,
			command:  givenCreateCommand(t, "T1", alice, "nope", owner, core.ModeFree, ""),
			wantKind: core.ErrNotFound,
		},
		{
			name:     "b. requested item is not available",
			history:  history(base, pendingRequest("T0", carol, "F1", owner, core.ModeFree, "")),
			command:  givenCreateCommand(t, "T1", alice, "F1", owner, core.ModeFree, ""),
			wantKind: core.ErrConflict,
		},
		{
			name:      "b. precedes c: unavailable item with wrong owner",
			history:   history(base, pendingRequest("T0", carol, "F1", owner, core.ModeFree, "")),
			command:   givenCreateCommand(t, "T1", alice, "F1", bob, core.ModeFree, ""),
			wantKind:  core.ErrConflict,
			wantField: "",
		},
		{
			name:      "c. owner mismatch",
			history:   base,
			command:   givenCreateCommand(t, "T1", alice, "F1", bob, core.ModeFree, ""),
			wantKind:  core.ErrValidation,
			wantField: "ownerId",
		},
		{
			name:      "d. own item",
			history:   base,
			command:   givenCreateCommand(t, "T1", owner, "F1", owner, core.ModeFree, ""),
			wantKind:  core.ErrValidation,
			wantField: "requestedItemId",
		},
		{
			name:      "e. mode mismatch",
			history:   base,
			command:   givenCreateCommand(t, "T1", alice, "F1", owner, core.ModeExchange, "A1"),
			wantKind:  core.ErrValidation,
			wantField: "mode",
		},
		{
			name:      "f. offered item is the requested item",
			history:   base,
			command:   givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeExchange, "I1"),
			wantKind:  core.ErrValidation,
			wantField: "offeredItemId",
		},
		{
			name:     "f. offered item does not exist",
			history:  base,
			command:  givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeExchange, "nope"),
			wantKind: core.ErrNotFound,
		},
		{
			name:     "f. offered item belongs to someone else",
			history:  base,
			command:  givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeExchange, "B1"),
			wantKind: core.ErrForbidden,
		},
		{
			name:     "f. offered item is not available",
			history:  base,
			command:  givenCreateCommand(t, "T1", alice, "I1", owner, core.ModeExchange, "A2"),
			wantKind: core.ErrConflict,
		},
		{
			name: "g. duplicate pending request",
			history: history(base,
				pendingRequest("T0", alice, "F1", owner, core.ModeFree, ""),
				core.BuildItemStatusChanged("F1", core.ItemAvailable, "T0", fakeClock),
			),
			command:  givenCreateCommand(t, "T1", alice, "F1", owner, core.ModeFree, ""),
			wantKind: core.ErrConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			s := core.NewSession(tc.history)

			// act
			_, result := transition.DecideCreate(s, tc.command)

			// assert
			err := result.HasError()
			require.ErrorIs(t, err, tc.wantKind)
			assert.False(t, result.HasEventsToAppend())
			assert.Empty(t, s.Recorded())

			if tc.wantField != "" {
				require.Len(t, core.FieldErrorsOf(err), 1)
				assert.Equal(t, tc.wantField, core.FieldErrorsOf(err)[0].Field)
			}
		})
	}
}

func Test_DecideCreate_ExchangeWithoutOfferedItem_WhenBuiltDirectly(t *testing.T) {
	s := core.NewSession(history(listed("I1", owner, core.ModeExchange)))
	command := transition.CreateRequestCommand{
		RequestID: "T1", RequesterID: alice, RequestedItemID: "I1", OwnerID: owner, Mode: core.ModeExchange,
	}

	_, result := transition.DecideCreate(s, command)

	require.ErrorIs(t, result.HasError(), core.ErrValidation)
	assert.Equal(t, "offeredItemId", core.FieldErrorsOf(result.HasError())[0].Field)
}
