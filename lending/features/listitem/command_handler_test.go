package listitem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore/memengine"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/listitem"
)

var fakeClock = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func givenCommand(t *testing.T, itemID, ownerID, title, mode string) listitem.Command {
	t.Helper()

	command, err := listitem.BuildCommand(itemID, ownerID, title, "Frank Herbert", mode, fakeClock)
	require.NoError(t, err, "error in arranging test data")

	return command
}

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	es := memengine.NewEventStore()
	handler := listitem.NewCommandHandler(es)

	// act
	item, result, err := handler.Handle(context.Background(), givenCommand(t, "I1", "owner", "Dune", "Free"))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)
	assert.Equal(t, core.ItemAvailable, item.Status)
	assert.Equal(t, "owner", item.OwnerID)
	assert.Equal(t, core.ModeFree, item.Mode)
	assert.Equal(t, 1, es.Len())
}

func Test_CommandHandler_Handle_Idempotent_SameItemAgain(t *testing.T) {
	es := memengine.NewEventStore()
	handler := listitem.NewCommandHandler(es)
	command := givenCommand(t, "I1", "owner", "Dune", "Exchange")

	_, _, err := handler.Handle(context.Background(), command)
	require.NoError(t, err)

	item, result, err := handler.Handle(context.Background(), command)

	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, "I1", item.ID)
	assert.Equal(t, 1, es.Len())
}

func Test_CommandHandler_Handle_Error_ItemIDTaken(t *testing.T) {
	es := memengine.NewEventStore()
	handler := listitem.NewCommandHandler(es)

	_, _, err := handler.Handle(context.Background(), givenCommand(t, "I1", "owner", "Dune", "Free"))
	require.NoError(t, err)

	_, _, err = handler.Handle(context.Background(), givenCommand(t, "I1", "someone-else", "Dune", "Free"))

	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, 1, es.Len())
}

func Test_BuildCommand_ReportsFieldErrors(t *testing.T) {
	_, err := listitem.BuildCommand("I1", "owner", "   ", "", "Lease", fakeClock)

	require.ErrorIs(t, err, core.ErrValidation)

	fields := make([]string, 0)
	for _, f := range core.FieldErrorsOf(err) {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"title", "mode"}, fields)
}
