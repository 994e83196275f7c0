package transition_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/eventstore/memengine"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/transition"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
)

const (
	owner = "owner"
	alice = "alice"
	bob   = "bob"
	carol = "carol"
)

var fakeClock = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func listed(itemID, ownerID string, mode core.Mode) core.DomainEvent {
	return core.BuildItemListed(itemID, ownerID, "Title of "+itemID, "", mode, fakeClock)
}

// pendingRequest is a request that was created through the engine's create path: the request and
// the pending status of the requested and the offered item.
func pendingRequest(requestID, requesterID, itemID, ownerID string, mode core.Mode, offeredItemID string) core.DomainEvents {
	events := core.DomainEvents{
		core.BuildLendingRequested(core.NewRequest{
			RequestID:       requestID,
			RequesterID:     requesterID,
			RequestedItemID: itemID,
			OwnerID:         ownerID,
			Mode:            mode,
			OfferedItemID:   offeredItemID,
		}, fakeClock),
		core.BuildItemStatusChanged(itemID, core.ItemPending, requestID, fakeClock),
	}

	if offeredItemID != "" {
		events = append(events, core.BuildItemStatusChanged(offeredItemID, core.ItemPending, requestID, fakeClock))
	}

	return events
}

func history(parts ...any) core.DomainEvents {
	var events core.DomainEvents

	for _, p := range parts {
		switch e := p.(type) {
		case core.DomainEvent:
			events = append(events, e)
		case core.DomainEvents:
			events = append(events, e...)
		}
	}

	return events
}

// scenarioThreeHistory has two pending requests for the Exchange item I1: T1 from alice offering A1
// and T2 from bob offering J. The create path never produces this (I1 is pending after T1),
// so it is seeded directly.
func scenarioThreeHistory() core.DomainEvents {
	return history(
		listed("I1", owner, core.ModeExchange),
		listed("A1", alice, core.ModeFree),
		listed("J", bob, core.ModeExchange),
		pendingRequest("T1", alice, "I1", owner, core.ModeExchange, "A1"),
		pendingRequest("T2", bob, "I1", owner, core.ModeExchange, "J"),
	)
}

func givenCreateCommand(t *testing.T, requestID, requesterID, itemID, ownerID string, mode core.Mode, offeredItemID string) transition.CreateRequestCommand {
	t.Helper()

	command, err := transition.BuildCreateRequestCommand(requestID, requesterID, itemID, ownerID, string(mode), offeredItemID, fakeClock.Add(time.Minute))
	require.NoError(t, err, "error in arranging test data")

	return command
}

func givenResolveCommand(requestID, actorID, decision string) transition.ResolveRequestCommand {
	return transition.BuildResolveRequestCommand(requestID, actorID, decision, fakeClock.Add(2*time.Minute))
}

func givenEventStoreWith(t *testing.T, events core.DomainEvents) *memengine.EventStore {
	t.Helper()

	es := memengine.NewEventStore()
	if len(events) == 0 {
		return es
	}

	storableEvents, err := shell.StorableEventsFrom(events, func() shell.EventMetadata {
		return shell.BuildEventMetadata(context.Background(), "seed")
	})
	require.NoError(t, err, "error in arranging test data")

	require.NoError(t, es.Append(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent(), 0, storableEvents...),
		"error in arranging test data")

	return es
}

// projectedState replays the whole store, as the read side would see it.
func projectedState(t *testing.T, es shell.QueriesEvents) *core.Session {
	t.Helper()

	storableEvents, _, err := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)

	events, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)

	return core.NewSession(events)
}

func itemStatus(t *testing.T, s *core.Session, itemID string) core.ItemStatus {
	t.Helper()

	status, err := s.Items().GetStatus(itemID)
	require.NoError(t, err)

	return status
}

func requestStatus(t *testing.T, s *core.Session, requestID string) core.RequestStatus {
	t.Helper()

	r, err := s.Requests().Get(requestID)
	require.NoError(t, err)

	return r.Status
}
