package ownerinbox

import (
	"slices"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// Project returns the pending requests addressed to the queried owner.
func Project(history core.DomainEvents, query Query, maxSequence uint) Inbox {
	requests := core.NewSession(history).Requests().FindPendingByOwner(query.OwnerID)

	return Inbox{
		OwnerID:        query.OwnerID,
		Requests:       requests,
		Count:          len(requests),
		SequenceNumber: maxSequence,
	}
}

// BuildRequestedFilter selects the LendingRequested events addressed to ownerID.
// Resolutions carry no owner, so they are read with BuildEventFilter afterwards.
func BuildRequestedFilter(ownerID core.MemberIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.LendingRequestedEventType).
		AndAnyPredicateOf(eventstore.P("OwnerID", ownerID)).
		Finalize()
}

// BuildEventFilter selects all request events for the given items. It must not be called without ids.
func BuildEventFilter(itemIDs []core.ItemIDString) eventstore.Filter {
	predicates := make([]eventstore.FilterPredicate, 0, len(itemIDs))
	for _, id := range itemIDs {
		predicates = append(predicates, eventstore.P("RequestedItemID", id))
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LendingRequestedEventType,
			core.LendingRequestApprovedEventType,
			core.LendingRequestRejectedEventType,
		).
		AndAnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}

func requestedItemIDs(events core.DomainEvents) []core.ItemIDString {
	ids := make([]core.ItemIDString, 0, len(events))
	for _, event := range events {
		if requested, ok := event.(core.LendingRequested); ok {
			ids = append(ids, requested.RequestedItemID)
		}
	}

	slices.Sort(ids)

	return slices.Compact(ids)
}
