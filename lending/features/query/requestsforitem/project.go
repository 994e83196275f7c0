package requestsforitem

import (
	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const failureReasonNotTheOwner = "only the owner may list the requests for an item"

// Project lists the requests for the queried item.
//
// Query Logic:
//
//	GIVEN: the events of the item and of all requests for it
//	THEN: all requests for the item in creation order
//	ERROR: unknown item (NotFound), actor is not the owner (Forbidden)
func Project(history core.DomainEvents, query Query, maxSequence uint) (Requests, error) {
	s := core.NewSession(history)

	item, err := s.Items().Get(query.ItemID)
	if err != nil {
		return Requests{}, err
	}

	if item.OwnerID != query.ActorID {
		return Requests{}, core.NewForbiddenError(failureReasonNotTheOwner)
	}

	requests := s.Requests().FindAllByRequestedItem(item.ID)

	return Requests{
		ItemID:         item.ID,
		Requests:       requests,
		Count:          len(requests),
		SequenceNumber: maxSequence,
	}, nil
}

// BuildEventFilter selects the ItemListed event of the item and the events of all requests for it.
func BuildEventFilter(itemID core.ItemIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ItemListedEventType).
		AndAnyPredicateOf(eventstore.P("ItemID", itemID)).
		OrMatching().
		AnyEventTypeOf(
			core.LendingRequestedEventType,
			core.LendingRequestApprovedEventType,
			core.LendingRequestRejectedEventType,
		).
		AndAnyPredicateOf(eventstore.P("RequestedItemID", itemID)).
		Finalize()
}
