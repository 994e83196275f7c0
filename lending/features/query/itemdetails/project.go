package itemdetails

import (
	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// Project builds the details of the queried item from its history.
//
// Query Logic:
//
//	GIVEN: the events of the item and of all requests for it
//	THEN: ItemDetails with the current status and the count of pending requests referencing the item
//	ERROR: the item was never listed (NotFound)
func Project(history core.DomainEvents, query Query, maxSequence uint) (ItemDetails, error) {
	s := core.NewSession(history)

	item, err := s.Items().Get(query.ItemID)
	if err != nil {
		return ItemDetails{}, err
	}

	return ItemDetails{
		ItemID:          item.ID,
		OwnerID:         item.OwnerID,
		Title:           item.Title,
		Author:          item.Author,
		Mode:            item.Mode,
		Status:          item.Status,
		PendingRequests: len(s.Requests().PendingReferencing(item.ID)),
		ListedAt:        item.ListedAt,
		UpdatedAt:       item.UpdatedAt,
		SequenceNumber:  maxSequence,
	}, nil
}

// BuildEventFilter selects the events of the item and of the requests for it.
func BuildEventFilter(itemID core.ItemIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ItemListedEventType, core.ItemStatusChangedEventType).
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
