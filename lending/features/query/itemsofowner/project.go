package itemsofowner

import (
	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// Project lists the items of the queried owner from the item events.
func Project(history core.DomainEvents, query Query, maxSequence uint) Items {
	items := core.NewSession(history).Items().List(query.OwnerID)

	return Items{
		Items:          items,
		Count:          len(items),
		SequenceNumber: maxSequence,
	}
}

// BuildListingFilter selects the ItemListed events of the owner, or of everyone.
// ItemStatusChanged events carry no owner, so the status is read with a second, item based filter.
func BuildListingFilter(ownerID core.MemberIDString) eventstore.Filter {
	if ownerID == "" {
		return eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf(core.ItemListedEventType).
			Finalize()
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ItemListedEventType).
		AndAnyPredicateOf(eventstore.P("OwnerID", ownerID)).
		Finalize()
}

// BuildEventFilter selects all item events of the given items. It must not be called without ids.
func BuildEventFilter(itemIDs []core.ItemIDString) eventstore.Filter {
	predicates := make([]eventstore.FilterPredicate, 0, len(itemIDs))
	for _, id := range itemIDs {
		predicates = append(predicates, eventstore.P("ItemID", id))
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ItemListedEventType, core.ItemStatusChangedEventType).
		AndAnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}
