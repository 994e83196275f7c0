package transition

import (
	"slices"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

var (
	itemEventTypes    = []string{core.ItemListedEventType, core.ItemStatusChangedEventType}
	requestEventTypes = []string{
		core.LendingRequestedEventType,
		core.LendingRequestApprovedEventType,
		core.LendingRequestRejectedEventType,
	}
)

// BuildCreateRequestFilter selects the consistency boundary of a create: the events of the requested
// and the offered item, the events of every request for one of them, and the LendingRequested event
// of command.RequestID, whichever item that id was used for.
func BuildCreateRequestFilter(command CreateRequestCommand) eventstore.Filter {
	scope, ok := scopeFilterItems([]core.ItemIDString{command.RequestedItemID, command.OfferedItemID})
	if !ok {
		return eventstore.BuildEventFilter().MatchingAnyEvent()
	}

	return scope.
		OrMatching().
		AnyEventTypeOf(core.LendingRequestedEventType).
		AndAnyPredicateOf(eventstore.P("RequestID", command.RequestID)).
		Finalize()
}

// BuildRequestLookupFilter selects the LendingRequested event of one request.
func BuildRequestLookupFilter(requestID core.RequestIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.LendingRequestedEventType).
		AndAnyPredicateOf(eventstore.P("RequestID", requestID)).
		Finalize()
}

// buildScopeFilter selects the item events of all itemIDs and the request events of all requests
// for one of them. Empty ids are skipped, without any id the whole store is the boundary.
func buildScopeFilter(itemIDs []core.ItemIDString) eventstore.Filter {
	scope, ok := scopeFilterItems(itemIDs)
	if !ok {
		return eventstore.BuildEventFilter().MatchingAnyEvent()
	}

	return scope.Finalize()
}

func scopeFilterItems(itemIDs []core.ItemIDString) (eventstore.CompletedFilterItemBuilder, bool) {
	ids := slices.DeleteFunc(slices.Clone(itemIDs), func(id core.ItemIDString) bool { return id == "" })
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if len(ids) == 0 {
		return nil, false
	}

	itemPredicates := make([]eventstore.FilterPredicate, 0, len(ids))
	requestPredicates := make([]eventstore.FilterPredicate, 0, len(ids))
	for _, id := range ids {
		itemPredicates = append(itemPredicates, eventstore.P("ItemID", id))
		requestPredicates = append(requestPredicates, eventstore.P("RequestedItemID", id))
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(itemEventTypes[0], itemEventTypes[1:]...).
		AndAnyPredicateOf(itemPredicates[0], itemPredicates[1:]...).
		OrMatching().
		AnyEventTypeOf(requestEventTypes[0], requestEventTypes[1:]...).
		AndAnyPredicateOf(requestPredicates[0], requestPredicates[1:]...), true
}

// resolveScope returns the items a resolve of requestID touches according to s: the requested item,
// the offered item, and the offered items of all sibling requests.
func resolveScope(s *core.Session, requestID core.RequestIDString) []core.ItemIDString {
	target, err := s.Requests().Get(requestID)
	if err != nil {
		return nil
	}

	scope := []core.ItemIDString{target.RequestedItemID, target.OfferedItemID}
	for _, sibling := range s.Requests().FindAllByRequestedItem(target.RequestedItemID) {
		scope = append(scope, sibling.OfferedItemID)
	}

	scope = slices.DeleteFunc(scope, func(id core.ItemIDString) bool { return id == "" })
	slices.Sort(scope)

	return slices.Compact(scope)
}
