package requestdetails

import (
	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const failureReasonNotAParty = "only the requester and the owner may see a request"

// Project returns the queried request as the Request Store sees it.
//
// Query Logic:
//
//	GIVEN: the events of the request
//	THEN: the request
//	ERROR: unknown request (NotFound), actor is neither requester nor owner (Forbidden)
func Project(history core.DomainEvents, query Query) (core.Request, error) {
	request, err := core.NewSession(history).Requests().Get(query.RequestID)
	if err != nil {
		return core.Request{}, err
	}

	if query.ActorID != request.RequesterID && query.ActorID != request.OwnerID {
		return core.Request{}, core.NewForbiddenError(failureReasonNotAParty)
	}

	return request, nil
}

// BuildEventFilter selects the events of one request.
func BuildEventFilter(requestID core.RequestIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LendingRequestedEventType,
			core.LendingRequestApprovedEventType,
			core.LendingRequestRejectedEventType,
		).
		AndAnyPredicateOf(eventstore.P("RequestID", requestID)).
		Finalize()
}
