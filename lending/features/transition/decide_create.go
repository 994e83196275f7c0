package transition

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const (
	failureReasonItemNotRequestable    = "item is not requestable"
	failureReasonOwnerMismatch         = "owner mismatch"
	failureReasonOwnItem               = "cannot request own item"
	failureReasonModeMismatch          = "mode mismatch"
	failureReasonOfferedItemMissing    = "offered item is required for Exchange requests"
	failureReasonOfferedIsRequested    = "offered item must differ from the requested item"
	failureReasonOfferedItemNotOwned   = "offered item does not belong to the requester"
	failureReasonOfferedNotAvailable   = "offered item is not available"
	failureReasonDuplicatePendingReq   = "duplicate request"
	failureReasonRequestIDAlreadyTaken = "request id is already taken"
)

// DecideCreate decides whether the lending request of command can be created.
// It reads and writes only through s, so the decision is pure with respect to the event store:
// everything it changes ends up in s.Recorded().
//
// Business Rules, checked in this order, the first violated one wins:
//
//	a. the requested item exists                                  NotFound
//	b. the requested item is available                            Conflict
//	c. OwnerID is the requested item's owner                      Validation (ownerId)
//	d. the requester does not own the requested item              Validation (requestedItemId)
//	e. Mode is the requested item's mode                          Validation (mode)
//	f. Exchange only: offered item given, different from the requested item (Validation),
//	   exists (NotFound), owned by the requester (Forbidden), available (Conflict)
//	g. the requester has no pending request for the item         Conflict
//
//	THEN: LendingRequested, the requested item becomes pending, an offered item becomes pending
//	IDEMPOTENCY: a request with the same id and content already exists (e.g. a retried append that committed)
func DecideCreate(s *core.Session, command CreateRequestCommand) (core.Request, core.DecisionResult) {
	if existing, err := s.Requests().Get(command.RequestID); err == nil {
		if sameRequest(existing, command) {
			return existing, core.IdempotentDecision()
		}

		return core.Request{}, core.ErrorDecision(core.NewConflictError(failureReasonRequestIDAlreadyTaken))
	}

	requested, err := s.Items().Get(command.RequestedItemID)
	if err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	if err := checkRequestedItem(requested, command); err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	if command.Mode == core.ModeExchange {
		if err := checkOfferedItem(s.Items(), command); err != nil {
			return core.Request{}, core.ErrorDecision(err)
		}
	}

	if _, found := s.Requests().FindPendingByRequesterAndItem(command.RequesterID, command.RequestedItemID); found {
		return core.Request{}, core.ErrorDecision(core.NewConflictError(failureReasonDuplicatePendingReq))
	}

	request, err := s.Requests().Create(core.NewRequest{
		RequestID:       command.RequestID,
		RequesterID:     command.RequesterID,
		RequestedItemID: command.RequestedItemID,
		OwnerID:         requested.OwnerID,
		Mode:            command.Mode,
		OfferedItemID:   command.OfferedItemID,
	}, command.OccurredAt)
	if err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	if err := s.Items().SetStatus(command.RequestedItemID, core.ItemPending, request.ID, command.OccurredAt); err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	if request.HasOfferedItem() {
		if err := s.Items().SetStatus(request.OfferedItemID, core.ItemPending, request.ID, command.OccurredAt); err != nil {
			return core.Request{}, core.ErrorDecision(err)
		}
	}

	return request, core.SuccessDecision(s.Recorded()...)
}

func checkRequestedItem(requested core.Item, command CreateRequestCommand) error {
	switch {
	case requested.Status != core.ItemAvailable:
		return core.NewConflictError(failureReasonItemNotRequestable)

	case command.OwnerID != requested.OwnerID:
		return core.NewFieldValidationError("ownerId", failureReasonOwnerMismatch)

	case command.RequesterID == requested.OwnerID:
		return core.NewFieldValidationError("requestedItemId", failureReasonOwnItem)

	case command.Mode != requested.Mode:
		return core.NewFieldValidationError("mode", failureReasonModeMismatch)
	}

	return nil
}

func checkOfferedItem(items *core.ItemLedger, command CreateRequestCommand) error {
	if command.OfferedItemID == "" {
		return core.NewFieldValidationError("offeredItemId", failureReasonOfferedItemMissing)
	}

	if command.OfferedItemID == command.RequestedItemID {
		return core.NewFieldValidationError("offeredItemId", failureReasonOfferedIsRequested)
	}

	offered, err := items.Get(command.OfferedItemID)
	if err != nil {
		return err
	}

	if offered.OwnerID != command.RequesterID {
		return core.NewForbiddenError(failureReasonOfferedItemNotOwned)
	}

	if offered.Status != core.ItemAvailable {
		return core.NewConflictError(failureReasonOfferedNotAvailable)
	}

	return nil
}

func sameRequest(existing core.Request, command CreateRequestCommand) bool {
	return existing.RequesterID == command.RequesterID &&
		existing.RequestedItemID == command.RequestedItemID &&
		existing.Mode == command.Mode &&
		existing.OfferedItemID == command.OfferedItemID
}
