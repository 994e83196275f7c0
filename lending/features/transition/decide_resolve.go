package transition

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const (
	failureReasonNotTheOwner     = "only the owner of the requested item may resolve the request"
	failureReasonAlreadyResolved = "request is already resolved"
)

// DecideResolve decides the resolution of a pending request by its owner.
//
// Business Rules, checked in this order:
//
//	the request exists                         NotFound
//	the actor is the request's owner           Forbidden
//	the request is pending                     Conflict
//	the decision is approved or rejected       Validation (status)
//
//	THEN approved: the request is approved, the requested item and an offered item become approved,
//	     every other pending request for the requested item is rejected as cascade and releases its offered item
//	THEN rejected: the request is rejected, the requested item and an offered item are released
//
// Releasing an item makes it available unless another pending request still references it.
func DecideResolve(s *core.Session, command ResolveRequestCommand) (core.Request, core.DecisionResult) {
	target, err := s.Requests().Get(command.RequestID)
	if err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	if command.ActorID != target.OwnerID {
		return core.Request{}, core.ErrorDecision(core.NewForbiddenError(failureReasonNotTheOwner))
	}

	if target.Status.IsTerminal() {
		return core.Request{}, core.ErrorDecision(core.NewConflictError(failureReasonAlreadyResolved))
	}

	decision, err := core.ParseDecision(command.Decision)
	if err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	switch decision {
	case core.DecisionApprove:
		err = approve(s, target, command)
	case core.DecisionReject:
		err = reject(s, target, command)
	}

	if err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	resolved, err := s.Requests().Get(target.ID)
	if err != nil {
		return core.Request{}, core.ErrorDecision(err)
	}

	return resolved, core.SuccessDecision(s.Recorded()...)
}

func approve(s *core.Session, target core.Request, command ResolveRequestCommand) error {
	at := command.OccurredAt

	if _, err := s.Requests().Resolve(target.ID, core.RequestApproved, command.ActorID, false, at); err != nil {
		return err
	}

	if err := s.Items().SetStatus(target.RequestedItemID, core.DecisionApprove.ItemStatus(), target.ID, at); err != nil {
		return err
	}

	if target.HasOfferedItem() {
		if err := s.Items().SetStatus(target.OfferedItemID, core.DecisionApprove.ItemStatus(), target.ID, at); err != nil {
			return err
		}
	}

	for _, sibling := range s.Requests().FindAllByRequestedItem(target.RequestedItemID) {
		if sibling.ID == target.ID || sibling.Status != core.RequestPending {
			continue
		}

		if _, err := s.Requests().Resolve(sibling.ID, core.RequestRejected, command.ActorID, true, at); err != nil {
			return err
		}

		if sibling.HasOfferedItem() {
			if err := s.ReleaseItem(sibling.OfferedItemID, sibling.ID, at); err != nil {
				return err
			}
		}
	}

	return nil
}

func reject(s *core.Session, target core.Request, command ResolveRequestCommand) error {
	at := command.OccurredAt

	if _, err := s.Requests().Resolve(target.ID, core.RequestRejected, command.ActorID, false, at); err != nil {
		return err
	}

	if err := s.ReleaseItem(target.RequestedItemID, target.ID, at); err != nil {
		return err
	}

	if target.HasOfferedItem() {
		return s.ReleaseItem(target.OfferedItemID, target.ID, at)
	}

	return nil
}
