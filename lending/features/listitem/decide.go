package listitem

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const failureReasonItemIDTaken = "item id is already taken"

// Decide lists the item of command.
//
// Business Rules:
//
//	GIVEN: an item id that is not listed yet
//	WHEN: ListItem command is received
//	THEN: ItemListed event is generated
//	IDEMPOTENCY: the same owner already listed the same title and mode under this id
//	ERROR: the id is listed with a different owner, title or mode (Conflict)
func Decide(s *core.Session, command Command) (core.Item, core.DecisionResult) {
	if existing, err := s.Items().Get(command.ItemID); err == nil {
		if existing.OwnerID == command.OwnerID && existing.Title == command.Title && existing.Mode == command.Mode {
			return existing, core.IdempotentDecision()
		}

		return core.Item{}, core.ErrorDecision(core.NewConflictError(failureReasonItemIDTaken))
	}

	s.Record(core.BuildItemListed(
		command.ItemID,
		command.OwnerID,
		command.Title,
		command.Author,
		command.Mode,
		command.OccurredAt,
	))

	item, err := s.Items().Get(command.ItemID)
	if err != nil {
		return core.Item{}, core.ErrorDecision(err)
	}

	return item, core.SuccessDecision(s.Recorded()...)
}
