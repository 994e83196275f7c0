package core

import (
	"time"
)

// Session is the unit of work of one command. It replays a history into the Item Ledger and the
// Request Store and records the events produced while deciding, applying each one immediately so
// that later reads observe earlier writes.
type Session struct {
	items    *ItemLedger
	requests *RequestStore
	recorded DomainEvents
}

// NewSession builds the projections from history.
func NewSession(history DomainEvents) *Session {
	s := &Session{}
	s.items = newItemLedger(s.Record)
	s.requests = newRequestStore(s.Record)

	for _, event := range history {
		s.apply(event)
	}

	return s
}

func (s *Session) Items() *ItemLedger {
	return s.items
}

func (s *Session) Requests() *RequestStore {
	return s.requests
}

// Record applies event to the projections and keeps it for appending.
func (s *Session) Record(event DomainEvent) {
	s.apply(event)
	s.recorded = append(s.recorded, event)
}

// Recorded returns the events recorded since the session was built, in recording order.
func (s *Session) Recorded() DomainEvents {
	return s.recorded
}

// ReleaseItem makes an item available again once the request causedBy no longer holds it.
// While another pending request still references the item, it stays pending.
func (s *Session) ReleaseItem(itemID ItemIDString, causedBy RequestIDString, at time.Time) error {
	status, err := s.items.GetStatus(itemID)
	if err != nil {
		return err
	}

	if len(s.requests.PendingReferencing(itemID)) > 0 {
		if status == ItemPending {
			return nil
		}

		return s.items.SetStatus(itemID, ItemPending, causedBy, at)
	}

	return s.items.SetStatus(itemID, ItemAvailable, causedBy, at)
}

func (s *Session) apply(event DomainEvent) {
	s.items.apply(event)
	s.requests.apply(event)
}
