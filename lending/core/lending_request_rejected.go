package core

import (
	"time"
)

// LendingRequestRejectedEventType is the event type identifier.
const LendingRequestRejectedEventType = "LendingRequestRejected"

// LendingRequestRejected represents when a pending request is rejected, either by the owner
// or because a sibling request for the same item was approved (Cascaded).
type LendingRequestRejected struct {
	RequestID       RequestIDString
	RequestedItemID ItemIDString
	ResolvedBy      MemberIDString
	Cascaded        bool
	OccurredAt      OccurredAt
}

// BuildLendingRequestRejected creates a new LendingRequestRejected event.
func BuildLendingRequestRejected(
	requestID RequestIDString,
	requestedItemID ItemIDString,
	resolvedBy MemberIDString,
	cascaded bool,
	occurredAt time.Time,
) LendingRequestRejected {

	return LendingRequestRejected{
		RequestID:       requestID,
		RequestedItemID: requestedItemID,
		ResolvedBy:      resolvedBy,
		Cascaded:        cascaded,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

func (e LendingRequestRejected) IsEventType() string {
	return LendingRequestRejectedEventType
}

func (e LendingRequestRejected) HasOccurredAt() time.Time {
	return e.OccurredAt
}
