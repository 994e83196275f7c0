package core

import (
	"time"
)

// LendingRequestApprovedEventType is the event type identifier.
const LendingRequestApprovedEventType = "LendingRequestApproved"

// LendingRequestApproved represents when the owner approves a pending request.
type LendingRequestApproved struct {
	RequestID       RequestIDString
	RequestedItemID ItemIDString
	ResolvedBy      MemberIDString
	OccurredAt      OccurredAt
}

// BuildLendingRequestApproved creates a new LendingRequestApproved event.
func BuildLendingRequestApproved(
	requestID RequestIDString,
	requestedItemID ItemIDString,
	resolvedBy MemberIDString,
	occurredAt time.Time,
) LendingRequestApproved {

	return LendingRequestApproved{
		RequestID:       requestID,
		RequestedItemID: requestedItemID,
		ResolvedBy:      resolvedBy,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

func (e LendingRequestApproved) IsEventType() string {
	return LendingRequestApprovedEventType
}

func (e LendingRequestApproved) HasOccurredAt() time.Time {
	return e.OccurredAt
}
