package core

import (
	"time"
)

// LendingRequestedEventType is the event type identifier.
const LendingRequestedEventType = "LendingRequested"

// LendingRequested represents when a member asks the owner of an item to lend it.
// OfferedItemID is empty unless Mode is Exchange.
type LendingRequested struct {
	RequestID       RequestIDString
	RequesterID     MemberIDString
	RequestedItemID ItemIDString
	OwnerID         MemberIDString
	Mode            Mode
	OfferedItemID   ItemIDString
	OccurredAt      OccurredAt
}

// BuildLendingRequested creates a new LendingRequested event.
func BuildLendingRequested(record NewRequest, occurredAt time.Time) LendingRequested {
	return LendingRequested{
		RequestID:       record.RequestID,
		RequesterID:     record.RequesterID,
		RequestedItemID: record.RequestedItemID,
		OwnerID:         record.OwnerID,
		Mode:            record.Mode,
		OfferedItemID:   record.OfferedItemID,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

func (e LendingRequested) IsEventType() string {
	return LendingRequestedEventType
}

func (e LendingRequested) HasOccurredAt() time.Time {
	return e.OccurredAt
}
