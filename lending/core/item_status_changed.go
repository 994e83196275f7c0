package core

import (
	"time"
)

// ItemStatusChangedEventType is the event type identifier.
const ItemStatusChangedEventType = "ItemStatusChanged"

// ItemStatusChanged represents a write to the Item Ledger. RequestID is the request that caused it.
type ItemStatusChanged struct {
	ItemID     ItemIDString
	Status     ItemStatus
	RequestID  RequestIDString
	OccurredAt OccurredAt
}

// BuildItemStatusChanged creates a new ItemStatusChanged event.
func BuildItemStatusChanged(itemID ItemIDString, status ItemStatus, requestID RequestIDString, occurredAt time.Time) ItemStatusChanged {
	return ItemStatusChanged{
		ItemID:     itemID,
		Status:     status,
		RequestID:  requestID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ItemStatusChanged) IsEventType() string {
	return ItemStatusChangedEventType
}

func (e ItemStatusChanged) HasOccurredAt() time.Time {
	return e.OccurredAt
}
