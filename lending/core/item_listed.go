package core

import (
	"time"
)

// ItemListedEventType is the event type identifier.
const ItemListedEventType = "ItemListed"

// ItemListed represents when a member lists an item for lending. Listed items start available.
type ItemListed struct {
	ItemID     ItemIDString
	OwnerID    MemberIDString
	Title      string
	Author     string
	Mode       Mode
	OccurredAt OccurredAt
}

// BuildItemListed creates a new ItemListed event.
func BuildItemListed(
	itemID ItemIDString,
	ownerID MemberIDString,
	title string,
	author string,
	mode Mode,
	occurredAt time.Time,
) ItemListed {

	return ItemListed{
		ItemID:     itemID,
		OwnerID:    ownerID,
		Title:      title,
		Author:     author,
		Mode:       mode,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e ItemListed) IsEventType() string {
	return ItemListedEventType
}

func (e ItemListed) HasOccurredAt() time.Time {
	return e.OccurredAt
}
