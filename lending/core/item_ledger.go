package core

import (
	"time"
)

// Item is the Item Ledger's view of one listed item.
type Item struct {
	ID        ItemIDString
	OwnerID   MemberIDString
	Title     string
	Author    string
	Mode      Mode
	Status    ItemStatus
	ListedAt  time.Time
	UpdatedAt time.Time
}

// ItemLedger owns the lending status of items. It is a plain status register:
// SetStatus records whatever it is told, the legality of a transition is decided by the caller.
type ItemLedger struct {
	items  map[ItemIDString]*Item
	order  []ItemIDString
	record func(DomainEvent)
}

func newItemLedger(record func(DomainEvent)) *ItemLedger {
	return &ItemLedger{
		items:  make(map[ItemIDString]*Item),
		record: record,
	}
}

func (l *ItemLedger) apply(event DomainEvent) {
	switch e := event.(type) {
	case ItemListed:
		if _, exists := l.items[e.ItemID]; exists {
			return
		}

		l.items[e.ItemID] = &Item{
			ID:        e.ItemID,
			OwnerID:   e.OwnerID,
			Title:     e.Title,
			Author:    e.Author,
			Mode:      e.Mode,
			Status:    ItemAvailable,
			ListedAt:  e.OccurredAt,
			UpdatedAt: e.OccurredAt,
		}
		l.order = append(l.order, e.ItemID)

	case ItemStatusChanged:
		if item, ok := l.items[e.ItemID]; ok {
			item.Status = e.Status
			item.UpdatedAt = e.OccurredAt
		}
	}
}

// Get returns the item or a NotFound error.
func (l *ItemLedger) Get(itemID ItemIDString) (Item, error) {
	item, ok := l.items[itemID]
	if !ok {
		return Item{}, NewNotFoundError("item " + itemID + " not found")
	}

	return *item, nil
}

// GetStatus returns the item's status or a NotFound error.
func (l *ItemLedger) GetStatus(itemID ItemIDString) (ItemStatus, error) {
	item, err := l.Get(itemID)
	if err != nil {
		return "", err
	}

	return item.Status, nil
}

// SetStatus records an ItemStatusChanged event caused by the given request.
func (l *ItemLedger) SetStatus(itemID ItemIDString, status ItemStatus, causedBy RequestIDString, at time.Time) error {
	if _, ok := l.items[itemID]; !ok {
		return NewNotFoundError("item " + itemID + " not found")
	}

	l.record(BuildItemStatusChanged(itemID, status, causedBy, at))

	return nil
}

// List returns the items of ownerID in listing order; an empty ownerID lists all items.
func (l *ItemLedger) List(ownerID MemberIDString) []Item {
	items := make([]Item, 0)

	for _, id := range l.order {
		item := l.items[id]
		if ownerID == "" || item.OwnerID == ownerID {
			items = append(items, *item)
		}
	}

	return items
}
