package itemdetails

import (
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// ItemDetails is the result of the query.
type ItemDetails struct {
	ItemID          core.ItemIDString   `json:"itemId"`
	OwnerID         core.MemberIDString `json:"ownerId"`
	Title           string              `json:"title"`
	Author          string              `json:"author,omitempty"`
	Mode            core.Mode           `json:"availabilityMode"`
	Status          core.ItemStatus     `json:"status"`
	PendingRequests int                 `json:"pendingRequests"`
	ListedAt        time.Time           `json:"listedAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	SequenceNumber  uint                `json:"-"`
}
