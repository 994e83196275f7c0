package requestsforitem

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// Requests is the result of the query.
type Requests struct {
	ItemID         core.ItemIDString
	Requests       []core.Request
	Count          int
	SequenceNumber uint
}
