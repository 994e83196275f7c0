package itemsofowner

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// Items is the result of the query, in listing order.
type Items struct {
	Items          []core.Item `json:"items"`
	Count          int         `json:"count"`
	SequenceNumber uint        `json:"-"`
}
