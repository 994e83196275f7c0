package itemdetails

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const queryType = "ItemDetails"

// Query represents the intent to look at one item.
type Query struct {
	ItemID core.ItemIDString
}

// BuildQuery creates a new Query.
func BuildQuery(itemID core.ItemIDString) Query {
	return Query{ItemID: itemID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
