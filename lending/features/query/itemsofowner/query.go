package itemsofowner

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const queryType = "ItemsOfOwner"

// Query represents the intent to list the items of an owner. An empty OwnerID lists all items.
type Query struct {
	OwnerID core.MemberIDString
}

// BuildQuery creates a new Query.
func BuildQuery(ownerID core.MemberIDString) Query {
	return Query{OwnerID: ownerID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
