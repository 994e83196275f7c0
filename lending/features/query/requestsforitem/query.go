package requestsforitem

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const queryType = "RequestsForItem"

// Query represents the intent of ActorID to list the requests for ItemID.
type Query struct {
	ItemID  core.ItemIDString
	ActorID core.MemberIDString
}

// BuildQuery creates a new Query.
func BuildQuery(itemID core.ItemIDString, actorID core.MemberIDString) Query {
	return Query{ItemID: itemID, ActorID: actorID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
