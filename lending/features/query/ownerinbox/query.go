package ownerinbox

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const queryType = "OwnerInbox"

// Query represents the intent of an owner to see what waits for a decision.
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
