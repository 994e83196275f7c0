package requestdetails

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const queryType = "RequestDetails"

// Query represents the intent of ActorID to look at one request.
type Query struct {
	RequestID core.RequestIDString
	ActorID   core.MemberIDString
}

// BuildQuery creates a new Query.
func BuildQuery(requestID core.RequestIDString, actorID core.MemberIDString) Query {
	return Query{RequestID: requestID, ActorID: actorID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
