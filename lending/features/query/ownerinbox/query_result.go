package ownerinbox

import (
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// Inbox is the result of the query.
type Inbox struct {
	OwnerID        core.MemberIDString
	Requests       []core.Request
	Count          int
	SequenceNumber uint
}
