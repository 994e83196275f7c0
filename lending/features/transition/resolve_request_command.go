package transition

import (
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const resolveRequestCommandType = "ResolveRequest"

// ResolveRequestCommand represents the decision of an owner about a pending request.
// Decision is kept as received; it is parsed only after the request and the actor were checked,
// so that a wrong actor learns nothing about the accepted values.
type ResolveRequestCommand struct {
	RequestID  core.RequestIDString
	ActorID    core.MemberIDString
	Decision   string
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability.
func (c ResolveRequestCommand) CommandType() string {
	return resolveRequestCommandType
}

// BuildResolveRequestCommand creates a new ResolveRequestCommand.
func BuildResolveRequestCommand(
	requestID core.RequestIDString,
	actorID core.MemberIDString,
	decision string,
	occurredAt time.Time,
) ResolveRequestCommand {

	return ResolveRequestCommand{
		RequestID:  requestID,
		ActorID:    actorID,
		Decision:   decision,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
