package transition

import (
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const createRequestCommandType = "CreateRequest"

// CreateRequestCommand represents the intent of a member to obtain an item from its owner.
type CreateRequestCommand struct {
	RequestID       core.RequestIDString
	RequesterID     core.MemberIDString
	RequestedItemID core.ItemIDString
	OwnerID         core.MemberIDString
	Mode            core.Mode
	OfferedItemID   core.ItemIDString
	OccurredAt      core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability.
func (c CreateRequestCommand) CommandType() string {
	return createRequestCommandType
}

// BuildCreateRequestCommand validates the shape of the input and creates the command.
// All field errors are reported together. Whether the input makes sense for the items involved
// is decided later against the current state.
func BuildCreateRequestCommand(
	requestID core.RequestIDString,
	requesterID core.MemberIDString,
	requestedItemID core.ItemIDString,
	ownerID core.MemberIDString,
	mode string,
	offeredItemID core.ItemIDString,
	occurredAt time.Time,
) (CreateRequestCommand, error) {

	var fields []core.FieldError

	required := []struct{ field, value string }{
		{"requestId", requestID},
		{"requesterId", requesterID},
		{"requestedItemId", requestedItemID},
		{"ownerId", ownerID},
	}
	for _, r := range required {
		if r.value == "" {
			fields = append(fields, core.FieldError{Field: r.field, Message: "is required"})
		}
	}

	parsedMode, err := core.ParseMode(mode, "mode")
	if err != nil {
		fields = append(fields, core.FieldErrorsOf(err)...)
	}

	switch {
	case parsedMode == core.ModeExchange && offeredItemID == "":
		fields = append(fields, core.FieldError{Field: "offeredItemId", Message: "is required for Exchange requests"})
	case parsedMode == core.ModeFree && offeredItemID != "":
		fields = append(fields, core.FieldError{Field: "offeredItemId", Message: "must be absent for Free requests"})
	}

	if len(fields) > 0 {
		return CreateRequestCommand{}, core.NewValidationError("invalid lending request", fields...)
	}

	return CreateRequestCommand{
		RequestID:       requestID,
		RequesterID:     requesterID,
		RequestedItemID: requestedItemID,
		OwnerID:         ownerID,
		Mode:            parsedMode,
		OfferedItemID:   offeredItemID,
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}, nil
}
