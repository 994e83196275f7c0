package listitem

import (
	"strings"
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const commandType = "ListItem"

// Command represents the intent of a member to offer an item for lending.
type Command struct {
	ItemID     core.ItemIDString
	OwnerID    core.MemberIDString
	Title      string
	Author     string
	Mode       core.Mode
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the input and creates a new Command.
func BuildCommand(
	itemID core.ItemIDString,
	ownerID core.MemberIDString,
	title string,
	author string,
	mode string,
	occurredAt time.Time,
) (Command, error) {

	var fields []core.FieldError

	if itemID == "" {
		fields = append(fields, core.FieldError{Field: "itemId", Message: "is required"})
	}

	if ownerID == "" {
		fields = append(fields, core.FieldError{Field: "ownerId", Message: "is required"})
	}

	title = strings.TrimSpace(title)
	if title == "" {
		fields = append(fields, core.FieldError{Field: "title", Message: "is required"})
	}

	parsedMode, err := core.ParseMode(mode, "mode")
	if err != nil {
		fields = append(fields, core.FieldErrorsOf(err)...)
	}

	if len(fields) > 0 {
		return Command{}, core.NewValidationError("invalid item", fields...)
	}

	return Command{
		ItemID:     itemID,
		OwnerID:    ownerID,
		Title:      title,
		Author:     strings.TrimSpace(author),
		Mode:       parsedMode,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}, nil
}
