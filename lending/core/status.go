package core

// Mode is how an item may be requested. It is fixed when the item is listed.
type Mode string

const (
	ModeFree     Mode = "Free"
	ModeExchange Mode = "Exchange"
)

// ParseMode returns the Mode for s or a validation error on field.
func ParseMode(s string, field string) (Mode, error) {
	switch Mode(s) {
	case ModeFree, ModeExchange:
		return Mode(s), nil
	default:
		return "", NewValidationError("invalid mode", FieldError{Field: field, Message: "must be Free or Exchange"})
	}
}

// ItemStatus is the lending state of an item.
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemPending   ItemStatus = "pending"
	ItemApproved  ItemStatus = "approved"
	ItemRejected  ItemStatus = "rejected"
)

// IsValid reports whether s is one of the item statuses.
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemAvailable, ItemPending, ItemApproved, ItemRejected:
		return true
	default:
		return false
	}
}

// RequestStatus is the state of a lending request. Anything but pending is terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsTerminal reports whether the request has been resolved.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// Decision is the outcome an owner picks when resolving a request.
type Decision string

const (
	DecisionApprove Decision = Decision(RequestApproved)
	DecisionReject  Decision = Decision(RequestRejected)
)

// ParseDecision accepts exactly "approved" and "rejected".
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove, DecisionReject:
		return Decision(s), nil
	default:
		return "", NewValidationError("invalid status", FieldError{Field: "status", Message: "must be approved or rejected"})
	}
}

// RequestStatus maps the decision to the terminal request status it produces.
func (d Decision) RequestStatus() RequestStatus {
	return RequestStatus(d)
}

// ItemStatus maps the decision to the status the requested item takes.
// A rejection releases the item, so its status depends on other pending requests; see Session.ReleaseItem.
func (d Decision) ItemStatus() ItemStatus {
	if d == DecisionApprove {
		return ItemApproved
	}

	return ItemAvailable
}
