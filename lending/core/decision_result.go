package core

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// Construct it only with IdempotentDecision, SuccessDecision or ErrorDecision.
type DecisionResult struct {
	Outcome string       // "idempotent", "success", or "error"
	Events  DomainEvents // empty unless the outcome is success
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{Outcome: idempotentOutcome}
}

// SuccessDecision creates a DecisionResult with the events to append in one atomic operation.
func SuccessDecision(events ...DomainEvent) DecisionResult {
	return DecisionResult{Outcome: successOutcome, Events: events}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation. Nothing is appended.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{Outcome: errorOutcome, Err: err}
}

// HasEventsToAppend returns true if there are events to append to the event store.
func (r DecisionResult) HasEventsToAppend() bool {
	return r.Outcome == successOutcome && len(r.Events) > 0
}

// IsIdempotent reports whether the decision was a no-op.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
