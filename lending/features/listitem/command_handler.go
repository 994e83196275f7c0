package listitem

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/observable"
)

// CommandHandler runs Query -> Decide -> Append for ListItem commands, with retry.
type CommandHandler struct {
	eventStore   shell.EventStore
	retryOptions []shell.RetryOption
	obs          shell.Observability
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithObservability sets the logger, metrics and tracing used for command handling.
func WithObservability(obs shell.Observability) Option {
	return func(h *CommandHandler) {
		h.obs = obs
	}
}

func NewCommandHandler(eventStore shell.EventStore, opts ...Option) CommandHandler {
	handler := CommandHandler{eventStore: eventStore}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle lists the item and returns it as the Item Ledger sees it.
func (h CommandHandler) Handle(ctx context.Context, command Command) (core.Item, shell.HandlerResult, error) {
	return observable.Command(ctx, h.obs, command.CommandType(),
		func(ctx context.Context) (core.Item, shell.HandlerResult, error) {
			var item core.Item
			var isIdempotent bool

			retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
				listed, idempotent, execErr := h.executeCommand(retryCtx, command)
				item, isIdempotent = listed, idempotent

				return execErr
			}, h.retryOptions...)

			if err != nil {
				var businessErr *core.BusinessError
				if !errors.As(err, &businessErr) {
					err = core.NewInfrastructureError(err)
				}

				return core.Item{}, shell.NewErrorResult(retryMetrics), err
			}

			if isIdempotent {
				return item, shell.NewIdempotentResult(retryMetrics), nil
			}

			return item, shell.NewSuccessResult(retryMetrics), nil
		},
	)
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.Item, bool, error) {
	filter := BuildEventFilter(command.ItemID)
	ctx = eventstore.WithStrongConsistency(ctx)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return core.Item{}, false, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return core.Item{}, false, err
	}

	item, result := Decide(core.NewSession(history), command)

	if err := result.HasError(); err != nil {
		return core.Item{}, false, err
	}

	if !result.HasEventsToAppend() {
		return item, true, nil
	}

	storableEvents, err = shell.StorableEventsFrom(result.Events, func() shell.EventMetadata {
		return shell.BuildEventMetadata(ctx, command.ItemID)
	})
	if err != nil {
		return core.Item{}, false, err
	}

	if err := h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEvents...); err != nil {
		return core.Item{}, false, err
	}

	return item, false, nil
}

// BuildEventFilter selects the events of one item.
func BuildEventFilter(itemID core.ItemIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ItemListedEventType, core.ItemStatusChangedEventType).
		AndAnyPredicateOf(eventstore.P("ItemID", itemID)).
		Finalize()
}
