package transition

import (
	"context"
	"errors"
	"slices"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/observable"
)

// maxScopeWidenings bounds how often the resolve boundary is re-queried while new sibling requests show up.
// A boundary that is still moving after that is treated like a concurrency conflict and retried.
const maxScopeWidenings = 4

// Engine orchestrates the creation and resolution of lending requests.
// It handles the event sourcing workflow Query -> Unmarshal -> Decide -> Append with retry;
// command observability is added around it by observable.Command.
type Engine struct {
	eventStore   shell.EventStore
	retryOptions []shell.RetryOption
	obs          shell.Observability
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetryOptions sets a custom retry configuration.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(e *Engine) {
		e.retryOptions = opts
	}
}

// WithObservability sets the logger, metrics and tracing used for command handling.
func WithObservability(obs shell.Observability) Option {
	return func(e *Engine) {
		e.obs = obs
	}
}

// NewEngine creates an Engine on top of eventStore.
func NewEngine(eventStore shell.EventStore, opts ...Option) *Engine {
	engine := &Engine{eventStore: eventStore}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// CreateRequest creates a pending request and marks the requested and an offered item as pending, atomically.
func (e *Engine) CreateRequest(ctx context.Context, command CreateRequestCommand) (core.Request, shell.HandlerResult, error) {
	return observable.Command(ctx, e.obs, command.CommandType(),
		func(ctx context.Context) (core.Request, shell.HandlerResult, error) {
			return e.handle(ctx, command.CommandType(), func(ctx context.Context) (core.Request, bool, error) {
				return e.executeCreate(ctx, command)
			})
		},
	)
}

// ResolveRequest approves or rejects a pending request, including the cascade, atomically.
func (e *Engine) ResolveRequest(ctx context.Context, command ResolveRequestCommand) (core.Request, shell.HandlerResult, error) {
	return observable.Command(ctx, e.obs, command.CommandType(),
		func(ctx context.Context) (core.Request, shell.HandlerResult, error) {
			return e.handle(ctx, command.CommandType(), func(ctx context.Context) (core.Request, bool, error) {
				return e.executeResolve(ctx, command)
			})
		},
	)
}

// handle runs execute with retry on concurrency conflicts. Business errors are returned as they are,
// everything else leaves the engine as infrastructure error.
func (e *Engine) handle(
	ctx context.Context,
	commandType string,
	execute func(ctx context.Context) (core.Request, bool, error),
) (core.Request, shell.HandlerResult, error) {

	var request core.Request
	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		r, idempotent, execErr := execute(retryCtx)
		request, isIdempotent = r, idempotent

		return execErr
	}, e.retryOptionsFor(commandType)...)

	if err != nil {
		return core.Request{}, shell.NewErrorResult(retryMetrics), asWorkflowError(err)
	}

	if isIdempotent {
		return request, shell.NewIdempotentResult(retryMetrics), nil
	}

	return request, shell.NewSuccessResult(retryMetrics), nil
}

func (e *Engine) executeCreate(ctx context.Context, command CreateRequestCommand) (core.Request, bool, error) {
	ctx = eventstore.WithStrongConsistency(ctx)
	filter := BuildCreateRequestFilter(command)

	s, maxSequenceNumber, err := e.load(ctx, filter)
	if err != nil {
		return core.Request{}, false, err
	}

	request, result := DecideCreate(s, command)

	return e.commit(ctx, filter, maxSequenceNumber, command.RequestID, request, result)
}

func (e *Engine) executeResolve(ctx context.Context, command ResolveRequestCommand) (core.Request, bool, error) {
	ctx = eventstore.WithStrongConsistency(ctx)

	s, filter, maxSequenceNumber, err := e.loadResolveScope(ctx, command.RequestID)
	if err != nil {
		return core.Request{}, false, err
	}

	request, result := DecideResolve(s, command)

	return e.commit(ctx, filter, maxSequenceNumber, command.RequestID, request, result)
}

// loadResolveScope finds the request and widens the boundary to everything its resolution may touch,
// until a query returns no further items.
func (e *Engine) loadResolveScope(ctx context.Context, requestID core.RequestIDString) (
	*core.Session,
	eventstore.Filter,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	filter := BuildRequestLookupFilter(requestID)

	s, maxSequenceNumber, err := e.load(ctx, filter)
	if err != nil {
		return nil, eventstore.Filter{}, 0, err
	}

	scope := resolveScope(s, requestID)
	if len(scope) == 0 {
		return s, filter, maxSequenceNumber, nil // not found, decided as such
	}

	for range maxScopeWidenings {
		filter = buildScopeFilter(scope)

		s, maxSequenceNumber, err = e.load(ctx, filter)
		if err != nil {
			return nil, eventstore.Filter{}, 0, err
		}

		widened := resolveScope(s, requestID)
		if slices.Equal(widened, scope) {
			return s, filter, maxSequenceNumber, nil
		}

		scope = widened
	}

	return nil, eventstore.Filter{}, 0, eventstore.ErrConcurrencyConflict
}

func (e *Engine) load(ctx context.Context, filter eventstore.Filter) (*core.Session, eventstore.MaxSequenceNumberUint, error) {
	storableEvents, maxSequenceNumber, err := e.eventStore.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, err
	}

	return core.NewSession(history), maxSequenceNumber, nil
}

// commit appends the events of a successful decision in one conditional append.
func (e *Engine) commit(
	ctx context.Context,
	filter eventstore.Filter,
	maxSequenceNumber eventstore.MaxSequenceNumberUint,
	causationID shell.CausationID,
	request core.Request,
	result core.DecisionResult,
) (core.Request, bool, error) {

	if err := result.HasError(); err != nil {
		return core.Request{}, false, err
	}

	if !result.HasEventsToAppend() {
		return request, true, nil
	}

	storableEvents, err := shell.StorableEventsFrom(result.Events, func() shell.EventMetadata {
		return shell.BuildEventMetadata(ctx, causationID)
	})
	if err != nil {
		return core.Request{}, false, err
	}

	if err := e.eventStore.Append(ctx, filter, maxSequenceNumber, storableEvents...); err != nil {
		return core.Request{}, false, err
	}

	return request, false, nil
}

func (e *Engine) retryOptionsFor(commandType string) []shell.RetryOption {
	if e.obs.Metrics == nil {
		return e.retryOptions
	}

	return append(slices.Clone(e.retryOptions), shell.WithMetrics(e.obs.Metrics, commandType))
}

func asWorkflowError(err error) error {
	var businessErr *core.BusinessError
	if errors.As(err, &businessErr) {
		return err
	}

	return core.NewInfrastructureError(err)
}
