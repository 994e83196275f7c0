package ownerinbox

import (
	"context"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/observable"
)

// QueryHandler finds the items the owner was asked for and reads all their request events.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	obs        shell.Observability
}

func NewQueryHandler(eventStore shell.QueriesEvents, obs shell.Observability) QueryHandler {
	return QueryHandler{eventStore: eventStore, obs: obs}
}

func (h QueryHandler) Handle(ctx context.Context, query Query) (Inbox, error) {
	return observable.Query(ctx, h.obs, query.QueryType(), func(ctx context.Context) (Inbox, error) {
		ctx = eventstore.WithEventualConsistency(ctx)

		requested, maxSequenceNumber, err := h.load(ctx, BuildRequestedFilter(query.OwnerID))
		if err != nil {
			return Inbox{}, err
		}

		itemIDs := requestedItemIDs(requested)
		if len(itemIDs) == 0 {
			return Project(nil, query, maxSequenceNumber), nil
		}

		history, maxSequenceNumber, err := h.load(ctx, BuildEventFilter(itemIDs))
		if err != nil {
			return Inbox{}, err
		}

		return Project(history, query, maxSequenceNumber), nil
	})
}

func (h QueryHandler) load(ctx context.Context, filter eventstore.Filter) (core.DomainEvents, uint, error) {
	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return nil, 0, core.NewInfrastructureError(err)
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, core.NewInfrastructureError(err)
	}

	return history, maxSequenceNumber, nil
}
