package itemdetails

import (
	"context"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/observable"
)

// QueryHandler runs Query -> Unmarshal -> Project.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	obs        shell.Observability
}

func NewQueryHandler(eventStore shell.QueriesEvents, obs shell.Observability) QueryHandler {
	return QueryHandler{eventStore: eventStore, obs: obs}
}

func (h QueryHandler) Handle(ctx context.Context, query Query) (ItemDetails, error) {
	return observable.Query(ctx, h.obs, query.QueryType(), func(ctx context.Context) (ItemDetails, error) {
		storableEvents, maxSequenceNumber, err := h.eventStore.Query(eventstore.WithEventualConsistency(ctx), BuildEventFilter(query.ItemID))
		if err != nil {
			return ItemDetails{}, core.NewInfrastructureError(err)
		}

		history, err := shell.DomainEventsFrom(storableEvents)
		if err != nil {
			return ItemDetails{}, core.NewInfrastructureError(err)
		}

		return Project(history, query, maxSequenceNumber)
	})
}
