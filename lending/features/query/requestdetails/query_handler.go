package requestdetails

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

func (h QueryHandler) Handle(ctx context.Context, query Query) (core.Request, error) {
	return observable.Query(ctx, h.obs, query.QueryType(), func(ctx context.Context) (core.Request, error) {
		storableEvents, _, err := h.eventStore.Query(eventstore.WithEventualConsistency(ctx), BuildEventFilter(query.RequestID))
		if err != nil {
			return core.Request{}, core.NewInfrastructureError(err)
		}

		history, err := shell.DomainEventsFrom(storableEvents)
		if err != nil {
			return core.Request{}, core.NewInfrastructureError(err)
		}

		return Project(history, query)
	})
}
