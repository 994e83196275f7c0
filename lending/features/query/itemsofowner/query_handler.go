package itemsofowner

import (
	"context"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell/observable"
)

// QueryHandler finds the owner's items first and then reads their full history.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	obs        shell.Observability
}

func NewQueryHandler(eventStore shell.QueriesEvents, obs shell.Observability) QueryHandler {
	return QueryHandler{eventStore: eventStore, obs: obs}
}

func (h QueryHandler) Handle(ctx context.Context, query Query) (Items, error) {
	return observable.Query(ctx, h.obs, query.QueryType(), func(ctx context.Context) (Items, error) {
		ctx = eventstore.WithEventualConsistency(ctx)

		listings, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildListingFilter(query.OwnerID))
		if err != nil {
			return Items{}, core.NewInfrastructureError(err)
		}

		if len(listings) == 0 {
			return Items{Items: []core.Item{}, SequenceNumber: maxSequenceNumber}, nil
		}

		itemIDs, err := itemIDsOf(listings)
		if err != nil {
			return Items{}, core.NewInfrastructureError(err)
		}

		storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildEventFilter(itemIDs))
		if err != nil {
			return Items{}, core.NewInfrastructureError(err)
		}

		history, err := shell.DomainEventsFrom(storableEvents)
		if err != nil {
			return Items{}, core.NewInfrastructureError(err)
		}

		return Project(history, query, maxSequenceNumber), nil
	})
}

func itemIDsOf(listings eventstore.StorableEvents) ([]core.ItemIDString, error) {
	events, err := shell.DomainEventsFrom(listings)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]core.ItemIDString, 0, len(events))
	for _, event := range events {
		if listed, ok := event.(core.ItemListed); ok {
			itemIDs = append(itemIDs, listed.ItemID)
		}
	}

	return itemIDs, nil
}
