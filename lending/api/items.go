package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/lending-workflow-go/lending/features/listitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemsofowner"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestsforitem"
)

type listItemBody struct {
	ItemID string `json:"itemId" validate:"omitempty,max=64,printascii"`
	Title  string `json:"title" validate:"required,max=200"`
	Author string `json:"author" validate:"max=200"`
	Mode   string `json:"mode" validate:"required,oneof=Free Exchange"`
}

// POST /items
func (s *Server) listItem(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var body listItemBody
	if err := c.Bind(&body); err != nil {
		return errMalformedBody(err)
	}

	if err := c.Validate(&body); err != nil {
		return err
	}

	itemID := body.ItemID
	if itemID == "" {
		itemID = newRequestID()
	}

	command, err := listitem.BuildCommand(itemID, actor, body.Title, body.Author, body.Mode, s.now())
	if err != nil {
		return err
	}

	item, result, err := s.deps.ListItem.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}

	if result.Idempotent {
		return c.JSON(http.StatusOK, success("item already listed", toItemResponse(item)))
	}

	return c.JSON(http.StatusCreated, success("item listed", toItemResponse(item)))
}

// GET /items/:id
func (s *Server) itemDetails(c echo.Context) error {
	details, err := s.deps.ItemDetails.Handle(c.Request().Context(), itemdetails.BuildQuery(c.Param("id")))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, success("item found", details))
}

// GET /items?owner=
func (s *Server) itemsOfOwner(c echo.Context) error {
	items, err := s.deps.ItemsOfOwner.Handle(c.Request().Context(), itemsofowner.BuildQuery(c.QueryParam("owner")))
	if err != nil {
		return err
	}

	out := make([]itemResponse, 0, len(items.Items))
	for _, item := range items.Items {
		out = append(out, toItemResponse(item))
	}

	return c.JSON(http.StatusOK, success("items", itemsResponse{Items: out, Count: items.Count}))
}

// GET /items/:id/transactions
func (s *Server) itemTransactions(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	query := requestsforitem.BuildQuery(c.Param("id"), actor)

	requests, err := s.deps.RequestsForItem.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, success("transactions for item", requestsResponse{
		Requests: toRequestResponses(requests.Requests),
		Count:    requests.Count,
	}))
}
