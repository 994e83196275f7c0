package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/ownerinbox"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/transition"
)

// createTransactionBody is the payload of POST /transactions. A client supplied requestId makes retries
// of the same call idempotent.
type createTransactionBody struct {
	RequestID       string `json:"requestId" validate:"omitempty,max=64,printascii"`
	RequestedItemID string `json:"requestedItemId" validate:"required,max=64"`
	OwnerID         string `json:"ownerId" validate:"required,max=64"`
	Mode            string `json:"mode" validate:"required,oneof=Free Exchange"`
	OfferedItemID   string `json:"offeredItemId" validate:"max=64"`
}

// resolveTransactionBody is the payload of PATCH /transactions/:id. The status is checked by the engine
// after the request and the actor, so it carries no validate tags.
type resolveTransactionBody struct {
	Status string `json:"status"`
}

// POST /transactions
func (s *Server) createTransaction(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var body createTransactionBody
	if err := c.Bind(&body); err != nil {
		return errMalformedBody(err)
	}

	if err := c.Validate(&body); err != nil {
		return err
	}

	requestID := body.RequestID
	if requestID == "" {
		requestID = newRequestID()
	}

	command, err := transition.BuildCreateRequestCommand(
		requestID,
		actor,
		body.RequestedItemID,
		body.OwnerID,
		body.Mode,
		body.OfferedItemID,
		s.now(),
	)
	if err != nil {
		return err
	}

	request, result, err := s.deps.Engine.CreateRequest(c.Request().Context(), command)
	if err != nil {
		return err
	}

	if result.Idempotent {
		return c.JSON(http.StatusOK, success("transaction already exists", toRequestResponse(request)))
	}

	return c.JSON(http.StatusCreated, success("transaction created", toRequestResponse(request)))
}

// PATCH /transactions/:id
func (s *Server) resolveTransaction(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var body resolveTransactionBody
	if err := c.Bind(&body); err != nil {
		return errMalformedBody(err)
	}

	command := transition.BuildResolveRequestCommand(c.Param("id"), actor, body.Status, s.now())

	request, _, err := s.deps.Engine.ResolveRequest(c.Request().Context(), command)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, success("transaction "+string(request.Status), toRequestResponse(request)))
}

// GET /transactions/:id
func (s *Server) transactionDetails(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	request, err := s.deps.RequestDetails.Handle(c.Request().Context(), requestdetails.BuildQuery(c.Param("id"), actor))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, success("transaction found", toRequestResponse(request)))
}

// GET /transactions/inbox
func (s *Server) ownerInbox(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	inbox, err := s.deps.OwnerInbox.Handle(c.Request().Context(), ownerinbox.BuildQuery(actor))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, success("pending transactions", requestsResponse{
		Requests: toRequestResponses(inbox.Requests),
		Count:    inbox.Count,
	}))
}
