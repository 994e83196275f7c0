package api

import (
	"time"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func success(message string, data any) envelope {
	return envelope{Success: true, Message: message, Data: data}
}

func failure(message string, fields []fieldError) envelope {
	return envelope{Success: false, Message: message, Errors: fields}
}

type requestResponse struct {
	ID              string    `json:"id"`
	RequesterID     string    `json:"requesterId"`
	RequestedItemID string    `json:"requestedItemId"`
	OwnerID         string    `json:"ownerId"`
	Mode            string    `json:"mode"`
	OfferedItemID   string    `json:"offeredItemId,omitempty"`
	Status          string    `json:"status"`
	ResolvedBy      string    `json:"resolvedBy,omitempty"`
	Cascaded        bool      `json:"cascaded,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toRequestResponse(r core.Request) requestResponse {
	return requestResponse{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		RequestedItemID: r.RequestedItemID,
		OwnerID:         r.OwnerID,
		Mode:            string(r.Mode),
		OfferedItemID:   r.OfferedItemID,
		Status:          string(r.Status),
		ResolvedBy:      r.ResolvedBy,
		Cascaded:        r.Cascaded,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toRequestResponses(requests []core.Request) []requestResponse {
	out := make([]requestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toRequestResponse(r))
	}

	return out
}

type itemResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Mode      string    `json:"availabilityMode"`
	Status    string    `json:"status"`
	ListedAt  time.Time `json:"listedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toItemResponse(i core.Item) itemResponse {
	return itemResponse{
		ID:        i.ID,
		OwnerID:   i.OwnerID,
		Title:     i.Title,
		Author:    i.Author,
		Mode:      string(i.Mode),
		Status:    string(i.Status),
		ListedAt:  i.ListedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

type itemsResponse struct {
	Items []itemResponse `json:"items"`
	Count int            `json:"count"`
}

type requestsResponse struct {
	Requests []requestResponse `json:"requests"`
	Count    int               `json:"count"`
}
