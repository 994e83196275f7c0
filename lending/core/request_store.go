package core

import (
	"time"
)

// NewRequest holds what is needed to create a request. It has passed all checks of the Transition Engine.
type NewRequest struct {
	RequestID       RequestIDString
	RequesterID     MemberIDString
	RequestedItemID ItemIDString
	OwnerID         MemberIDString
	Mode            Mode
	OfferedItemID   ItemIDString
}

// Request is the Request Store's view of one lending request.
type Request struct {
	ID              RequestIDString
	RequesterID     MemberIDString
	RequestedItemID ItemIDString
	OwnerID         MemberIDString
	Mode            Mode
	OfferedItemID   ItemIDString
	Status          RequestStatus
	ResolvedBy      MemberIDString
	Cascaded        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasOfferedItem reports whether the request offers an item in exchange.
func (r Request) HasOfferedItem() bool {
	return r.OfferedItemID != ""
}

// References reports whether itemID is the requested or the offered item.
func (r Request) References(itemID ItemIDString) bool {
	return r.RequestedItemID == itemID || (r.HasOfferedItem() && r.OfferedItemID == itemID)
}

// RequestStore owns request records. It is pure data access without business rules.
type RequestStore struct {
	requests map[RequestIDString]*Request
	order    []RequestIDString
	record   func(DomainEvent)
}

func newRequestStore(record func(DomainEvent)) *RequestStore {
	return &RequestStore{
		requests: make(map[RequestIDString]*Request),
		record:   record,
	}
}

func (s *RequestStore) apply(event DomainEvent) {
	switch e := event.(type) {
	case LendingRequested:
		if _, exists := s.requests[e.RequestID]; exists {
			return
		}

		s.requests[e.RequestID] = &Request{
			ID:              e.RequestID,
			RequesterID:     e.RequesterID,
			RequestedItemID: e.RequestedItemID,
			OwnerID:         e.OwnerID,
			Mode:            e.Mode,
			OfferedItemID:   e.OfferedItemID,
			Status:          RequestPending,
			CreatedAt:       e.OccurredAt,
			UpdatedAt:       e.OccurredAt,
		}
		s.order = append(s.order, e.RequestID)

	case LendingRequestApproved:
		s.terminate(e.RequestID, RequestApproved, e.ResolvedBy, false, e.OccurredAt)

	case LendingRequestRejected:
		s.terminate(e.RequestID, RequestRejected, e.ResolvedBy, e.Cascaded, e.OccurredAt)
	}
}

func (s *RequestStore) terminate(id RequestIDString, status RequestStatus, by MemberIDString, cascaded bool, at time.Time) {
	r, ok := s.requests[id]
	if !ok || r.Status.IsTerminal() {
		return
	}

	r.Status = status
	r.ResolvedBy = by
	r.Cascaded = cascaded
	r.UpdatedAt = at
}

// Create records a new pending request.
func (s *RequestStore) Create(record NewRequest, at time.Time) (Request, error) {
	if _, exists := s.requests[record.RequestID]; exists {
		return Request{}, NewConflictError("request " + record.RequestID + " already exists")
	}

	s.record(BuildLendingRequested(record, at))

	return *s.requests[record.RequestID], nil
}

// Get returns the request or a NotFound error.
func (s *RequestStore) Get(requestID RequestIDString) (Request, error) {
	r, ok := s.requests[requestID]
	if !ok {
		return Request{}, NewNotFoundError("request " + requestID + " not found")
	}

	return *r, nil
}

// FindPendingByRequesterAndItem returns the pending request of requesterID for itemID, if there is one.
func (s *RequestStore) FindPendingByRequesterAndItem(requesterID MemberIDString, itemID ItemIDString) (Request, bool) {
	for _, id := range s.order {
		r := s.requests[id]
		if r.Status == RequestPending && r.RequesterID == requesterID && r.RequestedItemID == itemID {
			return *r, true
		}
	}

	return Request{}, false
}

// FindAllByRequestedItem returns every request for itemID in creation order.
func (s *RequestStore) FindAllByRequestedItem(itemID ItemIDString) []Request {
	return s.filter(func(r *Request) bool { return r.RequestedItemID == itemID })
}

// FindPendingByOwner returns the pending requests addressed to ownerID in creation order.
func (s *RequestStore) FindPendingByOwner(ownerID MemberIDString) []Request {
	return s.filter(func(r *Request) bool { return r.Status == RequestPending && r.OwnerID == ownerID })
}

// PendingReferencing returns the pending requests that reference itemID as requested or offered item.
func (s *RequestStore) PendingReferencing(itemID ItemIDString) []Request {
	return s.filter(func(r *Request) bool { return r.Status == RequestPending && r.References(itemID) })
}

// Resolve records the terminal status of a pending request.
func (s *RequestStore) Resolve(
	requestID RequestIDString,
	status RequestStatus,
	resolvedBy MemberIDString,
	cascaded bool,
	at time.Time,
) (Request, error) {

	r, err := s.Get(requestID)
	if err != nil {
		return Request{}, err
	}

	if r.Status.IsTerminal() {
		return Request{}, NewConflictError("request " + requestID + " is already resolved")
	}

	switch status {
	case RequestApproved:
		s.record(BuildLendingRequestApproved(r.ID, r.RequestedItemID, resolvedBy, at))
	case RequestRejected:
		s.record(BuildLendingRequestRejected(r.ID, r.RequestedItemID, resolvedBy, cascaded, at))
	default:
		return Request{}, NewFieldValidationError("status", "must be approved or rejected")
	}

	return *s.requests[requestID], nil
}

func (s *RequestStore) filter(keep func(*Request) bool) []Request {
	requests := make([]Request, 0)

	for _, id := range s.order {
		if r := s.requests[id]; keep(r) {
			requests = append(requests, *r)
		}
	}

	return requests
}
