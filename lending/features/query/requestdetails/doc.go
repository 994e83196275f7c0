// Package requestdetails implements the Request Details query. A request is visible to its
// requester and to the owner of the requested item only.
package requestdetails
