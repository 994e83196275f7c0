package core

import (
	"time"
)

// Instead of full value objects, ids are alias types and validated at the edges.

// ItemIDString identifies an item.
type ItemIDString = string

// RequestIDString identifies a lending request.
type RequestIDString = string

// MemberIDString identifies a member (owner, requester, or resolving actor).
type MemberIDString = string

// OccurredAt represents when an event occurred.
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision.
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}
