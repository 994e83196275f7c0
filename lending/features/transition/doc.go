// Package transition is the Transition Engine of the lending workflow: it creates lending requests
// and resolves them, including the cascade that rejects sibling requests when one is approved.
//
// Each operation queries a dynamic consistency boundary (the events of all items and requests it
// touches), decides purely on a core.Session projected from them, and appends everything the
// decision recorded in one conditional append. Concurrent writers to the same boundary make the
// append fail with eventstore.ErrConcurrencyConflict, which is retried with exponential backoff.
package transition
