// Package core contains the lending domain: items members list for lending, requests other members
// submit to obtain them, the domain events recording both, and the error taxonomy of the workflow.
//
// The Item Ledger and the Request Store are projections of the event history. A Session replays a
// queried history into both and records the events of one decision, so a create or resolve operation
// yields a single batch of events that is appended atomically.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
