// Package shell is the imperative shell around the lending core: it maps domain events to and from
// storable events, carries event metadata, retries decisions on concurrency conflicts, and holds the
// observability helpers shared by all command and query handlers.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
