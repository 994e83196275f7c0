// Package testdoubles provides spies for the observability interfaces of the event store,
// which the lending handlers share:
//   - MetricsCollectorSpy records durations, counters and values
//   - TracingCollectorSpy records spans with their start and end attributes
//   - ContextualLoggerSpy records log calls per level
package testdoubles
