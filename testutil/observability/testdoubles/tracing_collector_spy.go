package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

// SpanRecord is one started span. Status and EndAttributes are set when it is finished.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
}

// SpySpan is the SpanContext handed out by TracingCollectorSpy.
type SpySpan struct {
	spy   *TracingCollectorSpy
	index int
}

func (c *SpySpan) SetStatus(status string) {
	c.spy.update(c.index, func(r *SpanRecord) { r.Status = status })
}

func (c *SpySpan) AddAttribute(key, value string) {
	c.spy.update(c.index, func(r *SpanRecord) {
		if r.EndAttributes == nil {
			r.EndAttributes = make(map[string]string)
		}
		r.EndAttributes[key] = value
	})
}

// TracingCollectorSpy captures spans.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []SpanRecord
}

func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, SpanRecord{Name: name, StartAttributes: maps.Clone(attrs)})

	return ctx, &SpySpan{spy: s, index: len(s.spans) - 1}
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	s.update(span.index, func(r *SpanRecord) {
		r.Status = status
		r.EndAttributes = maps.Clone(attrs)
		r.Finished = true
	})
}

// Spans returns a copy of all span records in start order.
func (s *TracingCollectorSpy) Spans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpanRecord(nil), s.spans...)
}

// SpansNamed returns the span records with the given name.
func (s *TracingCollectorSpy) SpansNamed(name string) []SpanRecord {
	spans := make([]SpanRecord, 0)

	for _, span := range s.Spans() {
		if span.Name == name {
			spans = append(spans, span)
		}
	}

	return spans
}

func (s *TracingCollectorSpy) update(index int, fn func(*SpanRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.spans[index])
}

var _ eventstore.TracingCollector = (*TracingCollectorSpy)(nil)
