package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

// LogRecord is one recorded log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// Attr returns the value logged for key, if any.
func (r LogRecord) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// ContextualLoggerSpy captures log calls of all levels.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.add("debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.add("info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.add("warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.add("error", msg, args)
}

// Records returns a copy of all records.
func (s *ContextualLoggerSpy) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]LogRecord(nil), s.records...)
}

// HasRecord reports whether a record with level and message exists.
func (s *ContextualLoggerSpy) HasRecord(level, message string) bool {
	for _, r := range s.Records() {
		if r.Level == level && r.Message == message {
			return true
		}
	}

	return false
}

func (s *ContextualLoggerSpy) add(level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args})
}

var _ eventstore.ContextualLogger = (*ContextualLoggerSpy)(nil)
