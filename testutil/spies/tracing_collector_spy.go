package spies

import (
	"context"
	"sync"

	"github.com/caxton-systems/library-catalog-go/library"
)

// SpanRecord is one span observed by the TracingCollectorSpy.
type SpanRecord struct {
	Name       string
	StartAttrs map[string]string
	EndAttrs   map[string]string
	Status     string
	Finished   bool
}

// SpanContextSpy implements library.SpanContext and records what was set
// on it.
type SpanContextSpy struct {
	mu     sync.Mutex
	status string
	attrs  map[string]string
}

var _ library.SpanContext = (*SpanContextSpy)(nil)

// SetStatus implements library.SpanContext.
func (s *SpanContextSpy) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// AddAttribute implements library.SpanContext.
func (s *SpanContextSpy) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}

	s.attrs[key] = value
}

// TracingCollectorSpy captures every span for inspection.
// Safe for concurrent use.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*spanState
}

type spanState struct {
	record  SpanRecord
	context *SpanContextSpy
}

var _ library.TracingCollector = (*TracingCollectorSpy)(nil)

// NewTracingCollectorSpy creates an empty tracing spy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{spans: make([]*spanState, 0)}
}

// StartSpan implements library.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, library.SpanContext) {

	s.mu.Lock()
	defer s.mu.Unlock()

	state := &spanState{
		record:  SpanRecord{Name: name, StartAttrs: attrs},
		context: &SpanContextSpy{},
	}
	s.spans = append(s.spans, state)

	return ctx, state.context
}

// FinishSpan implements library.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx library.SpanContext, status string, attrs map[string]string) {
	spy, ok := spanCtx.(*SpanContextSpy)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, state := range s.spans {
		if state.context != spy {
			continue
		}

		state.record.Finished = true
		state.record.Status = status
		state.record.EndAttrs = attrs

		return
	}
}

// Spans returns a copy of all observed span records.
func (s *TracingCollectorSpy) Spans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpanRecord, 0, len(s.spans))
	for _, state := range s.spans {
		records = append(records, state.record)
	}

	return records
}

// FinishedSpan returns the first finished span with the given name.
func (s *TracingCollectorSpy) FinishedSpan(name string) (SpanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, state := range s.spans {
		if state.record.Name == name && state.record.Finished {
			return state.record, true
		}
	}

	return SpanRecord{}, false
}
