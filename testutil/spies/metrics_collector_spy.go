package spies

import (
	"sync"
	"time"

	"github.com/caxton-systems/library-catalog-go/library"
)

// DurationSample is one captured RecordDuration call.
type DurationSample struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

// CounterSample is one captured IncrementCounter call.
type CounterSample struct {
	Metric string
	Labels map[string]string
}

// MetricsCollectorSpy captures every metrics call for inspection.
// Safe for concurrent use.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []DurationSample
	counters  []CounterSample
	values    map[string]float64
}

var _ library.MetricsCollector = (*MetricsCollectorSpy)(nil)

// NewMetricsCollectorSpy creates an empty metrics spy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{
		durations: make([]DurationSample, 0),
		counters:  make([]CounterSample, 0),
		values:    make(map[string]float64),
	}
}

// RecordDuration implements library.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, DurationSample{Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter implements library.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, CounterSample{Metric: metric, Labels: labels})
}

// RecordValue implements library.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[metric] = value
}

// Durations returns a copy of the captured duration samples.
func (s *MetricsCollectorSpy) Durations() []DurationSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	durations := make([]DurationSample, len(s.durations))
	copy(durations, s.durations)

	return durations
}

// CounterIncrements returns how often the given counter was incremented.
func (s *MetricsCollectorSpy) CounterIncrements(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, sample := range s.counters {
		if sample.Metric == metric {
			count++
		}
	}

	return count
}

// HasDurationWithLabel reports whether a duration sample for the metric
// carries the given label value.
func (s *MetricsCollectorSpy) HasDurationWithLabel(metric, labelKey, labelValue string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sample := range s.durations {
		if sample.Metric == metric && sample.Labels[labelKey] == labelValue {
			return true
		}
	}

	return false
}

// Reset clears everything the spy has captured.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = s.durations[:0]
	s.counters = s.counters[:0]
	s.values = make(map[string]float64)
}
