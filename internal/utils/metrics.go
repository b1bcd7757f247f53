// internal/utils/metrics.go
package utils

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector keeps in-process counters, gauges and histograms.
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values.
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// IncrementCounter adds one to a counter.
func (m *MetricsCollector) IncrementCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds value to a counter.
func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.slot(m.counters, name), value)
}

// SetGauge sets a gauge.
func (m *MetricsCollector) SetGauge(name string, value int64) {
	atomic.StoreInt64(m.slot(m.gauges, name), value)
}

// GetCounterValue returns a counter, or zero if it was never touched.
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	return m.load(m.counters, name)
}

// GetGauge returns a gauge, or zero if it was never set.
func (m *MetricsCollector) GetGauge(name string) int64 {
	return m.load(m.gauges, name)
}

// RecordHistogram records one observation.
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	histogram, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		histogram, exists = m.histograms[name]
		if !exists {
			histogram = &Histogram{min: value, max: value}
			m.histograms[name] = histogram
		}
		m.mu.Unlock()
	}

	histogram.mu.Lock()
	defer histogram.mu.Unlock()
	histogram.count++
	histogram.sum += value
	if value < histogram.min {
		histogram.min = value
	}
	if value > histogram.max {
		histogram.max = value
	}
}

// GetMetrics returns a snapshot of every metric.
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, value := range m.counters {
		counters[name] = atomic.LoadInt64(value)
	}
	gauges := make(map[string]int64, len(m.gauges))
	for name, value := range m.gauges {
		gauges[name] = atomic.LoadInt64(value)
	}
	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, histogram := range m.histograms {
		histogram.mu.Lock()
		histograms[name] = map[string]int64{
			"count": histogram.count,
			"sum":   histogram.sum,
			"min":   histogram.min,
			"max":   histogram.max,
		}
		histogram.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// slot returns the value cell for name, creating it on first use.
func (m *MetricsCollector) slot(values map[string]*int64, name string) *int64 {
	m.mu.RLock()
	value, exists := values[name]
	m.mu.RUnlock()
	if exists {
		return value
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if value, exists = values[name]; !exists {
		value = new(int64)
		values[name] = value
	}
	return value
}

func (m *MetricsCollector) load(values map[string]*int64, name string) int64 {
	m.mu.RLock()
	value, exists := values[name]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(value)
}

// APIMetrics names the metrics recorded by the HTTP layer.
type APIMetrics struct {
	*MetricsCollector
}

// NewAPIMetrics creates API metrics over a fresh collector.
func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{MetricsCollector: NewMetricsCollector()}
}

// RecordAPIRequest counts a finished request by route and status class and
// records its latency.
func (am *APIMetrics) RecordAPIRequest(route, method string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	am.IncrementCounter("api_requests_total")
	am.IncrementCounter("api_requests " + method + " " + route)
	am.IncrementCounter("api_responses_" + strconv.Itoa(statusCode/100) + "xx")
	am.RecordHistogram("api_response_time_ms", duration.Milliseconds())
}

// RecordRehearsalAction counts a rehearsal command, whether it came over
// HTTP or a websocket.
func (am *APIMetrics) RecordRehearsalAction(action string) {
	am.IncrementCounter("rehearsal_actions_total")
	am.IncrementCounter("rehearsal_actions_" + action)
}
