package observability

import (
	"sync"
	"time"
)

// Metrics keeps process-local request counters. No exporter; the snapshot
// is served on the debug route and folded into request logs.
type Metrics struct {
	mu sync.Mutex

	apiRequests map[string]int64
	apiErrors   int64
	apiTotal    int64

	llmRequests  int64
	llmFailures  int64
	llmLatencyMS int64

	scanRequests int64
	scanFailures int64
}

func NewMetrics() *Metrics {
	return &Metrics{apiRequests: map[string]int64{}}
}

// ObserveAPI records one finished HTTP request.
func (m *Metrics) ObserveAPI(method, route, status string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiTotal++
	m.apiRequests[method+" "+route+" "+status]++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.apiErrors++
	}
}

// ObserveLLM records one text-generation collaborator call.
func (m *Metrics) ObserveLLM(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.llmRequests++
	m.llmLatencyMS += duration.Milliseconds()
	if err != nil {
		m.llmFailures++
	}
}

// ObserveScan records one static-analysis collaborator invocation.
func (m *Metrics) ObserveScan(err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanRequests++
	if err != nil {
		m.scanFailures++
	}
}

// Snapshot returns a copy of all counters for the debug endpoint.
func (m *Metrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byRoute := make(map[string]int64, len(m.apiRequests))
	for k, v := range m.apiRequests {
		byRoute[k] = v
	}

	return map[string]any{
		"api_requests_total":  m.apiTotal,
		"api_requests_errors": m.apiErrors,
		"api_requests":        byRoute,
		"llm_requests_total":  m.llmRequests,
		"llm_failures_total":  m.llmFailures,
		"llm_latency_ms_sum":  m.llmLatencyMS,
		"scan_requests_total": m.scanRequests,
		"scan_failures_total": m.scanFailures,
	}
}
