package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dialboard/backend/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Sync metrics
	SyncRunsTotal    int64
	SyncErrorsTotal  int64
	lastSyncDuration time.Duration

	// Pipeline metrics
	RowsProcessedTotal int64
	RowsRejectedTotal  int64

	// Cache metrics
	CacheHitsTotal      int64
	CacheMissesTotal    int64
	CacheEvictionsTotal int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	activeConnections            int64

	// Operator distribution
	operatorsByTrend map[types.Trend]int
	totalOperators   int

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			operatorsByTrend:     make(map[types.Trend]int),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordSyncRun records one completed sync run
func (m *Metrics) RecordSyncRun(duration time.Duration, errored bool) {
	m.mu.Lock()
	m.SyncRunsTotal++
	if errored {
		m.SyncErrorsTotal++
	}
	m.lastSyncDuration = duration
	m.mu.Unlock()
}

// RecordRowsProcessed adds to the processed and rejected row counters
func (m *Metrics) RecordRowsProcessed(processed, rejected int) {
	m.mu.Lock()
	m.RowsProcessedTotal += int64(processed)
	m.RowsRejectedTotal += int64(rejected)
	m.mu.Unlock()
}

// RecordCacheHit increments the cache hit counter
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	m.CacheHitsTotal++
	m.mu.Unlock()
}

// RecordCacheMiss increments the cache miss counter
func (m *Metrics) RecordCacheMiss() {
	m.mu.Lock()
	m.CacheMissesTotal++
	m.mu.Unlock()
}

// RecordCacheEvictions adds to the cache eviction counter
func (m *Metrics) RecordCacheEvictions(count int) {
	m.mu.Lock()
	m.CacheEvictionsTotal += int64(count)
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// UpdateOperatorStats updates operator distribution metrics
func (m *Metrics) UpdateOperatorStats(operators []types.OperatorMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Reset counts
	m.operatorsByTrend = make(map[types.Trend]int)
	m.totalOperators = len(operators)

	for _, op := range operators {
		m.operatorsByTrend[op.Trend]++
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("dialboard_uptime_seconds", time.Since(m.startTime).Seconds())

		// Sync metrics
		write("dialboard_sync_runs_total", m.SyncRunsTotal)
		write("dialboard_sync_errors_total", m.SyncErrorsTotal)
		write("dialboard_sync_duration_seconds", m.lastSyncDuration.Seconds())

		// Pipeline metrics
		write("dialboard_rows_processed_total", m.RowsProcessedTotal)
		write("dialboard_rows_rejected_total", m.RowsRejectedTotal)

		// Cache metrics
		write("dialboard_cache_hits_total", m.CacheHitsTotal)
		write("dialboard_cache_misses_total", m.CacheMissesTotal)
		write("dialboard_cache_evictions_total", m.CacheEvictionsTotal)

		// WebSocket metrics
		write("dialboard_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("dialboard_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("dialboard_websocket_active_connections", m.activeConnections)

		// Operator metrics
		write("dialboard_operators_total", m.totalOperators)

		// Operators by trend
		for trend, count := range m.operatorsByTrend {
			write("dialboard_operators_by_trend", count, "trend", string(trend))
		}

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("dialboard_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
