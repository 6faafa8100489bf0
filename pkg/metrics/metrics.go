package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API 调用延迟（秒），客户端视角
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm_api_call_duration_seconds",
			Help:    "Project service API call latency seen by the client",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "endpoint", "status"},
	)

	// Store 操作计数
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_store_operations_total",
			Help: "Client store operations by outcome",
		},
		[]string{"store", "operation", "result"}, // result: success, failure
	)

	// 熔断器状态变化
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	// HTTP 请求延迟（秒），服务端视角
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Queries slower than the configured threshold",
		},
	)

	// 缓存命中
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_cache_lookups_total",
			Help: "Project detail cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	// 事件发布计数
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published to the broker",
		},
		[]string{"routing_key", "status"},
	)
)

// RecordAPICall 记录客户端 API 调用延迟
func RecordAPICall(method, endpoint, status string, duration time.Duration) {
	APICallDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// IncrementStoreOperation 增加 store 操作计数
func IncrementStoreOperation(store, operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StoreOperations.WithLabelValues(store, operation, result).Inc()
}

// RecordBreakerTransition 记录熔断器状态变化
func RecordBreakerTransition(from, to string) {
	BreakerTransitions.WithLabelValues(from, to).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// IncrementCacheLookup 增加缓存查询计数
func IncrementCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// IncrementEventPublished 增加事件发布计数
func IncrementEventPublished(routingKey string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	EventsPublished.WithLabelValues(routingKey, status).Inc()
}
