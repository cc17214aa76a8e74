package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"coronabot/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncRemoteQueries(table string, outcome string)
	ObserveRemoteQueryDuration(table string, duration time.Duration)
	IncFeedCycles(outcome string)
	IncNotificationsSent()
	IncLockForcedReleases()
	ObservePersistenceDuration(duration time.Duration)
	SetSubscriptionsTotal(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	remoteQueries       *prometheus.CounterVec
	remoteQueryDuration *prometheus.HistogramVec
	feedCycles          *prometheus.CounterVec
	notificationsSent   prometheus.Counter
	lockForcedReleases  prometheus.Counter
	persistenceDuration prometheus.Histogram
	subscriptionsTotal  prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncRemoteQueries(table string, outcome string) {
	m.remoteQueries.WithLabelValues(table, outcome).Inc()
}

func (m *MetricsProvider) ObserveRemoteQueryDuration(table string, duration time.Duration) {
	m.remoteQueryDuration.WithLabelValues(table).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncFeedCycles(outcome string) {
	m.feedCycles.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncNotificationsSent() {
	m.notificationsSent.Inc()
}

func (m *MetricsProvider) IncLockForcedReleases() {
	m.lockForcedReleases.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetSubscriptionsTotal(count int) {
	m.subscriptionsTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coronabot_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coronabot_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coronabot_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coronabot_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		remoteQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coronabot_remote_queries_total",
			Help: "Total number of statistics API queries",
		}, []string{"table", "outcome"}),

		remoteQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coronabot_remote_query_duration_seconds",
			Help:    "Statistics API query duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),

		feedCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coronabot_feed_cycles_total",
			Help: "Total number of reconcile cycles",
		}, []string{"outcome"}),

		notificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coronabot_notifications_sent_total",
			Help: "Total number of subscription notifications delivered",
		}),

		lockForcedReleases: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coronabot_lock_forced_releases_total",
			Help: "Times the store lock was forcibly released after a timeout",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coronabot_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		subscriptionsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "coronabot_subscriptions_total",
			Help: "Total number of active subscriptions across guilds",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                      {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)      {}
func (n *noopMetrics) IncCacheHits()                                         {}
func (n *noopMetrics) IncCacheMisses()                                       {}
func (n *noopMetrics) IncRemoteQueries(_ string, _ string)                   {}
func (n *noopMetrics) ObserveRemoteQueryDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) IncFeedCycles(_ string)                                {}
func (n *noopMetrics) IncNotificationsSent()                                 {}
func (n *noopMetrics) IncLockForcedReleases()                                {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)            {}
func (n *noopMetrics) SetSubscriptionsTotal(_ int)                           {}
