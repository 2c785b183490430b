// Package observability holds the service's prometheus collectors.
package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_queries_total",
			Help: "Nearby queries by outcome.",
		},
		[]string{"outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parking_query_duration_seconds",
			Help:    "End to end duration of nearby queries, feed fetch included.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	matchRadiusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_match_radius_total",
			Help: "Radius of the ladder at which a query found facilities.",
		},
		[]string{"radius_km"},
	)

	feedFetchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Latency of live status feed fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"result"},
	)

	feedEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_entries",
			Help: "Number of facilities in the last fetched feed snapshot.",
		},
	)

	catalogFacilities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_facilities",
			Help: "Number of facilities in the active catalog snapshot.",
		},
	)

	catalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Catalog reload attempts by result.",
		},
		[]string{"result"},
	)

	reloadEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reload_events_total",
			Help: "Catalog reload events consumed from kafka by result.",
		},
		[]string{"result"},
	)

	redisOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)
)

var (
	mu      sync.Mutex
	enabled bool
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		queriesTotal, queryDurationSeconds, matchRadiusTotal,
		feedFetchDurationSeconds, feedEntries,
		catalogFacilities, catalogReloadsTotal, reloadEventsTotal,
		redisOpTotal, redisOpDurationSeconds,
	}
}

// Init registers the collectors on reg. Collectors keep counting when
// disabled, they are just not exported.
func Init(reg prometheus.Registerer, on bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
	if !on || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveQuery(outcome string, durationSeconds float64) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(durationSeconds)
}

func IncMatchRadius(km int) {
	matchRadiusTotal.WithLabelValues(strconv.Itoa(km)).Inc()
}

func ObserveFeedFetch(err error, entries int, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	} else {
		feedEntries.Set(float64(entries))
	}
	feedFetchDurationSeconds.WithLabelValues(res).Observe(durationSeconds)
}

func SetCatalogFacilities(n int) {
	catalogFacilities.Set(float64(n))
}

// IncCatalogReload result is one of loaded, unchanged, error.
func IncCatalogReload(result string) {
	catalogReloadsTotal.WithLabelValues(result).Inc()
}

func IncReloadEvent(result string) {
	reloadEventsTotal.WithLabelValues(result).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	redisOpTotal.WithLabelValues(op, res).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}
