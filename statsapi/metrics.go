package statsapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_statsapi_requests",
	Help: "Number of requests made to the stats API, by endpoint and outcome",
}, []string{"endpoint", "outcome"})

var scheduleCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wade_statsapi_schedule_cache_hits",
	Help: "Number of schedule lookups served from cache",
})

var scheduleCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wade_statsapi_schedule_cache_misses",
	Help: "Number of schedule lookups which went to the API",
})

var breakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "wade_statsapi_breaker_open",
	Help: "1 while the stats API circuit breaker is open",
})
