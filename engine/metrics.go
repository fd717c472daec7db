package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wade/engine")

var pollCycles = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wade_poll_cycles",
	Help: "Number of feed poll cycles run",
})

var pollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_poll_errors",
	Help: "Number of poll cycle failures, by stage",
}, []string{"stage"})

var playsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_plays_processed",
	Help: "Number of plays classified, by decision reason",
}, []string{"reason"})

var playsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_plays_skipped",
	Help: "Number of plays skipped before classification",
}, []string{"why"})

var postsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_posts_published",
	Help: "Number of posts published",
}, []string{"kind"})

var postsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_posts_failed",
	Help: "Number of posts which failed to compose or publish",
}, []string{"stage"})

var postsRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wade_posts_rate_limited",
	Help: "Number of eligible posts denied by the rate limiter",
}, []string{"kind"})

var invariantViolations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wade_invariant_violations",
	Help: "Number of internal consistency checks which failed",
})

var droughtCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "wade_drought_plate_appearances",
	Help: "Current count of consecutive uneventful subject plate appearances",
})

var lastBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "wade_last_batch_size",
	Help: "Number of plays in the most recently fetched batch",
})
