package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"action"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_matches_total",
			Help: "Total number of matches created",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	recommendationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_recommendation_latency_seconds",
			Help:    "Latency of building a recommendation list on cache miss",
			Buckets: prometheus.DefBuckets,
		},
	)

	candidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_candidates_returned",
			Help:    "Number of candidates returned per request",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

func recordSwipe(action SwipeAction) {
	swipesTotal.WithLabelValues(string(action)).Inc()
}

func recordMatchCreated() {
	matchesTotal.Inc()
}

func recordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
	} else {
		cacheLookups.WithLabelValues("miss").Inc()
	}
}

func recordRecommendationLatency(d time.Duration) {
	recommendationLatency.Observe(d.Seconds())
}

func recordCandidatesReturned(n int) {
	candidatesReturned.Observe(float64(n))
}
