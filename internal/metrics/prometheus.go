// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the wellbeing backend.
var (
	// Counters.
	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_check_ins_total",
			Help: "Total number of daily check-ins recorded",
		},
		[]string{"status"},
	)

	GemsAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gems_awarded_total",
			Help: "Total number of gems awarded across all users",
		},
	)

	LevelUnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "level_unlocks_total",
			Help: "Total number of level unlocks",
		},
		[]string{"level"},
	)

	StreakResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_resets_total",
			Help: "Total number of streaks reset after a missed day",
		},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_recommendations_total",
			Help: "Total number of session recommendations by modality and outcome",
		},
		[]string{"modality", "outcome"}, // outcome: 'created', 'existing', 'conflict', 'error'
	)

	AvailabilityLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_lookups_total",
			Help: "Total number of therapist free-busy lookups",
		},
		[]string{"result"}, // 'free', 'busy', 'error', 'cache_hit'
	)

	// Gauges.
	ActiveRecommendations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_session_recommendations",
			Help: "Current number of open session recommendations",
		},
		[]string{"modality"},
	)

	// Histograms.
	CheckInDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "check_in_duration_seconds",
			Help:    "Duration of check-in processing including the reward transaction",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
	)

	AvailabilityLookupSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "availability_lookup_seconds",
			Help:    "Duration of calendar free-busy lookups",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)
)
