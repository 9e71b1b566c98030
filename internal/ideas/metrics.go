package ideas

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storybit",
		Subsystem: "ideas",
		Name:      "cache_lookups_total",
		Help:      "Topic cache lookups by tier and result.",
	}, []string{"tier", "result"})
	metricResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storybit",
		Subsystem: "ideas",
		Name:      "resolutions_total",
		Help:      "Topic resolutions by outcome.",
	}, []string{"outcome"})
	metricAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storybit",
		Subsystem: "ideas",
		Name:      "backend_attempts_total",
		Help:      "Calls made to process-topic while resolving topics.",
	})
)
