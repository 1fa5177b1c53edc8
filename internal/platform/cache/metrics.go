package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_cache_query_hits_total",
		Help: "Queries answered from a fresh cache entry.",
	})
	queryMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_cache_query_misses_total",
		Help: "Queries that had to run their fetcher.",
	})
	mutationRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_cache_mutation_rollbacks_total",
		Help: "Failed mutations whose optimistic value was rolled back.",
	})
)
