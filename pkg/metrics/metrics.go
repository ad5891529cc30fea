// Package metrics exposes prometheus collectors for the translators and
// user dictionary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// QueryLatencySeconds tracks how long a Query call takes per engine.
	QueryLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imecore_query_latency_seconds",
			Help:    "Time spent evaluating a translator Query call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)

	// DictLookupTotal counts dictionary lookups, split by hit/miss.
	DictLookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imecore_dict_lookup_total",
			Help: "Total number of dictionary Lookup calls",
		},
		[]string{"dict", "result"},
	)

	// UserDictCommitTotal counts commits memorized into the user dictionary.
	UserDictCommitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imecore_user_dict_commit_total",
			Help: "Total number of Memorize calls that touched the user dictionary",
		},
		[]string{"engine"},
	)

	// UserDictEntries tracks the current number of entries held by a user dictionary store.
	UserDictEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imecore_user_dict_entries",
			Help: "Current number of entries in a user dictionary store",
		},
		[]string{"store"},
	)
)

func init() {
	prometheus.MustRegister(QueryLatencySeconds)
	prometheus.MustRegister(DictLookupTotal)
	prometheus.MustRegister(UserDictCommitTotal)
	prometheus.MustRegister(UserDictEntries)
}
