package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SourceResolves = Factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("source_resolves_total"),
			Help: "Number of monthly source files resolved, by result (cached, fetched or error)",
		},
		[]string{"result"},
	)
	SourceFetchDuration = Factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    FQName("source_fetch_duration_sec"),
			Help:    "Duration of remote source file fetches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
	SourceFetchBytes = Factory.NewCounter(
		prometheus.CounterOpts{
			Name: FQName("source_fetch_bytes_total"),
			Help: "Total bytes of source files fetched from the remote source",
		},
	)
	RecordsLoaded = Factory.NewCounter(
		prometheus.CounterOpts{
			Name: FQName("records_loaded_total"),
			Help: "Number of trip records kept after loading and interval filtering",
		},
	)
	WindowsComputed = Factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("windows_computed_total"),
			Help: "Number of rolling mean windows computed, by strategy",
		},
		[]string{"strategy"},
	)
	EmptyWindows = Factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("empty_windows_total"),
			Help: "Number of rolling mean windows without any trip, by strategy",
		},
		[]string{"strategy"},
	)
	StageDuration = Factory.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: FQName("stage_duration_sec"),
			Help: "Duration of each analysis stage in seconds",
		},
		[]string{"stage"},
	)
)
