package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yamloutline_analyses_total",
		Help: "Outline requests by parser and result",
	}, []string{"parser", "result"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yamloutline_analysis_duration_seconds",
		Help:    "Time to parse and outline one document",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	})

	keysEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yamloutline_keys_emitted_total",
		Help: "Outline records produced by analysis passes",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yamloutline_jobs_total",
		Help: "Finished outline jobs by final status",
	}, []string{"status"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yamloutline_queue_depth",
		Help: "Jobs waiting for a worker",
	})
)
