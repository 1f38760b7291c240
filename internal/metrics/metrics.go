// Package metrics holds the Prometheus collectors for crawl runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	PhaseDiscovery = "discovery"
	PhaseLinks     = "links"
	PhaseRedirects = "redirects"
	PhaseExistence = "existence"

	ResultOK    = "ok"
	ResultError = "error"
)

var (
	BatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkgraph_batches_total",
		Help: "Batched wiki API calls by pipeline phase and result",
	}, []string{"phase", "result"})

	TitlesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkgraph_titles_resolved_total",
		Help: "Titles placed in the redirect map by resolution kind",
	}, []string{"resolution"})

	LinksFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkgraph_links_filtered_total",
		Help: "Raw links seen by the link filter by outcome",
	}, []string{"reason"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkgraph_wiki_request_duration_seconds",
		Help:    "Latency of requests to the wiki API",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"status"})

	MissingPages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkgraph_missing_pages",
		Help: "Confirmed nonexistent pages in the last run",
	})

	UncrawledPages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkgraph_uncrawled_pages",
		Help: "Referenced pages that exist but were not crawled in the last run",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkgraph_runs_total",
		Help: "Pipeline runs by result",
	}, []string{"result"})
)

// Batch records one batched call.
func Batch(phase string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	BatchesTotal.WithLabelValues(phase, result).Inc()
}
