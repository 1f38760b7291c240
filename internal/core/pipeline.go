// Package core runs a full crawl: page discovery, link fetching and the
// reconciliation passes that turn raw links into the enriched graph.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/core/enrich"
	"github.com/agenthands/linkgraph/internal/core/filter"
	"github.com/agenthands/linkgraph/internal/core/missing"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/core/normalize"
	"github.com/agenthands/linkgraph/internal/core/redirect"
	"github.com/agenthands/linkgraph/internal/metrics"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

// Wiki is everything the pipeline needs from the wiki API.
type Wiki interface {
	PageSource
	redirect.Service
	missing.Service
}

// Sink receives the result of a successful run.
type Sink interface {
	Publish(ctx context.Context, res *Result) error
}

type SinkFunc func(ctx context.Context, res *Result) error

func (f SinkFunc) Publish(ctx context.Context, res *Result) error { return f(ctx, res) }

type Pipeline struct {
	Source   PageSource
	Filter   *filter.Filter
	Resolver *redirect.Resolver
	Verifier *missing.Verifier
	Sinks    []Sink
	Workers  int
	Log      *logger.Logger

	Now           func() time.Time
	UUIDGenerator func() string
}

func NewPipeline(wiki Wiki, cfg *config.Config, log *logger.Logger, sinks ...Sink) *Pipeline {
	log = logger.OrNop(log)
	return &Pipeline{
		Source:        wiki,
		Filter:        filter.New(filter.RulesFromConfig(cfg.Filter)),
		Resolver:      redirect.NewResolver(wiki, cfg.Wiki.BatchSize, cfg.Concurrency.Workers, log),
		Verifier:      missing.NewVerifier(wiki, cfg.Wiki.BatchSize, cfg.Concurrency.Workers, log),
		Sinks:         sinks,
		Workers:       cfg.Concurrency.Workers,
		Log:           log.With("component", "pipeline"),
		Now:           time.Now,
		UUIDGenerator: func() string { return uuid.New().String() },
	}
}

type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Known is every page discovered by the crawl.
	Known []model.Title
	Crawl CrawlStats
	Raw   model.RawAdjacency

	Redirects      *model.RedirectMap
	RedirectReport redirect.Report

	Graph          model.NormalizedGraph
	Aliases        model.AliasRegistry
	NormalizeStats normalize.Stats

	Missing missing.Report

	Enriched model.EnrichedGraph
	Legacy   model.LegacyGraph
}

// TopMissing returns the n most referenced missing pages.
func (r *Result) TopMissing(n int) []enrich.MissingEntry {
	return enrich.TopMissing(r.Missing.Missing, n)
}

// Run crawls the wiki and reconciles the result. Only an empty discovery,
// cancellation or a failing sink abort the run; per-batch failures degrade
// the result and are logged.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := logger.OrNop(p.Log)
	start := p.now()
	runID := p.newID()
	log = log.With("run_id", runID)
	log.Info("crawl started")

	known, skipped, err := Discover(ctx, p.Source, p.Filter, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	log.Info("pages discovered", "count", len(known), "skipped_non_english", skipped)
	if err := ctx.Err(); err != nil {
		metrics.RunsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	raw, stats := FetchLinks(ctx, p.Source, p.Filter, known, p.Workers, log)
	stats.SkippedPages = skipped

	res, err := p.Reconcile(ctx, known, raw)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	res.RunID = runID
	res.StartedAt = start
	res.Crawl = stats

	for _, s := range p.Sinks {
		if err := s.Publish(ctx, res); err != nil {
			metrics.RunsTotal.WithLabelValues(metrics.ResultError).Inc()
			return nil, fmt.Errorf("publish run %s: %w", runID, err)
		}
	}

	metrics.RunsTotal.WithLabelValues(metrics.ResultOK).Inc()
	log.Info("crawl finished",
		"nodes", res.Enriched.Metadata.TotalNodes,
		"edges", res.Enriched.Metadata.TotalEdges,
		"missing", res.Enriched.Metadata.MissingNodes,
		"redirects", res.Enriched.Metadata.RedirectsResolved,
		"elapsed", res.FinishedAt.Sub(start),
	)
	return res, nil
}

// Reconcile resolves redirects over every crawled page and link target,
// normalizes raw onto canonical titles, verifies missing pages and builds
// both exports. known is the discovered page set.
func (p *Pipeline) Reconcile(ctx context.Context, known []model.Title, raw model.RawAdjacency) (*Result, error) {
	log := logger.OrNop(p.Log)
	knownSet := model.NewTitleSet(known...)
	universe := model.NewTitleSet(known...)
	for src, links := range raw {
		universe.Add(src)
		for _, l := range links {
			universe.Add(l)
		}
	}

	redirects, redirectReport := p.Resolver.Resolve(ctx, universe.Sorted())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	graph, aliases, normStats := normalize.NormalizeWithStats(raw, redirects)
	log.Info("graph normalized",
		"sources", normStats.Sources,
		"raw_edges", normStats.RawEdges,
		"edges", normStats.NormalizedEdges,
		"aliases", normStats.Aliases,
	)

	report := p.Verifier.Verify(ctx, graph, knownSet)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := p.now()
	return &Result{
		FinishedAt:     now,
		Known:          knownSet.Sorted(),
		Raw:            raw,
		Redirects:      redirects,
		RedirectReport: redirectReport,
		Graph:          graph,
		Aliases:        aliases,
		NormalizeStats: normStats,
		Missing:        report,
		Enriched:       enrich.Build(graph, aliases, report.Missing, knownSet, now),
		Legacy:         enrich.Legacy(graph, now),
	}, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) newID() string {
	if p.UUIDGenerator == nil {
		return uuid.New().String()
	}
	return p.UUIDGenerator()
}
