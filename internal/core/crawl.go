package core

import (
	"context"
	"fmt"

	"github.com/agenthands/linkgraph/internal/core/batch"
	"github.com/agenthands/linkgraph/internal/core/filter"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/metrics"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

// PageSource enumerates a namespace and lists the outgoing links of a page.
type PageSource interface {
	ListPages(ctx context.Context, token model.Continuation) ([]model.Title, model.Continuation, error)
	PageLinks(ctx context.Context, title model.Title) ([]model.Title, error)
}

type CrawlStats struct {
	Pages         int                   `json:"pages"`
	SkippedPages  int                   `json:"skipped_pages"`
	FailedPages   int                   `json:"failed_pages"`
	RawLinks      int                   `json:"raw_links"`
	AdmittedLinks int                   `json:"admitted_links"`
	Excluded      map[filter.Reason]int `json:"excluded"`
}

// Discover pages through the source until the continuation is exhausted.
// Non-English titles are skipped when the filter excludes them. A failure
// after the first page returns what was discovered so far; a failure with
// nothing discovered is returned as an error.
func Discover(ctx context.Context, src PageSource, f *filter.Filter, log *logger.Logger) ([]model.Title, int, error) {
	log = logger.OrNop(log)
	var (
		pages   []model.Title
		skipped int
		token   model.Continuation
	)
	for {
		found, next, err := src.ListPages(ctx, token)
		metrics.Batch(metrics.PhaseDiscovery, err)
		if err != nil {
			if len(pages) == 0 {
				return nil, skipped, fmt.Errorf("discover pages: %w", err)
			}
			log.Warn("page discovery stopped early", "discovered", len(pages), "error", err)
			return pages, skipped, nil
		}
		for _, t := range found {
			if f.SkipsNonEnglish() && filter.IsNonEnglish(t) {
				skipped++
				continue
			}
			pages = append(pages, t)
		}
		log.Debug("discovered pages", "total", len(pages))
		if next.Done() {
			return pages, skipped, nil
		}
		token = next
	}
}

// FetchLinks lists and filters the links of every page. A page whose listing
// fails keeps whatever links arrived before the failure; a page with no
// links still becomes a source of the returned adjacency.
func FetchLinks(ctx context.Context, src PageSource, f *filter.Filter, pages []model.Title, workers int, log *logger.Logger) (model.RawAdjacency, CrawlStats) {
	log = logger.OrNop(log)
	outcomes := batch.Run(ctx, batch.Split(pages, 1), workers, func(ctx context.Context, _ int, items []model.Title) ([]model.Title, error) {
		return src.PageLinks(ctx, items[0])
	})

	raw := make(model.RawAdjacency, len(pages))
	stats := CrawlStats{Pages: len(pages), Excluded: make(map[filter.Reason]int)}
	for _, o := range outcomes {
		title := o.Items[0]
		metrics.Batch(metrics.PhaseLinks, o.Err)
		if o.Err != nil {
			stats.FailedPages++
			log.Warn("link listing failed", "page", title, "links", len(o.Value), "error", o.Err)
		}
		links, report := f.FilterWithReport(o.Value)
		stats.RawLinks += len(o.Value)
		stats.AdmittedLinks += report.Admitted
		for reason, n := range report.ByReason {
			stats.Excluded[reason] += n
			metrics.LinksFiltered.WithLabelValues(string(reason)).Add(float64(n))
		}
		metrics.LinksFiltered.WithLabelValues("admitted").Add(float64(report.Admitted))
		raw[title] = append(raw[title], links...)
	}
	log.Info("links fetched", "pages", stats.Pages, "raw", stats.RawLinks, "admitted", stats.AdmittedLinks, "failed_pages", stats.FailedPages)
	return raw, stats
}
