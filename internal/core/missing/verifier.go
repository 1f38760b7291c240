// Package missing separates referenced pages that do not exist from pages
// that exist but were left out of the crawl.
package missing

import (
	"context"
	"sort"

	"github.com/agenthands/linkgraph/internal/core/batch"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/metrics"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

const DefaultBatchSize = 50

// Service reports, per title, whether a page exists. Titles missing from the
// returned map are treated as unknown.
type Service interface {
	CheckExistence(ctx context.Context, titles []model.Title) (model.ExistenceMap, error)
}

type Verifier struct {
	Service   Service
	BatchSize int
	Workers   int
	Log       *logger.Logger
}

func NewVerifier(svc Service, batchSize, workers int, log *logger.Logger) *Verifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Verifier{
		Service:   svc,
		BatchSize: batchSize,
		Workers:   workers,
		Log:       logger.OrNop(log).With("component", "missing"),
	}
}

type Report struct {
	// Missing holds confirmed nonexistent candidates with their reference
	// counts.
	Missing model.MissingPages
	// Uncrawled lists candidates the wiki reports as existing.
	Uncrawled []model.Title
	// Unknown lists candidates with no verdict, because their batch failed or
	// the wiki did not mention them.
	Unknown       []model.Title
	Candidates    map[model.Title]int
	Existence     model.ExistenceMap
	Batches       int
	FailedBatches int
}

// Candidates returns every edge target that is neither a key of graph nor a
// known page, with the number of distinct sources referencing it.
func Candidates(graph model.NormalizedGraph, known model.TitleSet) map[model.Title]int {
	counts := make(map[model.Title]int)
	for _, targets := range graph {
		for target := range targets {
			if graph.HasKey(target) || known.Has(target) {
				continue
			}
			counts[target]++
		}
	}
	return counts
}

// Verify runs both phases and returns only candidates the wiki explicitly
// reports as nonexistent in Report.Missing.
func (v *Verifier) Verify(ctx context.Context, graph model.NormalizedGraph, known model.TitleSet) Report {
	log := logger.OrNop(v.Log)
	candidates := Candidates(graph, known)
	titles := make([]model.Title, 0, len(candidates))
	for t := range candidates {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	log.Info("missing page candidates", "count", len(titles))

	batches := batch.Split(titles, v.BatchSize)
	outcomes := batch.Run(ctx, batches, v.Workers, func(ctx context.Context, i int, items []model.Title) (model.ExistenceMap, error) {
		return v.Service.CheckExistence(ctx, items)
	})

	existence := make(model.ExistenceMap, len(titles))
	for _, o := range outcomes {
		metrics.Batch(metrics.PhaseExistence, o.Err)
		if o.Err != nil {
			log.Warn("existence batch failed", "batch", o.Index, "size", len(o.Items), "error", o.Err)
			continue
		}
		for _, t := range o.Items {
			if exists, ok := o.Value[t]; ok {
				existence[t] = exists
			}
		}
	}

	report := Report{
		Missing:       make(model.MissingPages),
		Candidates:    candidates,
		Existence:     existence,
		Batches:       len(batches),
		FailedBatches: batch.Failed(outcomes),
	}
	for _, t := range titles {
		exists, ok := existence[t]
		switch {
		case !ok:
			report.Unknown = append(report.Unknown, t)
		case exists:
			report.Uncrawled = append(report.Uncrawled, t)
		default:
			report.Missing[t] = candidates[t]
		}
	}

	metrics.MissingPages.Set(float64(len(report.Missing)))
	metrics.UncrawledPages.Set(float64(len(report.Uncrawled)))
	if len(report.Uncrawled) > 0 {
		log.Warn("pages exist but were not crawled", "count", len(report.Uncrawled), "sample", sample(report.Uncrawled, 5))
	}
	if len(report.Unknown) > 0 {
		log.Warn("pages with unknown existence", "count", len(report.Unknown), "sample", sample(report.Unknown, 5))
	}
	log.Info("missing pages confirmed", "count", len(report.Missing))
	return report
}

func sample(titles []model.Title, n int) []model.Title {
	if len(titles) <= n {
		return titles
	}
	return titles[:n]
}
