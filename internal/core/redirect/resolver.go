// Package redirect maps every referenced title to its canonical title by
// querying the wiki in batches.
package redirect

import (
	"context"

	"github.com/agenthands/linkgraph/internal/core/batch"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/metrics"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

// DefaultBatchSize matches the MediaWiki per-query title limit.
const DefaultBatchSize = 50

// Service answers redirect lookups for a batch of titles in one round trip.
type Service interface {
	ResolveRedirects(ctx context.Context, titles []model.Title) (model.RedirectBatch, error)
}

type Resolver struct {
	Service   Service
	BatchSize int
	Workers   int
	Log       *logger.Logger
}

func NewResolver(svc Service, batchSize, workers int, log *logger.Logger) *Resolver {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Resolver{
		Service:   svc,
		BatchSize: batchSize,
		Workers:   workers,
		Log:       logger.OrNop(log).With("component", "redirect"),
	}
}

type Report struct {
	Titles        int
	Batches       int
	FailedBatches int
	Redirects     int
	Unresolved    []model.Title
}

// Resolve returns a map covering every input title. Titles in failed batches
// are recorded as Unresolved and map to themselves.
func (r *Resolver) Resolve(ctx context.Context, titles []model.Title) (*model.RedirectMap, Report) {
	unique := model.NewTitleSet(titles...).Sorted()
	batches := batch.Split(unique, r.BatchSize)
	log := logger.OrNop(r.Log)

	outcomes := batch.Run(ctx, batches, r.Workers, func(ctx context.Context, i int, items []model.Title) (model.RedirectBatch, error) {
		return r.Service.ResolveRedirects(ctx, items)
	})

	m := model.NewRedirectMap()
	for _, o := range outcomes {
		metrics.Batch(metrics.PhaseRedirects, o.Err)
		if o.Err != nil {
			log.Warn("redirect batch failed", "batch", o.Index, "size", len(o.Items), "error", o.Err)
			for _, t := range o.Items {
				m.Record(t, t, model.Unresolved)
			}
			continue
		}
		Apply(m, o.Items, o.Value)
	}
	m.Flatten()

	report := Report{
		Titles:        len(unique),
		Batches:       len(batches),
		FailedBatches: batch.Failed(outcomes),
		Redirects:     m.Count(model.Redirected),
		Unresolved:    m.Unresolved(),
	}
	for _, res := range []model.Resolution{model.Redirected, model.Canonical, model.Defaulted, model.Unresolved} {
		metrics.TitlesResolved.WithLabelValues(res.String()).Add(float64(m.Count(res)))
	}
	log.Info("redirects resolved",
		"titles", report.Titles,
		"batches", report.Batches,
		"failed_batches", report.FailedBatches,
		"redirects", report.Redirects,
		"unresolved", len(report.Unresolved),
	)
	return m, report
}

// Apply folds one successful batch into m. Every queried title ends up with
// an entry: redirect sources map to their final target, titles named in
// Pages map to themselves as Canonical, and the rest map to themselves as
// Defaulted.
func Apply(m *model.RedirectMap, queried []model.Title, res model.RedirectBatch) {
	normalized := pairMap(res.Normalized)
	redirects := pairMap(res.Redirects)

	for _, p := range res.Redirects {
		if p.From != p.To {
			m.Record(p.From, follow(redirects, p.To), model.Redirected)
		}
	}
	for _, p := range res.Pages {
		m.Record(p, p, model.Canonical)
	}
	for _, t := range queried {
		form := t
		if n, ok := normalized[t]; ok {
			form = n
		}
		target := follow(redirects, form)
		if target != t {
			m.Record(t, target, model.Redirected)
			continue
		}
		m.Record(t, t, model.Defaulted)
	}
}

func pairMap(pairs []model.TitlePair) map[model.Title]model.Title {
	out := make(map[model.Title]model.Title, len(pairs))
	for _, p := range pairs {
		out[p.From] = p.To
	}
	return out
}

// follow walks redirect hops within one batch response and stops on a loop.
func follow(redirects map[model.Title]model.Title, t model.Title) model.Title {
	seen := map[model.Title]bool{t: true}
	for {
		next, ok := redirects[t]
		if !ok || seen[next] {
			return t
		}
		seen[next] = true
		t = next
	}
}

// RedirectPairs lists the non-identity mappings of m sorted by source title.
func RedirectPairs(m *model.RedirectMap) []model.TitlePair {
	var out []model.TitlePair
	for _, t := range m.Titles() {
		if c := m.Canonical(t); c != t {
			out = append(out, model.TitlePair{From: t, To: c})
		}
	}
	return out
}
