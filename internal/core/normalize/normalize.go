// Package normalize folds a raw crawl through the redirect map so that every
// node is a canonical title.
package normalize

import "github.com/agenthands/linkgraph/internal/core/model"

// Stats describes one normalization pass.
type Stats struct {
	Sources         int
	RawEdges        int
	NormalizedEdges int
	Aliases         int
	// RedirectLoops counts links from a redirect page to its own target.
	// Each folds into a self-loop on the target.
	RedirectLoops   int
}

// Normalize rewrites sources and targets of raw to their canonical titles.
// Every crawled source becomes a key, even without links. Non-canonical
// titles are recorded in the alias registry under their canonical title.
// A redirect page's link to its own target becomes a self-loop on the
// target, like any other edge folded through the redirect.
func Normalize(raw model.RawAdjacency, redirects *model.RedirectMap) (model.NormalizedGraph, model.AliasRegistry) {
	g, a, _ := NormalizeWithStats(raw, redirects)
	return g, a
}

func NormalizeWithStats(raw model.RawAdjacency, redirects *model.RedirectMap) (model.NormalizedGraph, model.AliasRegistry, Stats) {
	graph := make(model.NormalizedGraph, len(raw))
	aliases := make(model.AliasRegistry)
	stats := Stats{RawEdges: raw.LinkCount()}

	for source, targets := range raw {
		canonicalSource := redirects.Canonical(source)
		if canonicalSource != source {
			aliases.Add(canonicalSource, source)
		}
		edges := graph.AddSource(canonicalSource)

		for _, target := range targets {
			canonicalTarget := redirects.Canonical(target)
			if canonicalTarget != target {
				aliases.Add(canonicalTarget, target)
			}
			if canonicalTarget == canonicalSource && source != canonicalSource {
				stats.RedirectLoops++
			}
			edges.Add(canonicalTarget)
		}
	}

	stats.Sources = len(graph)
	stats.NormalizedEdges = graph.EdgeCount()
	stats.Aliases = aliases.Total()
	return graph, aliases, stats
}
