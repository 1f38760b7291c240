// Package enrich projects the normalized graph into the node/edge artifact
// read by the visualization frontend.
package enrich

import (
	"sort"
	"time"

	"github.com/agenthands/linkgraph/internal/core/model"
)

// Build assembles nodes for every graph key and every missing page, and one
// edge per (source, target) pair of graph. Nodes and edges are sorted so the
// output is reproducible.
func Build(graph model.NormalizedGraph, aliases model.AliasRegistry, missing model.MissingPages, known model.TitleSet, now time.Time) model.EnrichedGraph {
	titles := model.NewTitleSet(graph.Keys()...)
	for t := range missing {
		titles.Add(t)
	}

	nodes := make([]model.EnrichedNode, 0, titles.Len())
	existing := 0
	for _, t := range titles.Sorted() {
		node := model.EnrichedNode{
			ID:             t,
			Label:          t,
			Exists:         known.Has(t) || graph.HasKey(t),
			Aliases:        aliases.Get(t),
			Classification: model.ClassCanonical,
		}
		if _, ok := missing[t]; ok {
			node.Classification = model.ClassMissing
		}
		if node.Exists {
			existing++
		}
		nodes = append(nodes, node)
	}

	edges := Edges(graph)

	return model.EnrichedGraph{
		Metadata: model.Metadata{
			TotalNodes:        len(nodes),
			ExistingNodes:     existing,
			MissingNodes:      len(missing),
			TotalEdges:        len(edges),
			RedirectsResolved: aliases.Total(),
			Timestamp:         now.Format(model.TimestampLayout),
		},
		Nodes: nodes,
		Edges: edges,
	}
}

// Edges flattens graph into one edge per pair, ordered by source then
// target.
func Edges(graph model.NormalizedGraph) []model.EnrichedEdge {
	edges := make([]model.EnrichedEdge, 0, graph.EdgeCount())
	for _, src := range graph.Keys() {
		for _, dst := range graph[src].Sorted() {
			edges = append(edges, model.EnrichedEdge{Source: src, Target: dst})
		}
	}
	return edges
}

// Legacy builds the adjacency-list export from the same graph.
func Legacy(graph model.NormalizedGraph, now time.Time) model.LegacyGraph {
	return model.LegacyGraph{
		Metadata: model.LegacyMetadata{
			TotalNodes: len(graph),
			TotalEdges: graph.EdgeCount(),
			Timestamp:  now.Format(model.TimestampLayout),
		},
		Graph: graph.Lists(),
	}
}

// MissingEntry is one row of the missing-page report.
type MissingEntry struct {
	Title      model.Title `json:"title"`
	References int         `json:"references"`
}

// TopMissing returns up to n missing pages ordered by reference count, most
// referenced first, ties broken by title. n <= 0 returns all of them.
func TopMissing(missing model.MissingPages, n int) []MissingEntry {
	out := make([]MissingEntry, 0, len(missing))
	for t, c := range missing {
		out = append(out, MissingEntry{Title: t, References: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].References != out[j].References {
			return out[i].References > out[j].References
		}
		return out[i].Title < out[j].Title
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
