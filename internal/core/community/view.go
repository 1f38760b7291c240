package community

import (
	"math"
	"strings"

	"github.com/agenthands/linkgraph/internal/core/filter"
	"github.com/agenthands/linkgraph/internal/core/model"
)

// ViewNode is a node of the display graph with its degree and display size.
type ViewNode struct {
	ID        model.Title   `json:"id"`
	Label     string        `json:"label"`
	Outgoing  int           `json:"outgoingCount"`
	Incoming  int           `json:"incomingCount"`
	IsMissing bool          `json:"isMissing"`
	Aliases   []model.Title `json:"aliases"`
	Size      float64       `json:"size"`
}

type ViewGraph struct {
	Nodes []ViewNode           `json:"nodes"`
	Edges []model.EnrichedEdge `json:"edges"`
}

// ViewOptions controls which nodes the display graph keeps.
type ViewOptions struct {
	// Hidden titles are dropped together with their edges.
	Hidden model.TitleSet
	// SkipNonEnglish drops translated pages.
	SkipNonEnglish bool
	// LargestOnly keeps only the largest connected component.
	LargestOnly bool
}

func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		Hidden:         model.NewTitleSet("Main Page"),
		SkipNonEnglish: true,
		LargestOnly:    true,
	}
}

// Degrees counts outgoing and incoming edges per title.
func Degrees(edges []model.EnrichedEdge) (out, in map[model.Title]int) {
	out = make(map[model.Title]int)
	in = make(map[model.Title]int)
	for _, e := range edges {
		out[e.Source]++
		in[e.Target]++
	}
	return out, in
}

// NodeSize maps a degree to a display radius on a logarithmic scale.
func NodeSize(degree int) float64 {
	return 3 + math.Log(float64(degree)+1)*2
}

// View derives the display graph from an enriched graph. Only titles that
// take part in at least one kept edge become nodes.
func View(g model.EnrichedGraph, opts ViewOptions) ViewGraph {
	byID := make(map[model.Title]model.EnrichedNode, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	skip := func(t model.Title) bool {
		return opts.Hidden.Has(t) || (opts.SkipNonEnglish && filter.IsNonEnglish(t))
	}

	ids := model.NewTitleSet()
	edges := make([]model.EnrichedEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if skip(e.Source) || skip(e.Target) {
			continue
		}
		ids.Add(e.Source)
		ids.Add(e.Target)
		edges = append(edges, e)
	}

	keep := ids
	if opts.LargestOnly {
		keep = model.NewTitleSet(LargestComponent(ids.Sorted(), edges)...)
		kept := edges[:0]
		for _, e := range edges {
			if keep.Has(e.Source) && keep.Has(e.Target) {
				kept = append(kept, e)
			}
		}
		edges = kept
	}

	// Degrees count every edge that survived the hidden and language filters,
	// before the component cut, matching what the frontend shows on hover.
	outDeg, inDeg := Degrees(filteredEdges(g.Edges, skip))

	nodes := make([]ViewNode, 0, keep.Len())
	for _, id := range keep.Sorted() {
		raw, known := byID[id]
		aliases := []model.Title{}
		if known && raw.Aliases != nil {
			aliases = raw.Aliases
		}
		nodes = append(nodes, ViewNode{
			ID:        id,
			Label:     id,
			Outgoing:  outDeg[id],
			Incoming:  inDeg[id],
			IsMissing: known && !raw.Exists,
			Aliases:   aliases,
			Size:      NodeSize(outDeg[id] + inDeg[id]),
		})
	}
	return ViewGraph{Nodes: nodes, Edges: edges}
}

func filteredEdges(edges []model.EnrichedEdge, skip func(model.Title) bool) []model.EnrichedEdge {
	out := make([]model.EnrichedEdge, 0, len(edges))
	for _, e := range edges {
		if !skip(e.Source) && !skip(e.Target) {
			out = append(out, e)
		}
	}
	return out
}

// AliasIndex maps a lower-cased alias to the canonical node that owns it,
// for search boxes that accept old page names.
func AliasIndex(nodes []model.EnrichedNode) map[string]model.Title {
	idx := make(map[string]model.Title)
	for _, n := range nodes {
		for _, a := range n.Aliases {
			idx[strings.ToLower(a)] = n.ID
		}
	}
	return idx
}
