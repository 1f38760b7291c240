package model

import "sort"

// RawAdjacency maps a crawled page to the link titles observed on it.
// Duplicates are allowed and order carries no meaning downstream.
type RawAdjacency map[Title][]Title

// LinkCount is the total number of raw links across all pages.
func (r RawAdjacency) LinkCount() int {
	n := 0
	for _, links := range r {
		n += len(links)
	}
	return n
}

// NormalizedGraph maps a canonical title to the set of canonical titles it
// links to.
type NormalizedGraph map[Title]TitleSet

// AddSource registers src as a key even if it has no outgoing edges.
func (g NormalizedGraph) AddSource(src Title) TitleSet {
	targets, ok := g[src]
	if !ok {
		targets = make(TitleSet)
		g[src] = targets
	}
	return targets
}

// AddEdge inserts src -> dst, creating the source entry when needed.
func (g NormalizedGraph) AddEdge(src, dst Title) {
	g.AddSource(src).Add(dst)
}

func (g NormalizedGraph) HasKey(t Title) bool {
	_, ok := g[t]
	return ok
}

func (g NormalizedGraph) HasEdge(src, dst Title) bool {
	targets, ok := g[src]
	return ok && targets.Has(dst)
}

// Keys returns the source titles in ascending order.
func (g NormalizedGraph) Keys() []Title {
	keys := make([]Title, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g NormalizedGraph) EdgeCount() int {
	n := 0
	for _, targets := range g {
		n += targets.Len()
	}
	return n
}

// Lists converts the graph into sorted adjacency lists, the shape used by
// the legacy export.
func (g NormalizedGraph) Lists() map[Title][]Title {
	out := make(map[Title][]Title, len(g))
	for src, targets := range g {
		out[src] = targets.Sorted()
	}
	return out
}

// Raw converts the graph back into a RawAdjacency.
func (g NormalizedGraph) Raw() RawAdjacency {
	return RawAdjacency(g.Lists())
}

// AliasRegistry maps a canonical title to the non-canonical titles that
// redirect to it.
type AliasRegistry map[Title]TitleSet

// Add records alias under canonical. A title is never its own alias.
func (a AliasRegistry) Add(canonical, alias Title) {
	if canonical == alias {
		return
	}
	set, ok := a[canonical]
	if !ok {
		set = make(TitleSet)
		a[canonical] = set
	}
	set.Add(alias)
}

// Get returns the sorted aliases of canonical, or an empty slice.
func (a AliasRegistry) Get(canonical Title) []Title {
	set, ok := a[canonical]
	if !ok {
		return []Title{}
	}
	return set.Sorted()
}

// Total counts alias entries across all canonical titles.
func (a AliasRegistry) Total() int {
	n := 0
	for _, set := range a {
		n += set.Len()
	}
	return n
}

// Lists converts the registry into sorted lists keyed by canonical title.
func (a AliasRegistry) Lists() map[Title][]Title {
	out := make(map[Title][]Title, len(a))
	for canonical, set := range a {
		out[canonical] = set.Sorted()
	}
	return out
}

// ExistenceMap records the existence-check verdict per title. A title
// absent from the map is indeterminate, not nonexistent.
type ExistenceMap map[Title]bool

// MissingPages maps a confirmed nonexistent title to the number of distinct
// canonical sources that link to it.
type MissingPages map[Title]int
