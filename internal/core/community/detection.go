package community

import (
	"sort"

	"github.com/agenthands/linkgraph/internal/core/model"
)

// Detector groups titles into communities. Edges are read as undirected.
type Detector interface {
	Detect(nodes []model.Title, edges []model.EnrichedEdge) [][]model.Title
}

// ComponentDetector returns connected components with at least MinSize
// members.
type ComponentDetector struct {
	MinSize int
}

func NewComponentDetector() *ComponentDetector {
	return &ComponentDetector{MinSize: 2}
}

func (d *ComponentDetector) Detect(nodes []model.Title, edges []model.EnrichedEdge) [][]model.Title {
	adj := undirected(nodes, edges)

	visited := make(map[model.Title]bool, len(nodes))
	var communities [][]model.Title
	for _, n := range nodes {
		if visited[n] {
			continue
		}
		component := walk(n, adj, visited)
		if len(component) >= d.MinSize {
			sort.Strings(component)
			communities = append(communities, component)
		}
	}
	return communities
}

// LargestComponent returns the members of the biggest connected component,
// sorted. Ties go to the component found first in node order.
func LargestComponent(nodes []model.Title, edges []model.EnrichedEdge) []model.Title {
	adj := undirected(nodes, edges)
	visited := make(map[model.Title]bool, len(nodes))
	var largest []model.Title
	for _, n := range nodes {
		if visited[n] {
			continue
		}
		if component := walk(n, adj, visited); len(component) > len(largest) {
			largest = component
		}
	}
	sort.Strings(largest)
	return largest
}

// undirected builds an adjacency list restricted to nodes. Edges with an
// endpoint outside nodes are ignored.
func undirected(nodes []model.Title, edges []model.EnrichedEdge) map[model.Title][]model.Title {
	adj := make(map[model.Title][]model.Title, len(nodes))
	for _, n := range nodes {
		adj[n] = nil
	}
	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			continue
		}
		if _, ok := adj[e.Target]; !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

// walk collects the component containing start with an explicit stack, so
// long chains do not grow the goroutine stack.
func walk(start model.Title, adj map[model.Title][]model.Title, visited map[model.Title]bool) []model.Title {
	var component []model.Title
	stack := []model.Title{start}
	visited[start] = true
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, u)
		for _, v := range adj[u] {
			if !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}
	return component
}
