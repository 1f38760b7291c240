package community

import (
	"sort"

	"github.com/agenthands/linkgraph/internal/core/model"
)

// LabelPropagationDetector implements community detection using Label Propagation Algorithm (LPA).
type LabelPropagationDetector struct {
	MaxIterations int
	MinSize       int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
		MinSize:       2,
	}
}

func (d *LabelPropagationDetector) Detect(nodes []model.Title, edges []model.EnrichedEdge) [][]model.Title {
	if len(nodes) == 0 {
		return nil
	}

	// node -> neighbor -> weight; a reciprocal link pair counts twice.
	adj := make(map[model.Title]map[model.Title]int, len(nodes))
	for _, n := range nodes {
		adj[n] = make(map[model.Title]int)
	}
	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			continue
		}
		if _, ok := adj[e.Target]; !ok {
			continue
		}
		if e.Source == e.Target {
			continue
		}
		adj[e.Source][e.Target]++
		adj[e.Target][e.Source]++
	}

	labels := make(map[model.Title]model.Title, len(nodes))
	for _, n := range nodes {
		labels[n] = n
	}

	order := append([]model.Title(nil), nodes...)
	sort.Strings(order)

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range order {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[model.Title]int)
			maxCount := 0
			for v, weight := range neighbors {
				label := labels[v]
				counts[label] += weight
				if counts[label] > maxCount {
					maxCount = counts[label]
				}
			}

			// Ties go to the lexicographically largest label for stability.
			var best model.Title
			for label, count := range counts {
				if count == maxCount && label > best {
					best = label
				}
			}
			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	clusters := make(map[model.Title][]model.Title)
	for _, n := range order {
		clusters[labels[n]] = append(clusters[labels[n]], n)
	}

	var communities [][]model.Title
	for _, cluster := range clusters {
		if len(cluster) >= d.MinSize {
			communities = append(communities, cluster)
		}
	}
	sort.Slice(communities, func(i, j int) bool {
		if len(communities[i]) != len(communities[j]) {
			return len(communities[i]) > len(communities[j])
		}
		return communities[i][0] < communities[j][0]
	})
	return communities
}
