package community

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/linkgraph/internal/core/model"
)

func TestLPA_DisconnectedComponents(t *testing.T) {
	// Graph: [1-2-3-1] (Triangle A) ... [4-5-6-4] (Triangle B)
	nodes := []model.Title{"1", "2", "3", "4", "5", "6"}
	edges := []model.EnrichedEdge{
		edge("1", "2"), edge("2", "3"), edge("3", "1"),
		edge("4", "5"), edge("5", "6"), edge("6", "4"),
	}

	communities := NewLabelPropagationDetector().Detect(nodes, edges)

	assert.Equal(t, [][]model.Title{{"1", "2", "3"}, {"4", "5", "6"}}, communities)
}

func TestLPA_BridgeNode(t *testing.T) {
	// Graph: [1-2-3-1] --(3-4)-- [4-5-6-4]
	// 3 and 4 each have two strong neighbors and one bridge neighbor, so the
	// triangles stay separate.
	nodes := []model.Title{"1", "2", "3", "4", "5", "6"}
	edges := []model.EnrichedEdge{
		edge("1", "2"), edge("2", "3"), edge("3", "1"),
		edge("3", "4"),
		edge("4", "5"), edge("5", "6"), edge("6", "4"),
	}

	communities := NewLabelPropagationDetector().Detect(nodes, edges)

	assert.Len(t, communities, 2)
}

func TestLPA_LargeClique(t *testing.T) {
	nodes := []model.Title{"1", "2", "3", "4", "5"}
	var edges []model.EnrichedEdge
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			edges = append(edges, edge(nodes[i], nodes[j]))
		}
	}

	communities := NewLabelPropagationDetector().Detect(nodes, edges)

	assert.Len(t, communities, 1)
	assert.Len(t, communities[0], 5)
}

func TestLPA_SelfLoopsIgnored(t *testing.T) {
	communities := NewLabelPropagationDetector().Detect([]model.Title{"A"}, []model.EnrichedEdge{edge("A", "A")})

	assert.Empty(t, communities)
}
