package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/core/enrich"
	"github.com/agenthands/linkgraph/internal/core/missing"
	"github.com/agenthands/linkgraph/internal/core/model"
)

func testResult() *core.Result {
	graph := model.NormalizedGraph{}
	graph.AddEdge("Café", "Milady")
	graph.AddEdge("Milady", "R&D")
	aliases := model.AliasRegistry{}
	aliases.Add("Milady", "Milady Maker")
	gone := model.MissingPages{"R&D": 1}
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	known := model.NewTitleSet("Café", "Milady")
	return &core.Result{
		Graph:    graph,
		Missing:  missing.Report{Missing: gone},
		Enriched: enrich.Build(graph, aliases, gone, known, now),
		Legacy:   enrich.Legacy(graph, now),
	}
}

func TestEncode_KeepsNonASCIIAndIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]int{"Café & R&D": 1}))
	assert.Equal(t, "{\n  \"Café & R&D\": 1\n}\n", buf.String())
}

func TestPublish_WritesAllArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := config.Default().Export
	cfg.Dir = dir
	w := NewWriter(cfg, nil)

	require.NoError(t, w.Publish(context.Background(), testResult()))

	var enriched model.EnrichedGraph
	readJSON(t, filepath.Join(dir, cfg.EnrichedFile), &enriched)
	assert.Equal(t, 3, enriched.Metadata.TotalNodes)
	assert.Equal(t, 1, enriched.Metadata.MissingNodes)
	assert.Equal(t, 2, enriched.Metadata.TotalEdges)
	assert.Equal(t, "2025-03-01 08:00:00", enriched.Metadata.Timestamp)

	var gone map[string]int
	readJSON(t, filepath.Join(dir, cfg.MissingFile), &gone)
	assert.Equal(t, map[string]int{"R&D": 1}, gone)

	var legacy model.LegacyGraph
	readJSON(t, filepath.Join(dir, cfg.LegacyFile), &legacy)
	assert.Equal(t, []model.Title{"Milady"}, legacy.Graph["Café"])
	assert.Equal(t, 2, legacy.Metadata.TotalNodes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temp files must not be left behind")
}

func TestPublish_SkipsEmptyNames(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, EnrichedFile: "graph.json"}

	require.NoError(t, w.Publish(context.Background(), testResult()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "graph.json", entries[0].Name())
}

func TestPublish_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Writer{Dir: t.TempDir(), EnrichedFile: "graph.json"}
	assert.ErrorIs(t, w.Publish(ctx, testResult()), context.Canceled)
}

func TestWriteJSONFile_MissingDir(t *testing.T) {
	err := WriteJSONFile(filepath.Join(t.TempDir(), "nope", "x.json"), 1)
	assert.Error(t, err)
}

func readJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
