package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/core/enrich"
	"github.com/agenthands/linkgraph/internal/core/missing"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/driver"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	res     *core.Result
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context) (*core.Result, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.res, f.err
}

// ctxRunner reports whether the context it ran under was already done.
type ctxRunner struct {
	ctxErr error
}

func (r *ctxRunner) Run(ctx context.Context) (*core.Result, error) {
	r.ctxErr = ctx.Err()
	if r.ctxErr != nil {
		return nil, r.ctxErr
	}
	return sampleResult(), nil
}

type fakePages struct {
	pages map[model.Title]driver.PageRecord
	err   error
	asked []model.Title
}

func (f *fakePages) Page(ctx context.Context, title model.Title) (driver.PageRecord, bool, error) {
	f.asked = append(f.asked, title)
	if f.err != nil {
		return driver.PageRecord{}, false, f.err
	}
	rec, ok := f.pages[title]
	return rec, ok, nil
}

func sampleResult() *core.Result {
	graph := model.NormalizedGraph{}
	graph.AddEdge("Main Page", "Milady")
	graph.AddEdge("Milady", "Remilia")
	graph.AddEdge("Milady", "Ghost")
	graph.AddEdge("Remilia", "Milady")
	graph.AddSource("Island")
	aliases := model.AliasRegistry{}
	aliases.Add("Remilia", "Remilia Corporation")
	gone := model.MissingPages{"Ghost": 1}
	known := model.NewTitleSet("Main Page", "Milady", "Remilia", "Island")
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &core.Result{
		RunID:    "run-1",
		Graph:    graph,
		Missing:  missing.Report{Missing: gone, Uncrawled: []model.Title{"Elsewhere"}},
		Enriched: enrich.Build(graph, aliases, gone, known, now),
		Legacy:   enrich.Legacy(graph, now),
	}
}

func do(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestReadRoutesBeforeCrawl(t *testing.T) {
	r := NewServer(&fakeRunner{}, nil).SetupRouter()
	for _, path := range []string{"/graph", "/graph/view", "/graph/legacy", "/missing", "/components", "/pages/Milady"} {
		w := do(t, r, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz").Code)
}

func TestCrawlThenGraph(t *testing.T) {
	s := NewServer(&fakeRunner{res: sampleResult()}, nil)
	r := s.SetupRouter()

	w := do(t, r, http.MethodPost, "/crawl")
	require.Equal(t, http.StatusOK, w.Code)
	var crawl CrawlResponse
	decode(t, w, &crawl)
	assert.Equal(t, "run-1", crawl.RunID)
	assert.Equal(t, 1, crawl.Metadata.MissingNodes)
	assert.Equal(t, 1, crawl.Uncrawled)

	w = do(t, r, http.MethodGet, "/graph")
	require.Equal(t, http.StatusOK, w.Code)
	var g model.EnrichedGraph
	decode(t, w, &g)
	assert.Equal(t, 5, g.Metadata.TotalNodes)
	assert.Equal(t, 4, g.Metadata.TotalEdges)

	w = do(t, r, http.MethodGet, "/graph/legacy")
	require.Equal(t, http.StatusOK, w.Code)
	var legacy model.LegacyGraph
	decode(t, w, &legacy)
	assert.Equal(t, []model.Title{"Ghost", "Remilia"}, legacy.Graph["Milady"])
}

func TestCrawlFailure(t *testing.T) {
	r := NewServer(&fakeRunner{err: errors.New("wiki down")}, nil).SetupRouter()
	w := do(t, r, http.MethodPost, "/crawl")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/graph").Code)
}

func TestCrawlConflict(t *testing.T) {
	runner := &fakeRunner{res: sampleResult(), started: make(chan struct{}), release: make(chan struct{})}
	r := NewServer(runner, nil).SetupRouter()

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/crawl", nil)
		r.ServeHTTP(w, req)
		done <- w.Code
	}()
	<-runner.started

	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPost, "/crawl").Code)
	close(runner.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestCrawlOutlivesClientDisconnect(t *testing.T) {
	runner := &ctxRunner{}
	s := NewServer(runner, nil)
	r := s.SetupRouter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/crawl", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NoError(t, runner.ctxErr)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, s.result())
}

func TestCrawlStopsWithBaseContext(t *testing.T) {
	runner := &ctxRunner{}
	s := NewServer(runner, nil)
	base, cancel := context.WithCancel(context.Background())
	cancel()
	s.BaseContext = base

	w := do(t, s.SetupRouter(), http.MethodPost, "/crawl")
	assert.ErrorIs(t, runner.ctxErr, context.Canceled)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMissing(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	s.SetResult(sampleResult())
	r := s.SetupRouter()

	w := do(t, r, http.MethodGet, "/missing?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Missing   []enrich.MissingEntry `json:"missing"`
		Uncrawled []model.Title         `json:"uncrawled"`
		Unknown   []model.Title         `json:"unknown"`
	}
	decode(t, w, &body)
	assert.Equal(t, []enrich.MissingEntry{{Title: "Ghost", References: 1}}, body.Missing)
	assert.Equal(t, []model.Title{"Elsewhere"}, body.Uncrawled)
	assert.NotNil(t, body.Unknown)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/missing?limit=x").Code)
}

func TestView(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	s.SetResult(sampleResult())
	r := s.SetupRouter()

	w := do(t, r, http.MethodGet, "/graph/view")
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	decode(t, w, &view)
	ids := make([]string, 0, len(view.Nodes))
	for _, n := range view.Nodes {
		ids = append(ids, n.ID)
	}
	assert.NotContains(t, ids, "Main Page")
	assert.NotContains(t, ids, "Island")
	assert.Contains(t, ids, "Milady")

	w = do(t, r, http.MethodGet, "/graph/view?all=true&hide=Ghost")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	ids = ids[:0]
	for _, n := range view.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Contains(t, ids, "Main Page")
	assert.NotContains(t, ids, "Ghost")
}

func TestComponents(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	s.SetResult(sampleResult())
	r := s.SetupRouter()

	w := do(t, r, http.MethodGet, "/components")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count      int             `json:"count"`
		Components [][]model.Title `json:"components"`
	}
	decode(t, w, &body)
	assert.Equal(t, 1, body.Count)
	assert.ElementsMatch(t, []model.Title{"Ghost", "Main Page", "Milady", "Remilia"}, body.Components[0])

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/components?algo=lpa").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/components?algo=louvain").Code)
}

func TestPageLookup(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	s.SetResult(sampleResult())
	r := s.SetupRouter()

	for _, name := range []string{"Remilia", "remilia", "remilia corporation"} {
		w := do(t, r, http.MethodGet, "/pages/"+url.PathEscape(name))
		require.Equal(t, http.StatusOK, w.Code, name)
		var page PageResponse
		decode(t, w, &page)
		assert.Equal(t, "Remilia", page.Node.ID)
		assert.Equal(t, []model.Title{"Remilia Corporation"}, page.Node.Aliases)
		assert.Equal(t, []model.Title{"Milady"}, page.Outgoing)
		assert.Equal(t, []model.Title{"Milady"}, page.Incoming)
	}
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/pages/Nobody").Code)
}

func TestMetricsAndPublish(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	require.NoError(t, s.Publish(context.Background(), sampleResult()))
	r := s.SetupRouter()

	w := do(t, r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/healthz")
	var health map[string]interface{}
	decode(t, w, &health)
	assert.Equal(t, "run-1", health["run_id"])
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, http.NotFoundHandler(), "127.0.0.1:0", nil)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestPageFallsBackToStore(t *testing.T) {
	pages := &fakePages{pages: map[model.Title]driver.PageRecord{
		"Elsewhere": {
			Node:     model.EnrichedNode{ID: "Elsewhere", Aliases: []model.Title{}},
			Outgoing: []model.Title{},
			Incoming: []model.Title{"Milady"},
		},
	}}
	s := NewServer(&fakeRunner{}, nil)
	s.Pages = pages
	r := s.SetupRouter()

	// No crawl yet: the store answers.
	w := do(t, r, http.MethodGet, "/pages/Elsewhere")
	require.Equal(t, http.StatusOK, w.Code)
	var page PageResponse
	decode(t, w, &page)
	assert.Equal(t, "Elsewhere", page.Node.ID)
	assert.Equal(t, []model.Title{"Milady"}, page.Incoming)

	// In-memory hits never reach the store.
	s.SetResult(sampleResult())
	pages.asked = nil
	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/pages/Remilia").Code)
	assert.Empty(t, pages.asked)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/pages/Elsewhere").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/pages/Nobody").Code)
	assert.Equal(t, []model.Title{"Elsewhere", "Nobody"}, pages.asked)
}

func TestPageStoreFailure(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil)
	s.Pages = &fakePages{err: errors.New("memgraph down")}
	assert.Equal(t, http.StatusBadGateway, do(t, s.SetupRouter(), http.MethodGet, "/pages/Milady").Code)
}
