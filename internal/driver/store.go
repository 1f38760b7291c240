package driver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/core/batch"
	"github.com/agenthands/linkgraph/internal/core/enrich"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

const DefaultChunkSize = 1000

// Store persists enriched graphs as (:Page)-[:LINKS_TO]->(:Page). Each save
// tags nodes and relationships with its run ID and prunes whatever an
// earlier run left behind.
type Store struct {
	Driver    GraphDriver
	ChunkSize int
	Log       *logger.Logger
	Now       func() time.Time
}

func NewStore(d GraphDriver, log *logger.Logger) *Store {
	return &Store{
		Driver:    d,
		ChunkSize: DefaultChunkSize,
		Log:       logger.OrNop(log).With("component", "store"),
		Now:       time.Now,
	}
}

func (s *Store) Publish(ctx context.Context, res *core.Result) error {
	return s.Save(ctx, res.RunID, res.Enriched, res.Missing.Existence)
}

// Save upserts every node of g and one stub page per link target that is not
// a node. A stub carries the verdict from existence when there is one;
// otherwise its exists property is left unset, since the wiki was never
// asked or did not answer.
func (s *Store) Save(ctx context.Context, runID string, g model.EnrichedGraph, existence model.ExistenceMap) error {
	log := logger.OrNop(s.Log)
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	updatedAt := now().UTC().Format(time.RFC3339)

	nodes := model.NewTitleSet()
	pages := make([]map[string]interface{}, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes.Add(n.ID)
		pages = append(pages, map[string]interface{}{
			"title":          n.ID,
			"exists":         n.Exists,
			"classification": string(n.Classification),
			"aliases":        n.Aliases,
		})
	}
	stubs := model.NewTitleSet()
	links := make([]map[string]interface{}, 0, len(g.Edges))
	for _, e := range g.Edges {
		links = append(links, map[string]interface{}{"source": e.Source, "target": e.Target})
		if !nodes.Has(e.Target) {
			stubs.Add(e.Target)
		}
	}
	for _, t := range stubs.Sorted() {
		var exists interface{}
		if v, ok := existence[t]; ok {
			exists = v
		}
		pages = append(pages, map[string]interface{}{
			"title":          t,
			"exists":         exists,
			"classification": nil,
			"aliases":        []model.Title{},
		})
	}

	for _, chunk := range batch.Split(pages, s.ChunkSize) {
		params := map[string]interface{}{"pages": chunk, "run_id": runID, "updated_at": updatedAt}
		if _, err := s.Driver.ExecuteQuery(ctx, UpsertPagesQuery, params); err != nil {
			return fmt.Errorf("store pages: %w", err)
		}
	}
	for _, chunk := range batch.Split(links, s.ChunkSize) {
		params := map[string]interface{}{"links": chunk, "run_id": runID}
		if _, err := s.Driver.ExecuteQuery(ctx, UpsertLinksQuery, params); err != nil {
			return fmt.Errorf("store links: %w", err)
		}
	}
	for _, q := range []string{PruneStaleLinksQuery, PruneStalePagesQuery} {
		if _, err := s.Driver.ExecuteQuery(ctx, q, map[string]interface{}{"run_id": runID}); err != nil {
			return fmt.Errorf("prune stale graph: %w", err)
		}
	}

	log.Info("graph stored", "run_id", runID, "pages", len(pages), "stubs", stubs.Len(), "links", len(links))
	return nil
}

// TopMissing reads the most referenced missing pages back from the store.
func (s *Store) TopMissing(ctx context.Context, limit int) ([]enrich.MissingEntry, error) {
	res, err := s.Driver.ExecuteQuery(ctx, MissingPagesQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("query missing pages: %w", err)
	}
	out := make([]enrich.MissingEntry, 0, len(res.Records))
	for _, rec := range res.Records {
		title, _ := rec.Get("title")
		refs, _ := rec.Get("references")
		t, _ := title.(string)
		n, _ := refs.(int64)
		out = append(out, enrich.MissingEntry{Title: t, References: int(n)})
	}
	return out, nil
}

// PageRecord is one page read back from the store with its neighbours.
type PageRecord struct {
	Node     model.EnrichedNode
	Outgoing []model.Title
	Incoming []model.Title
}

// Page reads title and its links from the store. A stub page has an empty
// classification and Node.Exists false when its existence is unknown.
func (s *Store) Page(ctx context.Context, title model.Title) (PageRecord, bool, error) {
	res, err := s.Driver.ExecuteQuery(ctx, PageLinksQuery, map[string]interface{}{"title": title})
	if err != nil {
		return PageRecord{}, false, fmt.Errorf("query page %q: %w", title, err)
	}
	if len(res.Records) == 0 {
		return PageRecord{}, false, nil
	}
	rec := res.Records[0]
	get := func(key string) interface{} {
		v, _ := rec.Get(key)
		return v
	}

	id, _ := get("title").(string)
	exists, _ := get("exists").(bool)
	class, _ := get("classification").(string)
	return PageRecord{
		Node: model.EnrichedNode{
			ID:             id,
			Label:          id,
			Exists:         exists,
			Aliases:        toTitles(get("aliases")),
			Classification: model.Classification(class),
		},
		Outgoing: toTitles(get("outgoing")),
		Incoming: toTitles(get("incoming")),
	}, true, nil
}

// toTitles converts a list value returned by the driver, skipping nulls.
func toTitles(v interface{}) []model.Title {
	out := []model.Title{}
	list, _ := v.([]interface{})
	for _, item := range list {
		if t, ok := item.(string); ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
