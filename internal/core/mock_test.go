package core

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/agenthands/linkgraph/internal/core/model"
)

var errUpstream = errors.New("upstream unavailable")

// MockWiki serves a small wiki from memory. Pages are listed PageSize at a
// time; titles in Existing (or Pages) exist, everything else is reported
// missing by CheckExistence.
type MockWiki struct {
	Pages     []model.Title
	PageSize  int
	Links     map[model.Title][]model.Title
	Redirects map[model.Title]model.Title
	Existing  map[model.Title]bool

	ListErrAt     int
	FailLinks     map[model.Title]bool
	FailRedirects bool
	FailExistence bool

	mu         sync.Mutex
	ListCalls  int
	LinkCalls  []model.Title
	ExistCalls [][]model.Title
}

func (m *MockWiki) ListPages(ctx context.Context, token model.Continuation) ([]model.Title, model.Continuation, error) {
	m.mu.Lock()
	m.ListCalls++
	call := m.ListCalls
	m.mu.Unlock()
	if m.ListErrAt > 0 && call >= m.ListErrAt {
		return nil, nil, errUpstream
	}

	size := m.PageSize
	if size <= 0 {
		size = len(m.Pages)
	}
	start := 0
	if token != nil {
		start, _ = strconv.Atoi(token["apcontinue"])
	}
	end := start + size
	if end >= len(m.Pages) {
		return m.Pages[start:], nil, nil
	}
	return m.Pages[start:end], model.Continuation{"apcontinue": strconv.Itoa(end), "continue": "-||"}, nil
}

func (m *MockWiki) PageLinks(ctx context.Context, title model.Title) ([]model.Title, error) {
	m.mu.Lock()
	m.LinkCalls = append(m.LinkCalls, title)
	m.mu.Unlock()
	links := m.Links[title]
	if m.FailLinks[title] {
		// Keep the first link to mimic a listing that broke mid-continuation.
		if len(links) > 0 {
			return links[:1], errUpstream
		}
		return nil, errUpstream
	}
	return links, nil
}

func (m *MockWiki) ResolveRedirects(ctx context.Context, titles []model.Title) (model.RedirectBatch, error) {
	if m.FailRedirects {
		return model.RedirectBatch{}, errUpstream
	}
	var res model.RedirectBatch
	for _, t := range titles {
		cur := t
		for i := 0; i < 10; i++ {
			next, ok := m.Redirects[cur]
			if !ok {
				break
			}
			res.Redirects = append(res.Redirects, model.TitlePair{From: cur, To: next})
			cur = next
		}
		res.Pages = append(res.Pages, cur)
	}
	return res, nil
}

func (m *MockWiki) CheckExistence(ctx context.Context, titles []model.Title) (model.ExistenceMap, error) {
	m.mu.Lock()
	m.ExistCalls = append(m.ExistCalls, append([]model.Title(nil), titles...))
	m.mu.Unlock()
	if m.FailExistence {
		return nil, errUpstream
	}
	out := make(model.ExistenceMap, len(titles))
	pages := model.NewTitleSet(m.Pages...)
	for _, t := range titles {
		out[t] = m.Existing[t] || pages.Has(t)
	}
	return out, nil
}

// recordingSink keeps every published result.
type recordingSink struct {
	results []*Result
	err     error
}

func (s *recordingSink) Publish(ctx context.Context, res *Result) error {
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, res)
	return nil
}

func sortedCopy(titles []model.Title) []model.Title {
	out := append([]model.Title(nil), titles...)
	sort.Strings(out)
	return out
}
