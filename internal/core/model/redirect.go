package model

import "sort"

// Resolution records how a title's canonical form was established.
type Resolution int

const (
	// Unresolved means the batch carrying the title failed. The title maps to
	// itself but nothing is known about it.
	Unresolved Resolution = iota
	// Defaulted means the batch succeeded but the service did not mention the
	// title. It maps to itself.
	Defaulted
	// Canonical means the service reported the title as a page of its own.
	Canonical
	// Redirected means the service reported the title as a redirect source.
	Redirected
)

func (r Resolution) String() string {
	switch r {
	case Unresolved:
		return "unresolved"
	case Defaulted:
		return "defaulted"
	case Canonical:
		return "canonical"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

type RedirectEntry struct {
	Target     Title
	Resolution Resolution
}

// RedirectMap maps titles to their canonical title along with the way each
// mapping was established.
type RedirectMap struct {
	entries map[Title]RedirectEntry
}

func NewRedirectMap() *RedirectMap {
	return &RedirectMap{entries: make(map[Title]RedirectEntry)}
}

// RedirectMapOf builds a map from plain from -> to pairs. Pairs with
// from == to are recorded as Canonical, the rest as Redirected.
func RedirectMapOf(pairs map[Title]Title) *RedirectMap {
	m := NewRedirectMap()
	for from, to := range pairs {
		if from == to {
			m.Record(from, to, Canonical)
		} else {
			m.Record(from, to, Redirected)
		}
	}
	return m
}

// IdentityRedirectMap maps every title to itself.
func IdentityRedirectMap(titles ...Title) *RedirectMap {
	m := NewRedirectMap()
	for _, t := range titles {
		m.Record(t, t, Canonical)
	}
	return m
}

// Record stores from -> to unless a stronger resolution is already present.
// A Redirected mapping always replaces an earlier one.
func (m *RedirectMap) Record(from, to Title, r Resolution) {
	if cur, ok := m.entries[from]; ok && cur.Resolution > r {
		return
	}
	if r != Redirected {
		to = from
	}
	m.entries[from] = RedirectEntry{Target: to, Resolution: r}
}

func (m *RedirectMap) Lookup(t Title) (RedirectEntry, bool) {
	if m == nil {
		return RedirectEntry{}, false
	}
	e, ok := m.entries[t]
	return e, ok
}

// Canonical returns the canonical title for t, or t itself when the map has
// no entry.
func (m *RedirectMap) Canonical(t Title) Title {
	if e, ok := m.Lookup(t); ok {
		return e.Target
	}
	return t
}

func (m *RedirectMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Titles returns every mapped title in ascending order.
func (m *RedirectMap) Titles() []Title {
	out := make([]Title, 0, m.Len())
	if m == nil {
		return out
	}
	for t := range m.entries {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of entries with the given resolution.
func (m *RedirectMap) Count(r Resolution) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, e := range m.entries {
		if e.Resolution == r {
			n++
		}
	}
	return n
}

// Unresolved lists the titles whose batch failed, sorted.
func (m *RedirectMap) Unresolved() []Title {
	var out []Title
	if m == nil {
		return out
	}
	for t, e := range m.entries {
		if e.Resolution == Unresolved {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Flatten rewrites every redirect to point at the end of its chain so the
// map is idempotent: Canonical(Canonical(t)) == Canonical(t). Members of a
// redirect cycle all map to the smallest title in the cycle.
func (m *RedirectMap) Flatten() {
	if m == nil {
		return
	}
	for from, e := range m.entries {
		if e.Target == from {
			continue
		}
		m.entries[from] = m.chainEnd(from)
	}
}

func (m *RedirectMap) chainEnd(from Title) RedirectEntry {
	path := []Title{from}
	onPath := map[Title]int{from: 0}
	cur := m.entries[from].Target
	for {
		if idx, loop := onPath[cur]; loop {
			smallest := path[idx]
			for _, t := range path[idx:] {
				if t < smallest {
					smallest = t
				}
			}
			if smallest == from {
				return RedirectEntry{Target: from, Resolution: Canonical}
			}
			return RedirectEntry{Target: smallest, Resolution: Redirected}
		}
		next, ok := m.entries[cur]
		if !ok || next.Target == cur {
			return RedirectEntry{Target: cur, Resolution: Redirected}
		}
		onPath[cur] = len(path)
		path = append(path, cur)
		cur = next.Target
	}
}

// TitlePair is a from -> to mapping reported by the wiki.
type TitlePair struct {
	From Title
	To   Title
}

// RedirectBatch is what the redirect-lookup service returns for one batch.
// Normalized holds title-case or namespace normalizations, Redirects the
// redirect hops, and Pages the titles the query resolved to.
type RedirectBatch struct {
	Normalized []TitlePair
	Redirects  []TitlePair
	Pages      []Title
}
