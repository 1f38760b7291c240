package model

import "sort"

// Title identifies a wiki page. It is compared byte-for-byte.
type Title = string

// TitleSet is an unordered set of titles.
type TitleSet map[Title]struct{}

func NewTitleSet(titles ...Title) TitleSet {
	s := make(TitleSet, len(titles))
	for _, t := range titles {
		s[t] = struct{}{}
	}
	return s
}

func (s TitleSet) Add(t Title) {
	s[t] = struct{}{}
}

func (s TitleSet) Has(t Title) bool {
	_, ok := s[t]
	return ok
}

func (s TitleSet) Len() int {
	return len(s)
}

// Union adds every member of other to s.
func (s TitleSet) Union(other TitleSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Sorted returns the members in ascending order. The result is never nil.
func (s TitleSet) Sorted() []Title {
	out := make([]Title, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
