// Package filter decides which outbound link titles belong in the concept
// graph.
package filter

import (
	"regexp"
	"strings"

	"github.com/agenthands/linkgraph/internal/config"
	"github.com/agenthands/linkgraph/internal/core/model"
)

// Reason names the rule that excluded a title.
type Reason string

const (
	Admitted   Reason = ""
	Prefix     Reason = "prefix"
	Keyword    Reason = "keyword"
	NonEnglish Reason = "non-english"
)

// Rules is the immutable rule set a Filter applies.
type Rules struct {
	prefixes   []string
	keywords   []string
	nonEnglish bool
}

func NewRules(prefixes, keywords []string, excludeNonEnglish bool) Rules {
	return Rules{
		prefixes:   append([]string(nil), prefixes...),
		keywords:   append([]string(nil), keywords...),
		nonEnglish: excludeNonEnglish,
	}
}

// DefaultRules excludes the MediaWiki system namespaces, navigation boxes and
// translated pages.
func DefaultRules() Rules {
	return RulesFromConfig(config.Default().Filter)
}

func RulesFromConfig(cfg config.FilterConfig) Rules {
	return NewRules(cfg.ExcludePrefixes, cfg.ExcludeKeywords, cfg.ExcludeNonEnglish)
}

func (r Rules) Prefixes() []string { return append([]string(nil), r.prefixes...) }
func (r Rules) Keywords() []string { return append([]string(nil), r.keywords...) }

var languageSuffix = regexp.MustCompile(`/[a-z]{2}$`)

// IsNonEnglish reports whether title is a translation subpage such as
// "Topic/ko" or contains Hangul.
func IsNonEnglish(title model.Title) bool {
	if languageSuffix.MatchString(title) {
		return true
	}
	for _, r := range title {
		if isHangul(r) {
			return true
		}
	}
	return false
}

func isHangul(r rune) bool {
	return (r >= 0xAC00 && r <= 0xD7AF) || (r >= 0x1100 && r <= 0x11FF)
}

type Filter struct {
	rules Rules
}

func New(rules Rules) *Filter {
	return &Filter{rules: rules}
}

// SkipsNonEnglish reports whether translated pages are excluded. A nil
// Filter excludes nothing.
func (f *Filter) SkipsNonEnglish() bool {
	return f != nil && f.rules.nonEnglish
}

// Classify returns the first rule that excludes title, or Admitted.
// Prefixes are checked before keywords, keywords before language.
func (f *Filter) Classify(title model.Title) Reason {
	for _, p := range f.rules.prefixes {
		if strings.HasPrefix(title, p) {
			return Prefix
		}
	}
	for _, k := range f.rules.keywords {
		if strings.Contains(title, k) {
			return Keyword
		}
	}
	if f.rules.nonEnglish && IsNonEnglish(title) {
		return NonEnglish
	}
	return Admitted
}

// Filter returns the admitted links in their original order. Duplicates are
// kept.
func (f *Filter) Filter(links []model.Title) []model.Title {
	out, _ := f.FilterWithReport(links)
	return out
}

// Exclusion is one rejected link.
type Exclusion struct {
	Title  model.Title
	Reason Reason
}

type Report struct {
	Admitted int
	Excluded []Exclusion
	ByReason map[Reason]int
}

func (f *Filter) FilterWithReport(links []model.Title) ([]model.Title, Report) {
	out := make([]model.Title, 0, len(links))
	report := Report{ByReason: make(map[Reason]int)}
	for _, link := range links {
		reason := f.Classify(link)
		if reason != Admitted {
			report.Excluded = append(report.Excluded, Exclusion{Title: link, Reason: reason})
			report.ByReason[reason]++
			continue
		}
		out = append(out, link)
	}
	report.Admitted = len(out)
	return out, report
}
