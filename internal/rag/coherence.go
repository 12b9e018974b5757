package rag

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"azusena/internal/contextutil"
	"azusena/internal/policy"
)

// ThemeGroup holds the matches sharing one theme, best first.
type ThemeGroup struct {
	Theme   string
	Matches []ScoredMatch
}

// Best returns the highest weighted similarity in the group.
func (g ThemeGroup) Best() float64 {
	var best float64
	for i, m := range g.Matches {
		if i == 0 || m.Weighted > best {
			best = m.Weighted
		}
	}
	return best
}

// groupByTheme groups matches by theme, keeping first-seen order of themes and matches.
func groupByTheme(matches []ScoredMatch) []ThemeGroup {
	index := make(map[string]int)
	var groups []ThemeGroup
	for _, m := range matches {
		i, ok := index[m.Article.Theme]
		if !ok {
			i = len(groups)
			index[m.Article.Theme] = i
			groups = append(groups, ThemeGroup{Theme: m.Article.Theme})
		}
		groups[i].Matches = append(groups[i].Matches, m)
	}
	return groups
}

// CoherenceEvaluator judges whether the themes of a result set relate to what was asked.
type CoherenceEvaluator struct {
	families []policy.Family
	minRatio float64
}

// NewCoherenceEvaluator creates an evaluator over the policy term families.
func NewCoherenceEvaluator(families []policy.Family, minRatio float64) *CoherenceEvaluator {
	return &CoherenceEvaluator{families: families, minRatio: minRatio}
}

// Evaluate returns whether at least minRatio of the themes are relevant to the
// query, together with the ratio. A theme is relevant when some family matching
// the query accepts it. Query terms match whole words, so a request for
// "artículos" about a topic is not an article request. No groups is incoherent.
func (c *CoherenceEvaluator) Evaluate(ctx context.Context, query string, groups []ThemeGroup) (bool, float64) {
	if len(groups) == 0 {
		return false, 0
	}

	lowerQuery := strings.ToLower(query)
	var matched []policy.Family
	for _, f := range c.families {
		if containsAnyWord(lowerQuery, f.QueryTerms) {
			matched = append(matched, f)
		}
	}

	relevant := 0
	for _, g := range groups {
		theme := strings.ToLower(g.Theme)
		for _, f := range matched {
			if f.AnyTheme || containsAny(theme, f.ThemeTerms) {
				relevant++
				break
			}
		}
	}

	ratio := float64(relevant) / float64(len(groups))
	coherent := ratio >= c.minRatio

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "coherence evaluated",
		"relevant_themes", relevant,
		"total_themes", len(groups),
		"ratio", ratio,
		"coherent", coherent,
	)
	return coherent, ratio
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func containsAnyWord(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && containsWord(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// containsWord reports whether term occurs in s without a letter or digit
// directly before or after it.
func containsWord(s, term string) bool {
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
