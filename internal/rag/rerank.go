package rag

import (
	"strings"
	"unicode"

	"azusena/internal/corpus"
	"azusena/internal/policy"
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "al": {}, "con": {}, "como": {}, "cual": {}, "cuales": {}, "cuál": {}, "cuáles": {},
	"de": {}, "del": {}, "el": {}, "en": {}, "es": {}, "la": {}, "las": {}, "lo": {}, "los": {},
	"me": {}, "o": {}, "para": {}, "por": {}, "que": {}, "qué": {}, "se": {}, "sobre": {},
	"son": {}, "su": {}, "sus": {}, "u": {}, "un": {}, "una": {}, "y": {},
}

// Scorer turns raw vector similarity into weighted similarity by adding a
// bounded boost for concept, theme and subtheme overlap.
type Scorer struct {
	rules         []policy.BoostRule
	themeBoost    float64
	subthemeBoost float64
	maxBoost      float64
}

// NewScorer creates a Scorer from the policy boost settings.
func NewScorer(p *policy.Policy) *Scorer {
	return &Scorer{
		rules:         p.BoostRules,
		themeBoost:    p.ThemeBoost,
		subthemeBoost: p.SubthemeBoost,
		maxBoost:      p.MaxBoost,
	}
}

// Score returns min(raw + min(boost, maxBoost), 1).
func (s *Scorer) Score(query string, raw float64, a corpus.Article) float64 {
	boost := s.boost(query, a)
	if boost > s.maxBoost {
		boost = s.maxBoost
	}
	weighted := raw + boost
	if weighted > 1 {
		return 1
	}
	return weighted
}

func (s *Scorer) boost(query string, a corpus.Article) float64 {
	lowerQuery := strings.ToLower(query)
	fields := map[string]string{
		"categories":   strings.ToLower(corpus.Value(a.Categories)),
		"subtheme":     strings.ToLower(corpus.Value(a.Subtheme)),
		"article_text": strings.ToLower(a.Text),
	}

	var boost float64
	for _, rule := range s.rules {
		if !strings.Contains(lowerQuery, strings.ToLower(rule.QueryTerm)) {
			continue
		}
		recordTerm := strings.ToLower(rule.RecordTerm)
		for _, f := range rule.Fields {
			if strings.Contains(fields[f], recordTerm) {
				boost += rule.Increment
				break
			}
		}
	}

	tokens := filterStopwords(tokenize(query))
	if anyContained(tokens, strings.ToLower(a.Theme)) {
		boost += s.themeBoost
	}
	if anyContained(tokens, fields["subtheme"]) {
		boost += s.subthemeBoost
	}
	return boost
}

// anyContained reports whether any token is a substring of field.
func anyContained(tokens []string, field string) bool {
	if field == "" {
		return false
	}
	for _, t := range tokens {
		if strings.Contains(field, t) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
