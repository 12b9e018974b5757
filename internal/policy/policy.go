// Package policy holds the tunable retrieval parameters: thresholds, boost
// increments, the query expansion map and the coherence term families.
package policy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Concept maps a trigger term to the related terms appended to a query.
type Concept struct {
	Trigger string   `yaml:"trigger"`
	Related []string `yaml:"related"`
}

// BoostRule adds Increment when QueryTerm appears in the query and RecordTerm
// appears in at least one of the named record Fields.
// Valid field names are "categories", "subtheme" and "article_text".
type BoostRule struct {
	QueryTerm  string   `yaml:"query_term"`
	RecordTerm string   `yaml:"record_term"`
	Fields     []string `yaml:"fields"`
	Increment  float64  `yaml:"increment"`
}

// Family is a query classification used by the coherence check. A theme is
// relevant to the family when it contains one of ThemeTerms. AnyTheme marks
// families for which every theme counts as relevant.
type Family struct {
	Name       string   `yaml:"name"`
	QueryTerms []string `yaml:"query_terms"`
	ThemeTerms []string `yaml:"theme_terms"`
	AnyTheme   bool     `yaml:"any_theme"`
}

// Policy is the complete set of retrieval parameters.
type Policy struct {
	// KnowledgeBaseThreshold is the weighted similarity a list request needs to be
	// answered straight from the corpus.
	KnowledgeBaseThreshold float64 `yaml:"knowledge_base_threshold"`
	// ContextThreshold is the weighted similarity a match needs to be used as
	// generation context.
	ContextThreshold float64 `yaml:"context_threshold"`
	// MatchThreshold drops matches below it before composition.
	MatchThreshold   float64 `yaml:"match_threshold"`
	CoherenceRatio   float64 `yaml:"coherence_ratio"`
	MaxBoost         float64 `yaml:"max_boost"`
	ThemeBoost       float64 `yaml:"theme_boost"`
	SubthemeBoost    float64 `yaml:"subtheme_boost"`
	MinContentLength int     `yaml:"min_content_length"`

	TopK          int `yaml:"top_k"`
	ContextTopK   int `yaml:"context_top_k"`
	HistoryWindow int `yaml:"history_window"`
	MaxHistory    int `yaml:"max_history"`

	Concepts   []Concept   `yaml:"concepts"`
	BoostRules []BoostRule `yaml:"boost_rules"`
	Families   []Family    `yaml:"families"`
}

// Default returns the production parameters.
func Default() *Policy {
	return &Policy{
		KnowledgeBaseThreshold: 0.65,
		ContextThreshold:       0.3,
		MatchThreshold:         0.4,
		CoherenceRatio:         0.6,
		MaxBoost:               0.3,
		ThemeBoost:             0.05,
		SubthemeBoost:          0.10,
		MinContentLength:       10,
		TopK:                   10,
		ContextTopK:            5,
		HistoryWindow:          6,
		MaxHistory:             10,
		Concepts:               defaultConcepts(),
		BoostRules:             defaultBoostRules(),
		Families:               defaultFamilies(),
	}
}

func defaultConcepts() []Concept {
	return []Concept{
		{Trigger: "objeto", Related: []string{"finalidad", "propósito", "objetivo", "meta"}},
		{Trigger: "garantizar", Related: []string{"asegurar", "proteger", "salvaguardar"}},
		{Trigger: "derechos", Related: []string{"derechos fundamentales", "derechos irrenunciables"}},
		{Trigger: "protección", Related: []string{"amparo", "cobertura", "resguardo"}},
		{Trigger: "contingencias", Related: []string{"riesgos", "eventualidades", "situaciones"}},
		{Trigger: "calidad de vida", Related: []string{"bienestar", "dignidad humana"}},
		{Trigger: "principios", Related: []string{"fundamentos", "bases", "criterios"}},
		{Trigger: "cobertura", Related: []string{"alcance", "extensión", "ámbito"}},
	}
}

func defaultBoostRules() []BoostRule {
	return []BoostRule{
		{QueryTerm: "objeto", RecordTerm: "objeto", Fields: []string{"categories", "subtheme"}, Increment: 0.15},
		{QueryTerm: "garantizar", RecordTerm: "garantizar", Fields: []string{"article_text"}, Increment: 0.1},
		{QueryTerm: "derecho", RecordTerm: "derecho", Fields: []string{"categories"}, Increment: 0.1},
		{QueryTerm: "protec", RecordTerm: "protec", Fields: []string{"article_text"}, Increment: 0.1},
		{QueryTerm: "contingencia", RecordTerm: "contingencia", Fields: []string{"article_text"}, Increment: 0.1},
		{QueryTerm: "principio", RecordTerm: "principio", Fields: []string{"categories"}, Increment: 0.1},
	}
}

// defaultFamilies is ordered: the first family matching a query decides
// relevance, with the permissive article family last.
func defaultFamilies() []Family {
	return []Family{
		{
			Name:       "quality",
			QueryTerms: []string{"calidad", "estándares", "acreditación", "certificación"},
			ThemeTerms: []string{"calidad", "acreditación", "estándares"},
		},
		{
			Name:       "health",
			QueryTerms: []string{"salud", "médico", "atención", "servicios"},
			ThemeTerms: []string{"salud", "atención", "servicios"},
		},
		{
			Name:       "law",
			QueryTerms: []string{"ley 100", "ley cien", "normativa"},
			ThemeTerms: []string{"ley", "normativa", "regulación"},
		},
		{
			Name:       "article",
			QueryTerms: []string{"artículo", "art.", "articulo"},
			AnyTheme:   true,
		},
	}
}

// Load reads a policy from a YAML file. An empty path or a missing file yields
// the defaults; fields left at zero in the file are back-filled.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func applyDefaults(p *Policy) {
	d := Default()
	if p.KnowledgeBaseThreshold == 0 {
		p.KnowledgeBaseThreshold = d.KnowledgeBaseThreshold
	}
	if p.ContextThreshold == 0 {
		p.ContextThreshold = d.ContextThreshold
	}
	if p.MatchThreshold == 0 {
		p.MatchThreshold = d.MatchThreshold
	}
	if p.CoherenceRatio == 0 {
		p.CoherenceRatio = d.CoherenceRatio
	}
	if p.MaxBoost == 0 {
		p.MaxBoost = d.MaxBoost
	}
	if p.ThemeBoost == 0 {
		p.ThemeBoost = d.ThemeBoost
	}
	if p.SubthemeBoost == 0 {
		p.SubthemeBoost = d.SubthemeBoost
	}
	if p.MinContentLength == 0 {
		p.MinContentLength = d.MinContentLength
	}
	if p.TopK == 0 {
		p.TopK = d.TopK
	}
	if p.ContextTopK == 0 {
		p.ContextTopK = d.ContextTopK
	}
	if p.HistoryWindow == 0 {
		p.HistoryWindow = d.HistoryWindow
	}
	if p.MaxHistory == 0 {
		p.MaxHistory = d.MaxHistory
	}
	if p.Concepts == nil {
		p.Concepts = d.Concepts
	}
	if p.BoostRules == nil {
		p.BoostRules = d.BoostRules
	}
	if p.Families == nil {
		p.Families = d.Families
	}
}

// MaxHistoryLimit is the largest conversation history a policy may keep.
const MaxHistoryLimit = 10

// Validate checks that thresholds are in range, boosts never lower a score,
// the history fits the conversation cap and boost rules name known fields.
func (p *Policy) Validate() error {
	for name, v := range map[string]float64{
		"knowledge_base_threshold": p.KnowledgeBaseThreshold,
		"context_threshold":        p.ContextThreshold,
		"match_threshold":          p.MatchThreshold,
		"coherence_ratio":          p.CoherenceRatio,
		"max_boost":                p.MaxBoost,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("policy %s must be within [0, 1], got %v", name, v)
		}
	}
	if p.TopK < 1 || p.ContextTopK < 1 {
		return fmt.Errorf("policy top_k and context_top_k must be positive")
	}
	for name, v := range map[string]float64{
		"theme_boost":    p.ThemeBoost,
		"subtheme_boost": p.SubthemeBoost,
	} {
		if v < 0 {
			return fmt.Errorf("policy %s must not be negative, got %v", name, v)
		}
	}
	if p.MaxHistory < 1 || p.MaxHistory > MaxHistoryLimit {
		return fmt.Errorf("policy max_history must be within [1, %d], got %d", MaxHistoryLimit, p.MaxHistory)
	}
	if p.HistoryWindow < 0 || p.HistoryWindow > p.MaxHistory {
		return fmt.Errorf("policy history_window must be within [0, %d], got %d", p.MaxHistory, p.HistoryWindow)
	}
	for _, rule := range p.BoostRules {
		if rule.QueryTerm == "" || rule.RecordTerm == "" {
			return fmt.Errorf("policy boost rule terms must not be empty")
		}
		if rule.Increment < 0 {
			return fmt.Errorf("policy boost rule %q increment must not be negative, got %v", rule.QueryTerm, rule.Increment)
		}
		for _, f := range rule.Fields {
			switch f {
			case "categories", "subtheme", "article_text":
			default:
				return fmt.Errorf("policy boost rule %q names unknown field %q", rule.QueryTerm, f)
			}
		}
	}
	return nil
}
