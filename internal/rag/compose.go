package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"azusena/internal/corpus"
)

const (
	maxClarificationThemes = 3
	maxExamplesPerTheme    = 2
	maxConservativeMatches = 3
	maxMatchesPerSubtheme  = 5
	maxExcerptRunes        = 300

	defaultSubtheme = "General"
)

const msgNoRelevantInformation = "No encontré información suficientemente relevante para tu consulta."

// Composer renders validated, scored matches as one of the answer shapes:
// empty, conservative, clarification or complete.
type Composer struct {
	validator *Validator
	coherence *CoherenceEvaluator
}

// NewComposer creates a Composer.
func NewComposer(validator *Validator, coherence *CoherenceEvaluator) *Composer {
	return &Composer{validator: validator, coherence: coherence}
}

// Compose validates matches (ordered best first), checks their coherence and
// returns the answer text with the best similarity among the matches shown.
func (c *Composer) Compose(ctx context.Context, query string, matches []ScoredMatch) (string, float64) {
	valid := c.validator.Validate(ctx, matches)
	if len(valid) == 0 {
		return msgNoRelevantInformation, 0
	}

	groups := groupByTheme(valid)
	if coherent, _ := c.coherence.Evaluate(ctx, query, groups); !coherent {
		return conservative(valid)
	}
	if len(groups) > 1 {
		return clarification(groups)
	}
	return complete(groups[0])
}

// conservative cites the top matches without their text.
func conservative(matches []ScoredMatch) (string, float64) {
	if len(matches) == 0 {
		return msgNoRelevantInformation, 0
	}
	if len(matches) > maxConservativeMatches {
		matches = matches[:maxConservativeMatches]
	}

	parts := []string{"Basándome en mi base de datos, encontré la siguiente información relevante:\n"}
	var best float64
	for i, m := range matches {
		best = max(best, m.Weighted)
		parts = append(parts,
			fmt.Sprintf("%d. **Artículo %s** (%s)", i+1, m.Article.Number, m.Article.Source),
			fmt.Sprintf("   - Tema: %s", m.Article.Theme),
			fmt.Sprintf("   - Relevancia: %s\n", percent(m.Weighted)),
		)
	}
	parts = append(parts, "¿Te gustaría obtener más detalles sobre algún artículo específico? Pregúntame por su número, por ejemplo \"artículo "+matches[0].Article.Number+"\".")
	return strings.Join(parts, "\n"), best
}

// clarification asks the user to choose among the most relevant themes.
func clarification(groups []ThemeGroup) (string, float64) {
	sorted := make([]ThemeGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Best() > sorted[j].Best()
	})
	if len(sorted) > maxClarificationThemes {
		sorted = sorted[:maxClarificationThemes]
	}

	parts := []string{"Encontré información relacionada con varios temas. ¿Sobre cuál te gustaría saber más?\n"}
	var best float64
	for i, g := range sorted {
		groupBest := g.Best()
		best = max(best, groupBest)

		examples := g.Matches
		if len(examples) > maxExamplesPerTheme {
			examples = examples[:maxExamplesPerTheme]
		}
		numbers := make([]string, len(examples))
		for j, m := range examples {
			numbers[j] = m.Article.Number
		}

		parts = append(parts,
			fmt.Sprintf("%d. **%s**", i+1, g.Theme),
			fmt.Sprintf("   - %d artículo(s) relacionado(s)", len(g.Matches)),
			fmt.Sprintf("   - Relevancia máxima: %s", percent(groupBest)),
			fmt.Sprintf("   - Ejemplos: Artículos %s\n", strings.Join(numbers, ", ")),
		)
	}
	parts = append(parts, "Por favor, especifica sobre qué tema te gustaría obtener información detallada.")
	return strings.Join(parts, "\n"), best
}

// complete renders one theme grouped by subtheme with article excerpts.
func complete(group ThemeGroup) (string, float64) {
	type subthemeGroup struct {
		name    string
		matches []ScoredMatch
	}
	index := make(map[string]int)
	var subthemes []subthemeGroup
	for _, m := range group.Matches {
		name := corpus.Value(m.Article.Subtheme)
		if name == "" {
			name = defaultSubtheme
		}
		i, ok := index[name]
		if !ok {
			i = len(subthemes)
			index[name] = i
			subthemes = append(subthemes, subthemeGroup{name: name})
		}
		subthemes[i].matches = append(subthemes[i].matches, m)
	}

	parts := []string{fmt.Sprintf("## 📋 **%s**\n", group.Theme)}
	var best float64
	for _, sg := range subthemes {
		if sg.name != defaultSubtheme {
			parts = append(parts, fmt.Sprintf("### 🔸 **%s**", sg.name))
		}
		shown := sg.matches
		if len(shown) > maxMatchesPerSubtheme {
			shown = shown[:maxMatchesPerSubtheme]
		}
		for _, m := range shown {
			best = max(best, m.Weighted)
			parts = append(parts,
				fmt.Sprintf("**Artículo %s** (%s) - Relevancia: %s", m.Article.Number, m.Article.Source, percent(m.Weighted)),
				truncate(m.Article.Text, maxExcerptRunes)+"\n",
			)
		}
	}
	parts = append(parts, "💡 **Sugerencia:** Para obtener información completa sobre un artículo específico, pregúntame directamente por su número.")
	return strings.Join(parts, "\n"), best
}

// percent formats a similarity as a percentage with one decimal.
func percent(similarity float64) string {
	return fmt.Sprintf("%.1f%%", similarity*100)
}

// truncate shortens s to n runes, appending "..." when it was longer.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
