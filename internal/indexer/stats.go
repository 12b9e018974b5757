package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"azusena/internal/corpus"
)

const (
	// CompositeVersion identifies the layout of corpus.Article.CompositeText.
	// Update this when the embedding input changes.
	CompositeVersion = "v1"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// IndexStats describes an index build.
type IndexStats struct {
	// ArticlesIndexed is the number of articles with text, one vector each.
	ArticlesIndexed int `json:"articles_indexed"`
	// ArticlesIncomplete is the number of rows stored without text.
	ArticlesIncomplete int `json:"articles_incomplete"`
	// TokenStats contains statistics about estimated tokens per embedding input.
	TokenStats TokenStats `json:"token_stats"`
	// CorpusHash identifies the indexed content.
	CorpusHash string `json:"corpus_hash"`
	// IndexVersion is a hash identifying the build (composite layout + embedding model + corpus).
	IndexVersion string `json:"index_version"`
	// Reused is true when an existing index was kept.
	Reused bool `json:"reused"`
}

// TokenStats contains statistics about token counts of embedding inputs.
type TokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeIndexStats computes build statistics for c under the given embedding model.
func ComputeIndexStats(c *corpus.Corpus, embeddingModelName string) *IndexStats {
	stats := &IndexStats{
		ArticlesIndexed:    len(c.Articles),
		ArticlesIncomplete: len(c.Incomplete),
		CorpusHash:         c.Hash(),
	}

	if len(c.Articles) > 0 {
		tokenCounts := make([]int, 0, len(c.Articles))
		for _, a := range c.Articles {
			// Estimate tokens from rune count (approximation: ~4 chars per token)
			runeCount := utf8.RuneCountInString(a.CompositeText())
			tokenCount := int(math.Round(float64(runeCount) / TokensPerRune))
			if tokenCount < 1 {
				tokenCount = 1 // Minimum 1 token
			}
			tokenCounts = append(tokenCounts, tokenCount)
		}
		stats.TokenStats = computeTokenStats(tokenCounts)
	}

	indexVersionInput := fmt.Sprintf("%s|%s|%s", CompositeVersion, embeddingModelName, stats.CorpusHash)
	hash := sha256.Sum256([]byte(indexVersionInput))
	stats.IndexVersion = hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits

	return stats
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) TokenStats {
	if len(tokenCounts) == 0 {
		return TokenStats{}
	}

	// Sort for percentile calculation
	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return TokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
