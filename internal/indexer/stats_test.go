package indexer

import (
	"testing"

	"azusena/internal/corpus"
)

func TestComputeIndexStats(t *testing.T) {
	c := testCorpus()

	stats := ComputeIndexStats(c, "model-a")
	if stats.ArticlesIndexed != 3 || stats.ArticlesIncomplete != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.TokenStats.Min < 1 || stats.TokenStats.Max < stats.TokenStats.Min {
		t.Errorf("TokenStats = %+v", stats.TokenStats)
	}
	if len(stats.IndexVersion) != 16 {
		t.Errorf("IndexVersion = %q, want 16 hex chars", stats.IndexVersion)
	}

	other := ComputeIndexStats(c, "model-b")
	if other.IndexVersion == stats.IndexVersion {
		t.Error("IndexVersion should change with the embedding model")
	}

	empty := ComputeIndexStats(&corpus.Corpus{}, "model-a")
	if empty.TokenStats != (TokenStats{}) {
		t.Errorf("empty corpus TokenStats = %+v", empty.TokenStats)
	}
}

func TestComputeTokenStats(t *testing.T) {
	tests := []struct {
		name        string
		tokenCounts []int
		want        TokenStats
	}{
		{
			name:        "empty",
			tokenCounts: []int{},
			want:        TokenStats{},
		},
		{
			name:        "single value",
			tokenCounts: []int{10},
			want:        TokenStats{Min: 10, Max: 10, Mean: 10.0, P95: 10},
		},
		{
			name:        "unsorted values",
			tokenCounts: []int{30, 5, 20, 10, 15},
			want:        TokenStats{Min: 5, Max: 30, Mean: 16.0, P95: 30},
		},
		{
			name:        "many values for p95",
			tokenCounts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
			want:        TokenStats{Min: 1, Max: 20, Mean: 10.5, P95: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTokenStats(tt.tokenCounts)
			if got != tt.want {
				t.Errorf("computeTokenStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
