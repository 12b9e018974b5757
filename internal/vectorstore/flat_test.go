package vectorstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func seededFlatStore(t *testing.T) *FlatStore {
	t.Helper()
	ctx := context.Background()
	s := NewFlatStore()
	if err := s.Reset(ctx, 2); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	points := []Point{
		{ID: "a", Vec: []float32{1, 0}, Meta: map[string]any{"article_id": float64(1)}},
		{ID: "b", Vec: []float32{0.6, 0.8}, Meta: map[string]any{"article_id": float64(2)}},
		{ID: "c", Vec: []float32{0, 1}, Meta: map[string]any{"article_id": float64(3)}},
	}
	if err := s.Upsert(ctx, points); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return s
}

func TestFlatStore_Search(t *testing.T) {
	ctx := context.Background()
	s := seededFlatStore(t)

	tests := []struct {
		name    string
		query   []float32
		k       int
		wantIDs []string
	}{
		{name: "closest first", query: []float32{1, 0}, k: 3, wantIDs: []string{"a", "b", "c"}},
		{name: "other axis", query: []float32{0, 1}, k: 2, wantIDs: []string{"c", "b"}},
		{name: "k larger than store", query: []float32{1, 0}, k: 10, wantIDs: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.query, tt.k)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Search() returned %d results, want %d", len(got), len(tt.wantIDs))
			}
			for i, r := range got {
				if r.PointID != tt.wantIDs[i] {
					t.Errorf("Search()[%d] = %s, want %s", i, r.PointID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestFlatStore_EmptyAndErrors(t *testing.T) {
	ctx := context.Background()
	s := NewFlatStore()

	got, err := s.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() on empty store error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() on empty store = %v, want empty", got)
	}

	if _, err := s.Search(ctx, []float32{1, 0}, 0); err == nil {
		t.Error("Search() with k=0 expected error")
	}

	s = seededFlatStore(t)
	if _, err := s.Search(ctx, []float32{1, 0, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search() dimension error = %v, want ErrDimensionMismatch", err)
	}
	if err := s.Upsert(ctx, []Point{{ID: "d", Vec: []float32{1}}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Upsert() dimension error = %v, want ErrDimensionMismatch", err)
	}
}

func TestFlatStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := seededFlatStore(t)

	if err := s.Upsert(ctx, []Point{{ID: "a", Vec: []float32{0, 1}}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	count, _ := s.Count(ctx)
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
	got, _ := s.Search(ctx, []float32{1, 0}, 1)
	if got[0].PointID != "b" {
		t.Errorf("Search() top = %s, want b after replacing a", got[0].PointID)
	}
}

func TestFlatStore_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	s := seededFlatStore(t)
	path := filepath.Join(t.TempDir(), "index.db")

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Saving twice overwrites the file.
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() second call error = %v", err)
	}

	loaded, err := OpenFlatStore(path)
	if err != nil {
		t.Fatalf("OpenFlatStore() error = %v", err)
	}

	count, _ := loaded.Count(ctx)
	if count != 3 {
		t.Fatalf("loaded Count() = %d, want 3", count)
	}

	query := []float32{0.8, 0.6}
	want, _ := s.Search(ctx, query, 3)
	got, err := loaded.Search(ctx, query, 3)
	if err != nil {
		t.Fatalf("loaded Search() error = %v", err)
	}
	for i := range want {
		if got[i].PointID != want[i].PointID || got[i].Score != want[i].Score {
			t.Errorf("loaded Search()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if got[0].Meta["article_id"] != want[0].Meta["article_id"] {
		t.Errorf("payload lost: got %v, want %v", got[0].Meta, want[0].Meta)
	}
}

func TestOpenFlatStore_Missing(t *testing.T) {
	if _, err := OpenFlatStore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("OpenFlatStore() on missing file expected error")
	}
}

func TestFlatStore_StageAndPromote(t *testing.T) {
	ctx := context.Background()
	s := seededFlatStore(t)

	staged, err := s.Stage(ctx, 3)
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if err := staged.Upsert(ctx, []Point{{ID: "x", Vec: []float32{0, 0, 1}}}); err != nil {
		t.Fatalf("staged Upsert() error = %v", err)
	}

	// Staged points stay invisible until promoted.
	if count, _ := s.Count(ctx); count != 3 {
		t.Errorf("Count() before Promote = %d, want 3", count)
	}
	if _, err := s.Search(ctx, []float32{1, 0}, 1); err != nil {
		t.Errorf("Search() before Promote error = %v", err)
	}

	if err := s.Promote(ctx, staged); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	got, err := s.Search(ctx, []float32{0, 0, 1}, 5)
	if err != nil {
		t.Fatalf("Search() after Promote error = %v", err)
	}
	if len(got) != 1 || got[0].PointID != "x" {
		t.Errorf("Search() after Promote = %+v", got)
	}

	if err := s.Promote(ctx, nil); err != nil {
		t.Fatalf("Promote(nil) error = %v", err)
	}
	if count, _ := s.Count(ctx); count != 0 {
		t.Errorf("Count() after Promote(nil) = %d, want 0", count)
	}

	if err := s.Promote(ctx, &QdrantStore{}); !errors.Is(err, ErrForeignStore) {
		t.Errorf("Promote(foreign) error = %v, want ErrForeignStore", err)
	}
	if _, err := s.Stage(ctx, 0); err == nil {
		t.Error("Stage(0) expected error")
	}
}

func TestFlatStore_SaveFailureKeepsFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	if err := seededFlatStore(t).Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// A directory in the way of the temp file makes the next save fail.
	if err := os.Mkdir(path+".tmp", 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(path+".tmp", "busy"), nil, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := NewFlatStore().Save(path); err == nil {
		t.Fatal("Save() expected error")
	}

	staged, err := NewFlatStore().LoadStaged(path)
	if err != nil {
		t.Fatalf("LoadStaged() error = %v", err)
	}
	if count, _ := staged.Count(ctx); count != 3 {
		t.Errorf("previous index file lost: Count() = %d, want 3", count)
	}
}
