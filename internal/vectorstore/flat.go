package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"azusena/internal/contextutil"
)

var (
	vectorsBucket = []byte("vectors")
	metaBucket    = []byte("meta")
	dimKey        = []byte("dim")
)

type flatEntry struct {
	vec  []float32
	meta map[string]any
}

// FlatStore is an exact in-memory inner-product index. It can be persisted
// to a bbolt file with Save and reopened with OpenFlatStore.
type FlatStore struct {
	mu      sync.RWMutex
	dim     int
	ids     []string
	entries map[string]flatEntry
}

// NewFlatStore creates an empty flat index.
func NewFlatStore() *FlatStore {
	return &FlatStore{entries: make(map[string]flatEntry)}
}

// Reset drops every point and fixes the vector dimension.
func (s *FlatStore) Reset(_ context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = dim
	s.ids = nil
	s.entries = make(map[string]flatEntry)
	return nil
}

// Stage returns a new FlatStore for vectors of size dim.
func (s *FlatStore) Stage(ctx context.Context, dim int) (VectorStore, error) {
	staged := NewFlatStore()
	if err := staged.Reset(ctx, dim); err != nil {
		return nil, err
	}
	return staged, nil
}

// Promote swaps in the points of staged, which must be a *FlatStore.
func (s *FlatStore) Promote(_ context.Context, staged VectorStore) error {
	if staged == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dim = 0
		s.ids = nil
		s.entries = make(map[string]flatEntry)
		return nil
	}

	src, ok := staged.(*FlatStore)
	if !ok {
		return fmt.Errorf("flat store cannot promote %T: %w", staged, ErrForeignStore)
	}
	if src == s {
		return nil
	}

	src.mu.RLock()
	dim, ids, entries := src.dim, src.ids, src.entries
	src.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = dim
	s.ids = ids
	s.entries = entries
	return nil
}

// Discard is a no-op; a staged FlatStore is reclaimed by the garbage collector.
func (s *FlatStore) Discard(context.Context, VectorStore) error {
	return nil
}

// Upsert inserts or replaces points.
func (s *FlatStore) Upsert(ctx context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if s.dim == 0 {
			s.dim = len(p.Vec)
		}
		if len(p.Vec) != s.dim {
			return fmt.Errorf("point %s has %d dimensions, want %d: %w", p.ID, len(p.Vec), s.dim, ErrDimensionMismatch)
		}
		if _, ok := s.entries[p.ID]; !ok {
			s.ids = append(s.ids, p.ID)
		}
		vec := make([]float32, len(p.Vec))
		copy(vec, p.Vec)
		s.entries[p.ID] = flatEntry{vec: vec, meta: p.Meta}
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "upserted points", "backend", "flat", "count", len(points))
	return nil
}

// Search scores every point against query and returns the k best.
func (s *FlatStore) Search(_ context.Context, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.ids) == 0 {
		return []SearchResult{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query has %d dimensions, want %d: %w", len(query), s.dim, ErrDimensionMismatch)
	}

	results := make([]SearchResult, 0, len(s.ids))
	for _, id := range s.ids {
		e := s.entries[id]
		results = append(results, SearchResult{PointID: id, Score: dot(query, e.vec), Meta: e.meta})
	}

	// Stable so equal scores keep insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored points.
func (s *FlatStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids), nil
}

// Save writes the index to path. The file is written next to path and
// renamed over it, so a failed save leaves the previous file intact.
func (s *FlatStore) Save(path string) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale index file: %w", err)
	}

	db, err := bolt.Open(tmp, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}

	err = s.write(db)
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close index file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

func (s *FlatStore) write(db *bolt.DB) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return db.Update(func(tx *bolt.Tx) error {
		vectors, err := tx.CreateBucket(vectorsBucket)
		if err != nil {
			return fmt.Errorf("failed to create vectors bucket: %w", err)
		}
		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return fmt.Errorf("failed to create meta bucket: %w", err)
		}
		if err := meta.Put(dimKey, []byte(strconv.Itoa(s.dim))); err != nil {
			return err
		}

		// Keys are zero-padded positions so a cursor walk restores insertion order.
		for i, id := range s.ids {
			e := s.entries[id]
			key := []byte(fmt.Sprintf("%010d", i))
			payload, err := json.Marshal(storedPoint{ID: id, Meta: e.meta})
			if err != nil {
				return fmt.Errorf("failed to encode point %s: %w", id, err)
			}
			if err := vectors.Put(key, encodeVector(e.vec)); err != nil {
				return fmt.Errorf("failed to write vector %s: %w", id, err)
			}
			if err := meta.Put(key, payload); err != nil {
				return fmt.Errorf("failed to write payload %s: %w", id, err)
			}
		}
		return nil
	})
}

type storedPoint struct {
	ID   string         `json:"id"`
	Meta map[string]any `json:"meta,omitempty"`
}

// LoadStaged reads the index written by Save at path into a new store that
// can be passed to Promote.
func (s *FlatStore) LoadStaged(path string) (VectorStore, error) {
	return OpenFlatStore(path)
}

// OpenFlatStore loads an index written by Save.
func OpenFlatStore(path string) (*FlatStore, error) {
	s := NewFlatStore()
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the store contents with the index written by Save at path.
// The store is left unchanged when reading fails.
func (s *FlatStore) Load(path string) error {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	var (
		dim     int
		ids     []string
		entries = make(map[string]flatEntry)
	)
	err = db.View(func(tx *bolt.Tx) error {
		vectors := tx.Bucket(vectorsBucket)
		meta := tx.Bucket(metaBucket)
		if vectors == nil || meta == nil {
			return fmt.Errorf("index file is missing buckets")
		}

		dim, err = strconv.Atoi(string(meta.Get(dimKey)))
		if err != nil {
			return fmt.Errorf("invalid stored dimension: %w", err)
		}

		return vectors.ForEach(func(k, v []byte) error {
			var p storedPoint
			if err := json.Unmarshal(meta.Get(k), &p); err != nil {
				return fmt.Errorf("failed to decode payload: %w", err)
			}
			vec := decodeVector(v)
			if len(vec) != dim {
				return fmt.Errorf("point %s: %w", p.ID, ErrDimensionMismatch)
			}
			ids = append(ids, p.ID)
			entries[p.ID] = flatEntry{vec: vec, meta: p.Meta}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = dim
	s.ids = ids
	s.entries = entries
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
