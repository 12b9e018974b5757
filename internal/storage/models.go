package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// IndexState records which corpus the persisted vector index was built from.
type IndexState struct {
	CorpusHash     string
	Backend        string
	EmbeddingModel string
	VectorCount    int
	BuiltAt        time.Time
}
