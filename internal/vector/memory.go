package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store is an in-memory note store with brute-force L2 search.
// Records are append-only: there is no update or delete.
// Suitable for working sets of hundreds to low thousands of notes.
type Store struct {
	dimensions int
	records    []Record
	byID       map[string]int
	newID      func() string
	mu         sync.RWMutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator overrides the id generator (uuid by default). Generated ids must be unique.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a note store for embeddings of the given dimension.
func NewStore(dimensions int, opts ...StoreOption) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	s := &Store{
		dimensions: dimensions,
		records:    make([]Record, 0),
		byID:       make(map[string]int),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) checkDimensions(v []float32) error {
	if len(v) != s.dimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(v), s.dimensions)
	}
	return nil
}

// Insert appends a note and returns its new id and insertion index.
// The embedding is copied; later changes to the caller's slice do not affect the store.
func (s *Store) Insert(ctx context.Context, content string, embedding []float32) (string, int, error) {
	if err := s.checkDimensions(embedding); err != nil {
		return "", 0, err
	}
	vec := make([]float32, s.dimensions)
	copy(vec, embedding)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	if _, exists := s.byID[id]; exists {
		return "", 0, fmt.Errorf("duplicate note id %q", id)
	}
	index := len(s.records)
	s.records = append(s.records, Record{ID: id, Index: index, Content: content, Embedding: vec})
	s.byID[id] = index
	return id, index, nil
}

// Nearest returns the stored note closest to query by L2 distance, or nil when the store is empty.
// Ties go to the earliest inserted note.
func (s *Store) Nearest(ctx context.Context, query []float32) (*Neighbor, error) {
	if err := s.checkDimensions(query); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil, nil
	}
	best := -1
	bestDist := 0.0
	for i := range s.records {
		d := L2Distance(query, s.records[i].Embedding)
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	r := s.records[best]
	return &Neighbor{ID: r.ID, Index: r.Index, Content: r.Content, Distance: bestDist}, nil
}

// Get returns the note with the given id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// All returns the stored notes in insertion order. Embeddings are shared, not copied.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// Size returns the number of notes in the store.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimensions returns the configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}
