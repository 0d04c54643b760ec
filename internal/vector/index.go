// Package vector provides the note store and exact nearest-neighbour search.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when an embedding's length differs from the store's dimensions.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// NoteStore defines note storage and nearest-neighbour lookup.
type NoteStore interface {
	Insert(ctx context.Context, content string, embedding []float32) (id string, index int, err error)
	Nearest(ctx context.Context, query []float32) (*Neighbor, error)
	Get(id string) (Record, bool)
	All() []Record
	Size() int
	Dimensions() int
}

// Record is a stored note. Index is its insertion position; ID is its identity.
type Record struct {
	ID        string    `json:"id"`
	Index     int       `json:"index"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// Neighbor is the result of a nearest-neighbour query.
type Neighbor struct {
	ID       string  `json:"id"`
	Index    int     `json:"index"`
	Content  string  `json:"content"`
	Distance float64 `json:"distance"`
}
