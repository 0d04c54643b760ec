package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestNewStore_RejectsNonPositiveDimensions(t *testing.T) {
	for _, dim := range []int{0, -1} {
		if _, err := NewStore(dim); err == nil {
			t.Errorf("NewStore(%d): expected error", dim)
		}
	}
}

func TestStore_InsertNearest(t *testing.T) {
	s, err := NewStore(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := make([]string, len(vecs))
	for i, v := range vecs {
		id, index, err := s.Insert(ctx, fmt.Sprintf("note %d", i), v)
		if err != nil {
			t.Fatal(err)
		}
		if index != i {
			t.Errorf("index = %d, want %d", index, i)
		}
		ids[i] = id
	}
	if s.Size() != 3 {
		t.Errorf("Size=%d, want 3", s.Size())
	}

	for i, v := range vecs {
		n, err := s.Nearest(ctx, v)
		if err != nil {
			t.Fatal(err)
		}
		if n == nil {
			t.Fatal("expected a neighbour")
		}
		if n.ID != ids[i] || n.Distance != 0 {
			t.Errorf("Nearest(%v) = %s at %f, want %s at 0", v, n.ID, n.Distance, ids[i])
		}
	}

	n, err := s.Nearest(ctx, []float32{0, 0.8, 0})
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != ids[2] {
		t.Errorf("nearest should be note 2, got index %d", n.Index)
	}
	if math.Abs(n.Distance-0.2) > 1e-6 {
		t.Errorf("distance = %f, want 0.2", n.Distance)
	}
}

func TestStore_NearestEmpty(t *testing.T) {
	s, _ := NewStore(2)
	n, err := s.Nearest(context.Background(), []float32{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if n != nil {
		t.Errorf("expected nil neighbour on empty store, got %+v", n)
	}
}

func TestStore_DimensionMismatch(t *testing.T) {
	s, _ := NewStore(3)
	ctx := context.Background()
	if _, _, err := s.Insert(ctx, "ok", []float32{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	_, _, err := s.Insert(ctx, "short", []float32{1, 2})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Insert: expected ErrDimensionMismatch, got %v", err)
	}
	_, err = s.Nearest(ctx, []float32{1, 2, 3, 4})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Nearest: expected ErrDimensionMismatch, got %v", err)
	}
	if s.Size() != 1 {
		t.Errorf("size changed after rejected insert: %d", s.Size())
	}
}

func TestStore_TieBreakFirstInserted(t *testing.T) {
	s, _ := NewStore(2)
	ctx := context.Background()
	first, _, _ := s.Insert(ctx, "left", []float32{-1, 0})
	_, _, _ = s.Insert(ctx, "right", []float32{1, 0})
	_, _, _ = s.Insert(ctx, "left again", []float32{-1, 0})

	for i := 0; i < 10; i++ {
		n, err := s.Nearest(ctx, []float32{0, 0})
		if err != nil {
			t.Fatal(err)
		}
		if n.ID != first {
			t.Fatalf("run %d: tie should resolve to first inserted, got index %d", i, n.Index)
		}
	}
}

func TestStore_InsertCopiesEmbedding(t *testing.T) {
	s, _ := NewStore(2)
	ctx := context.Background()
	v := []float32{1, 1}
	id, _, _ := s.Insert(ctx, "a", v)
	v[0] = 100

	r, ok := s.Get(id)
	if !ok {
		t.Fatal("Get: not found")
	}
	if r.Embedding[0] != 1 {
		t.Errorf("stored embedding mutated through caller slice: %v", r.Embedding)
	}
}

func TestStore_AllInInsertionOrder(t *testing.T) {
	s, _ := NewStore(1)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _, _ = s.Insert(ctx, fmt.Sprint(i), []float32{float32(i)})
	}
	all := s.All()
	if len(all) != 5 {
		t.Fatalf("All() len = %d", len(all))
	}
	for i, r := range all {
		if r.Index != i || r.Content != fmt.Sprint(i) {
			t.Errorf("record %d = %+v", i, r)
		}
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) should be false")
	}
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	s, _ := NewStore(1, WithIDGenerator(func() string { return "same" }))
	ctx := context.Background()
	if _, _, err := s.Insert(ctx, "a", []float32{0}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Insert(ctx, "b", []float32{1}); err == nil {
		t.Error("expected duplicate id error")
	}
	if s.Size() != 1 {
		t.Errorf("size = %d, want 1", s.Size())
	}
}

func TestStore_ConcurrentInsert(t *testing.T) {
	s, _ := NewStore(2)
	ctx := context.Background()
	var wg sync.WaitGroup
	const workers, perWorker = 8, 50
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, _, err := s.Insert(ctx, "n", []float32{float32(w), float32(i)}); err != nil {
					t.Error(err)
				}
			}
		}(w)
	}
	wg.Wait()

	if s.Size() != workers*perWorker {
		t.Fatalf("size = %d, want %d", s.Size(), workers*perWorker)
	}
	seen := make(map[string]bool)
	for i, r := range s.All() {
		if r.Index != i {
			t.Errorf("record %d has index %d", i, r.Index)
		}
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestL2Distance(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{0, 0, 0}, []float32{1, 0, 0}, 1},
		{[]float32{0, 0}, []float32{3, 4}, 5},
		{[]float32{1, 1}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		if got := L2Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("L2Distance(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
	if got := L2Norm([]float32{3, 4}); got != 5 {
		t.Errorf("L2Norm = %f, want 5", got)
	}
}
