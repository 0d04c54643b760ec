package keyword

import (
	"context"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex()
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "n1", "Gradient descent minimises the loss. The Bayes rule is also mentioned."); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Index(ctx, "n2", "Cooking pasta requires salted water."); err != nil {
		t.Fatalf("Index: %v", err)
	}

	results, err := idx.Search(ctx, "gradient", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "n1" {
		t.Fatalf("results = %+v, want only n1", results)
	}

	// no stemming: "bayes" matches "Bayes"
	results, err = idx.Search(ctx, "bayes", 10, nil)
	if err != nil {
		t.Fatalf("Search bayes: %v", err)
	}
	if len(results) == 0 || results[0].ID != "n1" {
		t.Errorf("bayes results = %+v", results)
	}

	count, err := idx.DocCount()
	if err != nil || count != 2 {
		t.Errorf("DocCount() = %d, %v", count, err)
	}
}

func TestBleveIndex_SearchLimit(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := idx.Index(ctx, id, "shared term "+id); err != nil {
			t.Fatal(err)
		}
	}
	results, err := idx.Search(ctx, "shared", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
	if results, _ := idx.Search(ctx, "shared", 0, nil); len(results) != 0 {
		t.Errorf("limit 0 should return nothing, got %d", len(results))
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "n1", "backpropagation computes gradients"); err != nil {
		t.Fatal(err)
	}
	exact, err := idx.Search(ctx, "gradiants", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(exact) != 0 {
		t.Errorf("misspelt query should not match without fuzzy, got %+v", exact)
	}
	fuzzy, err := idx.Search(ctx, "gradiants", 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(fuzzy) != 1 || fuzzy[0].ID != "n1" {
		t.Errorf("fuzzy results = %+v", fuzzy)
	}
}

func TestBleveIndex_PhraseBoost(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "scattered", "learning is fun and the rate of change matters"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(ctx, "phrase", "the learning rate controls step size"); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "learning rate", 10, &SearchOptions{PhraseBoost: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != "phrase" {
		t.Errorf("results = %+v, want phrase match first", results)
	}
}
