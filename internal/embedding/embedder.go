// Package embedding turns note text into vectors: an OpenAI HTTP embedder, a deterministic
// mock for tests and offline use, and an LRU cache in front of either.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
