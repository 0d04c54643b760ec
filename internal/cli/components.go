package cli

import (
	"errors"
	"fmt"

	"github.com/hyperjump/waygraph/internal/config"
	"github.com/hyperjump/waygraph/internal/embedding"
	"github.com/hyperjump/waygraph/internal/indexer"
	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/keyword"
	"github.com/hyperjump/waygraph/internal/layout"
	"github.com/hyperjump/waygraph/internal/metrics"
	"github.com/hyperjump/waygraph/internal/vector"
	"go.uber.org/zap"
)

// components is the in-process stack shared by every command.
type components struct {
	Embedder embedding.Embedder
	Store    *vector.Store
	Engine   *layout.Engine
	Pipeline *ingest.Pipeline
	Keywords *keyword.BleveIndex
	Indexer  *indexer.Indexer
}

// Close releases the embedder and the keyword index.
func (c *components) Close() {
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// newEmbedder builds the configured embedder behind an LRU cache. When mockFallback is
// set and the OpenAI key is missing, the deterministic mock is used instead.
func newEmbedder(cfg config.EmbeddingConfig, forceMock, mockFallback bool, logger *zap.Logger) (embedding.Embedder, error) {
	var base embedding.Embedder
	switch {
	case forceMock || cfg.Provider == config.ProviderMock:
		base = embedding.NewMockEmbedder(cfg.Dimensions)
	default:
		oe, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey(),
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})
		switch {
		case errors.Is(err, embedding.ErrNoAPIKey) && mockFallback:
			logger.Warn("no embedding API key, using mock embedder", zap.String("env", cfg.APIKeyEnv))
			base = embedding.NewMockEmbedder(cfg.Dimensions)
		case err != nil:
			return nil, fmt.Errorf("create embedder: %w", err)
		default:
			base = oe
		}
	}
	if cfg.CacheSize > 0 {
		return embedding.NewCachedEmbedder(base, cfg.CacheSize), nil
	}
	return base, nil
}

// buildComponents wires store, layout engine, pipeline, keyword index and indexer.
func buildComponents(cfg *config.Config, emb embedding.Embedder, logger *zap.Logger, m *metrics.Collector) (*components, error) {
	store, err := vector.NewStore(emb.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create note store: %w", err)
	}
	engine, err := layout.NewEngine(cfg.Layout.Params, layout.WithLogger(logger), layout.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("create layout engine: %w", err)
	}
	kw, err := keyword.NewBleveIndex()
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	pipeline := ingest.NewPipeline(store, engine, ingest.WithLogger(logger), ingest.WithMetrics(m))
	idx := indexer.NewIndexer(pipeline, emb, cfg.Graph.Threshold,
		indexer.WithLogger(logger),
		indexer.WithKeywordIndex(kw),
	)
	return &components{
		Embedder: emb,
		Store:    store,
		Engine:   engine,
		Pipeline: pipeline,
		Keywords: kw,
		Indexer:  idx,
	}, nil
}
