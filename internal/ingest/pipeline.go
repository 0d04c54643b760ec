// Package ingest links each new note to its nearest prior note and forwards graph events.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperjump/waygraph/internal/metrics"
	"github.com/hyperjump/waygraph/internal/vector"
	"go.uber.org/zap"
)

// Event announces an inserted note to the graph. RelatedTo is empty when the note has no semantic link.
type Event struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	RelatedTo string `json:"related_to,omitempty"`
}

// Sink receives graph events. All events passed in one call form one structural update batch.
type Sink interface {
	Apply(events ...Event)
}

// Result describes one ingested note.
// Distance is the distance to the nearest prior note, or -1 when the store was empty.
type Result struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Content   string  `json:"content"`
	RelatedTo string  `json:"related_to,omitempty"`
	Distance  float64 `json:"distance"`
}

// Item is one note to ingest in a batch.
type Item struct {
	Content   string
	Embedding []float32
}

// Pipeline runs nearest-then-insert for each note and emits graph events.
// Ingestions through the same Pipeline are serialised.
type Pipeline struct {
	store   vector.NoteStore
	sink    Sink
	mu      sync.Mutex
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for debug output (link decisions).
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records ingestion metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// NewPipeline creates a pipeline over store. sink may be nil when no graph is attached.
func NewPipeline(store vector.NoteStore, sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the underlying note store.
func (p *Pipeline) Store() vector.NoteStore {
	return p.store
}

// Ingest queries the nearest prior note, links to it when its distance is below threshold,
// inserts the note and emits a graph event. On error nothing is inserted or emitted.
func (p *Pipeline) Ingest(ctx context.Context, content string, embedding []float32, threshold float64) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	res, err := p.ingestLocked(ctx, content, embedding, threshold)
	if err != nil {
		return nil, err
	}
	p.emit([]Event{res.event()})
	return res, nil
}

// IngestBatch ingests items in order and emits their events as a single batch.
// Each item is atomic; on the first failure the items already inserted are returned
// (and emitted) along with the error.
func (p *Pipeline) IngestBatch(ctx context.Context, items []Item, threshold float64) ([]*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]*Result, 0, len(items))
	var err error
	for i, it := range items {
		var res *Result
		res, err = p.ingestLocked(ctx, it.Content, it.Embedding, threshold)
		if err != nil {
			err = fmt.Errorf("item %d: %w", i, err)
			break
		}
		results = append(results, res)
	}
	events := make([]Event, len(results))
	for i, r := range results {
		events[i] = r.event()
	}
	p.emit(events)
	return results, err
}

func (p *Pipeline) ingestLocked(ctx context.Context, content string, embedding []float32, threshold float64) (*Result, error) {
	nearest, err := p.store.Nearest(ctx, embedding)
	if err != nil {
		p.recordError(err)
		return nil, fmt.Errorf("nearest: %w", err)
	}
	res := &Result{Content: content, Distance: -1}
	if nearest != nil {
		res.Distance = nearest.Distance
		if nearest.Distance < threshold {
			res.RelatedTo = nearest.ID
		}
	}
	id, index, err := p.store.Insert(ctx, content, embedding)
	if err != nil {
		p.recordError(err)
		return nil, fmt.Errorf("insert: %w", err)
	}
	res.ID = id
	res.Index = index
	p.metrics.RecordIngest(res.Distance, res.RelatedTo != "")
	if p.logger != nil {
		p.logger.Debug("note ingested",
			zap.String("id", id),
			zap.Int("index", index),
			zap.String("related_to", res.RelatedTo),
			zap.Float64("distance", res.Distance),
			zap.Float64("threshold", threshold),
		)
	}
	return res, nil
}

func (p *Pipeline) recordError(err error) {
	if errors.Is(err, vector.ErrDimensionMismatch) {
		p.metrics.RecordDimensionMismatch()
	}
}

func (p *Pipeline) emit(events []Event) {
	if p.sink == nil || len(events) == 0 {
		return
	}
	p.sink.Apply(events...)
}

func (r *Result) event() Event {
	return Event{ID: r.ID, Content: r.Content, RelatedTo: r.RelatedTo}
}
