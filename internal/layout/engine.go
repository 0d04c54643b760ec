// Package layout maintains the note graph and its force-directed layout.
//
// Nodes and edges are append-only. Positions come from the simulation alone: a new
// node is placed on a circle around the canvas centre and every later position is
// the result of Tick. The engine has no timer; the caller decides the cadence.
package layout

import (
	"fmt"
	"math"
	"sync"

	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/metrics"
	"github.com/hyperjump/waygraph/pkg/utils"
	"go.uber.org/zap"
)

// Engine owns the graph nodes and edges and advances the simulation.
type Engine struct {
	params  Params
	nodes   []Node
	index   map[string]int
	adj     [][]int
	edges   []Edge
	pairs   map[pairKey]EdgeKind
	ticks   uint64
	mu      sync.Mutex
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output (ignored events, skipped edges).
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records tick metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// NewEngine creates an empty layout engine.
func NewEngine(params Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout params: %w", err)
	}
	e := &Engine{
		params: params,
		index:  make(map[string]int),
		pairs:  make(map[pairKey]EdgeKind),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params returns the engine's parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Apply adds one node per event, a semantic edge for each event with RelatedTo, and then
// infers sequential edges. Events for ids already in the graph are ignored.
func (e *Engine) Apply(events ...ingest.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		if _, exists := e.index[ev.ID]; exists {
			if e.logger != nil {
				e.logger.Debug("layout ignoring duplicate node", zap.String("id", ev.ID))
			}
			continue
		}
		e.addNodeLocked(ev.ID, ev.Content)
		if ev.RelatedTo != "" && !e.addEdgeLocked(ev.RelatedTo, ev.ID, EdgeSemantic) && e.logger != nil {
			e.logger.Debug("layout skipped semantic edge",
				zap.String("source", ev.RelatedTo), zap.String("target", ev.ID))
		}
	}
	e.inferSequentialLocked()
}

// addNodeLocked places the node on the placement circle at angle 2*pi*rank/count,
// where count includes the new node. Existing nodes are not moved.
func (e *Engine) addNodeLocked(id, content string) {
	rank := len(e.nodes)
	count := rank + 1
	angle := 2 * math.Pi * float64(rank) / float64(count)
	c := e.params.center()
	pos := Vec2{
		X: c.X + math.Cos(angle)*e.params.Radius,
		Y: c.Y + math.Sin(angle)*e.params.Radius,
	}
	e.nodes = append(e.nodes, Node{
		ID:       id,
		Label:    utils.Prefix(content, e.params.LabelLength),
		Position: pos,
	})
	e.index[id] = rank
	e.adj = append(e.adj, nil)
}

// addEdgeLocked records an edge unless an endpoint is unknown, it is a self-loop, or the
// unordered pair already has an edge of any kind.
func (e *Engine) addEdgeLocked(source, target string, kind EdgeKind) bool {
	if source == target {
		return false
	}
	si, ok := e.index[source]
	if !ok {
		return false
	}
	ti, ok := e.index[target]
	if !ok {
		return false
	}
	key := newPairKey(source, target)
	if _, exists := e.pairs[key]; exists {
		return false
	}
	e.pairs[key] = kind
	e.edges = append(e.edges, Edge{Source: source, Target: target, Kind: kind})
	e.adj[si] = append(e.adj[si], ti)
	e.adj[ti] = append(e.adj[ti], si)
	return true
}

// inferSequentialLocked links every insertion-adjacent pair that has no edge yet.
// Re-running it adds nothing.
func (e *Engine) inferSequentialLocked() {
	for i := 0; i+1 < len(e.nodes); i++ {
		e.addEdgeLocked(e.nodes[i].ID, e.nodes[i+1].ID, EdgeSequential)
	}
}

// Snapshot returns a copy of the current nodes and edges without advancing the simulation.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Tick:   e.ticks,
		Width:  e.params.Width,
		Height: e.params.Height,
		Nodes:  append([]Node{}, e.nodes...),
		Edges:  append([]Edge{}, e.edges...),
	}
}

// Len returns the number of nodes.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// EdgeBetween returns the kind of the edge joining a and b in either direction.
func (e *Engine) EdgeBetween(a, b string) (EdgeKind, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.pairs[newPairKey(a, b)]
	return k, ok
}
